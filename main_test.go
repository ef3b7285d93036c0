/* main_test.go
 * Contains unit tests for utility functions
 */

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// region convertStrToBool tests

func TestConvertStrToBool_True(t *testing.T) {
	result, err := convertStrToBool("true")
	assert.NoError(t, err)
	assert.True(t, result)
}

func TestConvertStrToBool_False(t *testing.T) {
	result, err := convertStrToBool("false")
	assert.NoError(t, err)
	assert.False(t, result)
}

func TestConvertStrToBool_CaseAndWhitespace(t *testing.T) {
	result, err := convertStrToBool("  TRUE ")
	assert.NoError(t, err)
	assert.True(t, result)
}

func TestConvertStrToBool_Invalid(t *testing.T) {
	_, err := convertStrToBool("yes")
	assert.Error(t, err)
}

// endregion

// region parseLeagueIDs tests

func TestParseLeagueIDs_CommaSeparatedList(t *testing.T) {
	ids, err := parseLeagueIDs("39,140,78")
	assert.NoError(t, err)
	assert.Equal(t, []int{39, 140, 78}, ids)
}

func TestParseLeagueIDs_WhitespaceAndBlanksTolerated(t *testing.T) {
	ids, err := parseLeagueIDs(" 39 , , 140 ")
	assert.NoError(t, err)
	assert.Equal(t, []int{39, 140}, ids)
}

func TestParseLeagueIDs_EmptyMeansNoFilter(t *testing.T) {
	ids, err := parseLeagueIDs("")
	assert.NoError(t, err)
	assert.Nil(t, ids)
}

func TestParseLeagueIDs_InvalidEntryNamesIt(t *testing.T) {
	_, err := parseLeagueIDs("39,epl")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "epl")
}

// endregion
