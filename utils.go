/* utils.go
 * Utility functions used across the application
 */

package main

import (
	"fmt"
	"strconv"
	"strings"
)

// convertStrToBool converts a string of true or false into a boolean for comparisons
// Preconditions: Receives string containing either true or false (case insensitive)
// Postconditions: Returns boolean value or an error if the string is not true or false
func convertStrToBool(str string) (bool, error) {
	str = strings.TrimSpace(str)
	str = strings.ToLower(str)

	if str == "true" {
		return true, nil
	} else if str == "false" {
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean string")
}

// parseLeagueIDs parses a comma separated list of numeric league ids
// Preconditions: Receives a string like "39,140,78" (blanks allowed)
// Postconditions: Returns the ids or an error naming the bad entry
func parseLeagueIDs(str string) ([]int, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, nil
	}

	var ids []int
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid league id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
