/* models.go
 * Contains shared models used across multiple packages
 */

package shared

// User represents a bot subscriber. Running reports whether goal
// notifications are currently enabled for this user. Users are never
// hard-deleted; opting out only clears the flag.
type User struct {
	UserID   string
	Username string
	Running  bool
}
