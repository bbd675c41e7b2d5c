// Package validation holds the input checks shared by the stores and the
// notification layer.
package validation

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateUserID checks a user identifier before it reaches a query or a
// cache key. IDs come from upstream auth and are opaque strings.
func ValidateUserID(userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" || len(userID) > 64 {
		return false
	}
	return !strings.ContainsAny(userID, " \t\n")
}
