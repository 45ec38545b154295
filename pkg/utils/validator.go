package utils

import (
	"fmt"
	"regexp"
)

var requestNumberRegex = regexp.MustCompile(`^[A-Z]{2,8}-\d{4}-\d{6}$`)

// ValidateRequestNumber checks the KIND-YEAR-NNNNNN format
func ValidateRequestNumber(number string) error {
	if !requestNumberRegex.MatchString(number) {
		return fmt.Errorf("invalid request number format: %s", number)
	}
	return nil
}

// ValidateActorID checks an identity-resolver user ID
func ValidateActorID(actorID string) error {
	if actorID == "" {
		return fmt.Errorf("actor ID is required")
	}
	if len(actorID) > 64 {
		return fmt.Errorf("actor ID exceeds 64 characters")
	}
	return nil
}

// SanitizeString removes control characters from free-text input
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
