// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxUsernameLength    = 30
	MinUsernameLength    = 3
	MaxPasswordBytes     = 72
	MinStrongPasswordLen = 12
	MaxNameLength        = 100
	MaxTextLength        = 2000
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	specialPattern  = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLength)
	}

	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
	}

	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	// Cannot start or end with underscore/hyphen
	first, last := username[0], username[len(username)-1]
	if first == '_' || first == '-' || last == '_' || last == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidatePassword enforces the bcrypt input bounds.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidatePasswordStrength checks the strong password policy: length and
// upper, lower, digit and special character classes.
func ValidatePasswordStrength(password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}

	if utf8.RuneCountInString(password) < MinStrongPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinStrongPasswordLen)
	}

	hasUpper, hasLower := false, false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if !digitPattern.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}

	if !specialPattern.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}

	return nil
}

// ValidateName checks a required short field such as a plant name or type.
func ValidateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxNameLength)
	}
	return nil
}

// ValidateText checks an optional free-text field. nil is accepted.
func ValidateText(field string, value *string) error {
	if value == nil {
		return nil
	}
	if utf8.RuneCountInString(*value) > MaxTextLength {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxTextLength)
	}
	return nil
}
