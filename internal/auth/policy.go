package auth

import (
	"fmt"
	"unicode"
)

const MinPasswordLength = 6

// ValidateUsername allows ASCII letters, digits and -._@+ only.
func ValidateUsername(username string) []string {
	if username == "" {
		return []string{"Username '' is invalid, can only contain letters or digits."}
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			continue
		case r == '-', r == '.', r == '_', r == '@', r == '+':
			continue
		}
		return []string{fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", username)}
	}
	return nil
}

// ValidatePassword reports every unmet password requirement.
func ValidatePassword(password string) []string {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}

	var problems []string
	if len([]rune(password)) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength))
	}
	if !hasSymbol {
		problems = append(problems, "Passwords must have at least one non alphanumeric character.")
	}
	if !hasDigit {
		problems = append(problems, "Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		problems = append(problems, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		problems = append(problems, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	return problems
}
