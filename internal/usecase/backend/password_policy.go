package backend

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"qwertyuiop": {}, "iloveyou": {}, "sunshine": {}, "football": {}, "baseball": {},
	"letmein1": {}, "welcome1": {}, "abc12345": {}, "trustno1": {}, "passw0rd": {},
}

// ValidatePassword returns the policy violations for password, empty when it is acceptable.
func ValidatePassword(password, email string) []string {
	var problems []string
	if len(password) < MinPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		problems = append(problems, "This password is entirely numeric.")
	}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && len(local) >= 3 &&
		strings.Contains(strings.ToLower(password), local) {
		problems = append(problems, "The password is too similar to the email address.")
	}
	return problems
}

// validEmail is a light syntactic check.
func validEmail(email string) bool {
	local, domainPart, ok := strings.Cut(strings.TrimSpace(email), "@")
	return ok && local != "" && strings.Contains(domainPart, ".") &&
		!strings.ContainsAny(email, " \t\r\n") && !strings.HasSuffix(domainPart, ".")
}
