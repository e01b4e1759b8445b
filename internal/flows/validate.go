package flows

import "strings"

// ValidEmail reports whether email is non-blank and has an "@" after its first character.
func ValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return strings.Index(email, "@") > 0
}

// ValidPassword reports whether password is non-blank.
func ValidPassword(password string) bool {
	return strings.TrimSpace(password) != ""
}

// Present reports whether a delegated-provider argument was supplied.
func Present(arg string) bool {
	return strings.TrimSpace(arg) != ""
}

// CheckCredentials validates an email/password pair in that order.
func CheckCredentials(email, password string) *Failure {
	if !ValidEmail(email) {
		return &Failure{Kind: FailureInvalidEmail}
	}
	if !ValidPassword(password) {
		return &Failure{Kind: FailureInvalidPassword}
	}
	return nil
}

// CheckProviderArgs fails with FailureBadProviderToken when any argument is absent.
func CheckProviderArgs(args ...string) *Failure {
	for _, arg := range args {
		if !Present(arg) {
			return &Failure{Kind: FailureBadProviderToken}
		}
	}
	return nil
}
