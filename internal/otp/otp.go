package otp

import "regexp"

// codePattern matches a standalone run of 4 to 8 decimal digits.
var codePattern = regexp.MustCompile(`\b\d{4,8}\b`)

// Find returns the first passcode-looking token in text. The first match
// wins; a phone number fragment can match before the real code.
func Find(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	code := codePattern.FindString(text)
	return code, code != ""
}

// FindIn returns the first passcode found in the first non-empty
// candidate. Later candidates are only consulted when earlier ones are
// empty, not when they lack a code.
func FindIn(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c != "" {
			return Find(c)
		}
	}
	return "", false
}
