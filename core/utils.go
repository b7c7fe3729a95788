package core

import "strings"

// CleanString normalizes user-entered identifiers: leading and trailing
// whitespace is stripped, and with lower=true the result is lowercased.
// Emails are matched case-insensitively everywhere, so every email passes
// through here before hitting a store or a token subject.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		s = strings.ToLower(s)
	}
	return s
}
