// Package redact scrubs sensitive material from error strings before they
// are recorded on jobs or returned to API clients. Errors wrapped from the
// database driver or cloud backends can carry connection strings, API keys,
// and bearer tokens that must not leak through job status responses.
package redact

import "regexp"

// RedactionPlaceholder replaces matched sensitive fragments.
const RedactionPlaceholder = "[REDACTED]"

var (
	// Database connection strings with inline credentials.
	connStringRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// Passwords in key=value or key: value form.
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]['"]?)[^'"&\s]{3,}`)

	// API keys, tokens, and secrets.
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|bearer|authorization)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	patterns = []*regexp.Regexp{connStringRegex, passwordRegex, apiKeyRegex}
)

// String redacts sensitive fragments from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, RedactionPlaceholder)
	}
	return result
}

// Error redacts an error's message. A nil error yields the empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
