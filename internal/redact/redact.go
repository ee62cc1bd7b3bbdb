// Package redact scrubs secrets from error text before it is logged or sent
// to a client. Driver errors can echo connection strings, and Gemini client
// errors can echo request URLs that carry the API key.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules are applied in order; credential rules run before the path rule so
// that a DSN is replaced as a whole.
var rules = []rule{
	// user:password@ in postgres, pgx and other URL-style DSNs
	{
		regexp.MustCompile(`(?i)\b(postgres|postgresql|pgx|mysql|libsql|https?)://[^@\s/]+@`),
		"$1://" + RedactedCredentialPlaceholder + "@",
	},
	// key=value DSNs: password=secret
	{
		regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*['"]?[^'"&\s]+`),
		"$1=" + RedactedCredentialPlaceholder,
	},
	// Google API keys, wherever they appear
	{
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`),
		RedactedKeyPlaceholder,
	},
	// ?key=... and x-goog-api-key: ... style parameters
	{
		regexp.MustCompile(`(?i)\b(api[_-]?key|x-goog-api-key|key|token|secret)(["'\s]*[:=]\s*["']?)[A-Za-z0-9_\-.~+/]{8,}`),
		"$1$2" + RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/=]{8,}`),
		"Bearer " + RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},
	{
		regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)\b[\s\w,*()?$]+\b(FROM|INTO|SET|TABLE|INDEX)\b[\s\w,*()='"?$<>]*`),
		RedactedSQLPlaceholder,
	},
	// absolute file paths with at least two segments
	{
		regexp.MustCompile(`(^|[\s"'(=])(?:/[\w.\-]+){2,}`),
		"${1}" + RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// ErrorAttr returns a slog attribute named "error" holding the redacted
// error text.
func ErrorAttr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
