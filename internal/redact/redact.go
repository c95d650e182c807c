// Package redact scrubs secrets from strings before they are logged, stored
// on a task record or returned to a caller. Provider errors routinely echo
// request URLs, presigned links and headers; everything that leaves the
// process through a status record goes through Error first.
package redact

import (
	"regexp"
)

// Placeholders substituted for redacted content.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedSignaturePlaceholder  = "[REDACTED_SIGNATURE]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Rules run in order. Signed URL parameters go first so the host and path
// rules do not eat half a query string.
var rules = []rule{
	// S3 presigned query parameters
	{
		regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential|Security-Token)=)[^&\s"]+`),
		"${1}" + RedactedSignaturePlaceholder,
	},
	// URLs carrying user info
	{
		regexp.MustCompile(`(?i)([a-z][a-z0-9+.-]*://)[^/@\s]+:[^/@\s]+@`),
		"${1}" + RedactedCredentialPlaceholder + "@",
	},
	// Authorization headers
	{
		regexp.MustCompile(`(?i)(bearer|basic)\s+[A-Za-z0-9_\-.~+/=]{8,}`),
		"${1} " + RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|token|secret|access[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},
	// Google API keys embedded in URLs (key=AIza...)
	{
		regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(AKIA|ASIA)[A-Z0-9]{12,}`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		"[STACK_TRACE_REDACTED]",
	},
	{
		regexp.MustCompile(`[A-Za-z]:\\[^\\]+(\\[^\\]+)+`),
		RedactedPathPlaceholder,
	},
	// Absolute filesystem paths. Paths inside URLs are kept.
	{
		regexp.MustCompile(`(^|[\s'"(=])(/[\w.-]+){2,}`),
		"${1}" + RedactedPathPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		"[REDACTED_EMAIL]",
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
