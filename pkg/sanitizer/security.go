package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptTagRegex  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	eventAttrRegex  = regexp.MustCompile(`(?i)\s+on\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsProtocolRegex = regexp.MustCompile(`(?i)javascript\s*:`)
	dotsRegex       = regexp.MustCompile(`\.{2,}`)
)

// StripScriptTags removes <script> elements together with their content.
func StripScriptTags(s string) string {
	return scriptTagRegex.ReplaceAllString(s, "")
}

// RemoveJavaScriptEvents drops inline on* handlers and javascript: URLs.
func RemoveJavaScriptEvents(s string) string {
	s = eventAttrRegex.ReplaceAllString(s, "")
	return jsProtocolRegex.ReplaceAllString(s, "")
}

// RemoveNullBytes removes NUL characters.
func RemoveNullBytes(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// RemoveControlChars removes control characters except newline, carriage
// return and tab.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// Clean is the default pipeline for user supplied text. It does not escape
// HTML; rendering is expected to do that.
var Clean = Compose(
	RemoveNullBytes,
	RemoveControlChars,
	StripScriptTags,
	RemoveJavaScriptEvents,
	strings.TrimSpace,
)

// NormalizeEmail trims and lowercases an address and collapses repeated dots
// in the local part. Values without exactly one "@" are only trimmed and
// lowercased.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return email
	}

	local = strings.Trim(dotsRegex.ReplaceAllString(local, "."), ".")
	return local + "@" + domain
}
