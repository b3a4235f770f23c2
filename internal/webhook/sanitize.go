package webhook

import (
	"net/url"
	"strings"
	"unicode"
)

const maxStringLength = 10000

// SanitizeString strips control characters (keeping newline and tab) and
// caps length, as part of the inbound "sanitizing" validation pass.
func SanitizeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if len(out) > maxStringLength {
		out = out[:maxStringLength]
	}
	return out
}

// SanitizeURL returns url unchanged if it parses as an absolute http(s)
// URL, or "" otherwise — the "keep only http/https URLs" rule.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}
