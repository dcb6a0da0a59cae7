package agg

import (
	"net/url"
	"regexp"
)

// unsubscribePattern matches the first angle-bracketed http(s) URL in a
// List-Unsubscribe header value. mailto-only headers are deliberately not
// surfaced as clickable links.
var unsubscribePattern = regexp.MustCompile(`<(https?://[^>]+)>`)

// blockedSchemes are rejected explicitly even though they would already
// fail the allow-list.
var blockedSchemes = map[string]bool{
	"javascript": true,
	"data":       true,
	"vbscript":   true,
}

var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// loopbackHosts are never acceptable unsubscribe targets.
var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"0.0.0.0":   true,
	"::1":       true,
}

// ExtractUnsubscribeLink pulls the first bracketed http(s) URL out of a raw
// List-Unsubscribe header value and validates it. Returns "" when the
// header has no usable link.
func ExtractUnsubscribeLink(header string) string {
	m := unsubscribePattern.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return ValidateUnsubscribeURL(m[1])
}

// ValidateUnsubscribeURL safety-checks a candidate unsubscribe URL and
// returns it unchanged if acceptable, or "" otherwise. Rejection is a
// normal outcome, never an error.
func ValidateUnsubscribeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if blockedSchemes[u.Scheme] {
		return ""
	}
	if !allowedSchemes[u.Scheme] {
		return ""
	}

	if u.Scheme == "http" || u.Scheme == "https" {
		if u.Host == "" {
			return ""
		}
		if loopbackHosts[u.Hostname()] {
			return ""
		}
	}

	return raw
}
