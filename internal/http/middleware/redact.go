package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// RedactOptions configures what Logger scrubs.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in
// set: Authorization, Cookie, Set-Cookie and X-Api-Key.
type RedactOptions struct {
	MaskHeaders []string
}

var (
	// API keys first: "sk-proj-..." contains hyphen-separated runs the other
	// patterns would otherwise split.
	apiKeyRE = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}`)
	bearerRE = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/\-]+=*`)
	uuidRE   = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE  = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex runs of UUIDs are not matched.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

type redactor struct {
	mask map[string]struct{}
}

func newRedactor(opts RedactOptions) *redactor {
	mask := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
		"x-api-key":     {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}
	return &redactor{mask: mask}
}

// scrub replaces keys, bearer tokens, UUIDs, emails and phone numbers in s.
// Order matters: phone is the loosest pattern and runs last.
func (r *redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	s = apiKeyRE.ReplaceAllString(s, "[REDACTED:key]")
	s = bearerRE.ReplaceAllString(s, "[REDACTED:token]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// headers returns a loggable copy of h.
func (r *redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.mask[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.scrub(strings.Join(vv, ", "))
	}
	return out
}
