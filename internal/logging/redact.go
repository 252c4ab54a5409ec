// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package logging

import (
	"net/url"
	"strings"
)

// sensitiveParams are query parameters never written to logs in clear.
var sensitiveParams = []string{"api_key", "apikey", "access_key", "secret_key", "token"}

// SanitizeToken masks a credential, showing only first and last 4 characters.
// Example: "0123456789abcdef0123" -> "0123...0123"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// RedactURL masks credential query parameters in a URL string.
// Unparseable input is returned with everything after '?' removed.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range sensitiveParams {
		if v := q.Get(p); v != "" {
			q.Set(p, SanitizeToken(v))
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// RedactError returns err's message with any embedded credential masked.
// net/http errors embed the full request URL, including the api_key.
func RedactError(err error, secret string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if secret != "" {
		msg = strings.ReplaceAll(msg, secret, SanitizeToken(secret))
	}
	return msg
}
