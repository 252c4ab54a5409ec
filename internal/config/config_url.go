// DataFlix - Movie Analytics Data Platform
// Copyright 2026 joaoVMiguez
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/joaoVMiguez/DataFlix

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateHTTPURL validates that a URL is properly formatted for an HTTP/HTTPS API.
// A versioned base path such as /3 is allowed; query parameters are not.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}

// validateEndpoint validates a host[:port] endpoint as used by S3 clients (no scheme).
func validateEndpoint(endpoint, fieldName string) error {
	if endpoint == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if strings.Contains(endpoint, "://") {
		return fmt.Errorf("%s must be host[:port] without scheme, got: %s", fieldName, endpoint)
	}
	if strings.ContainsAny(endpoint, "/?") {
		return fmt.Errorf("%s must not contain a path, got: %s", fieldName, endpoint)
	}
	return nil
}
