package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultUserAgent identifies the collector to upstream sources.
const DefaultUserAgent = "solarintel-worker/1.0"

// BuildHeaders creates HTTP headers with defaults. Custom values override defaults.
func BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", DefaultUserAgent)
	headers.Set("Accept", "application/json, application/rss+xml, text/html;q=0.9, */*;q=0.8")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// ResolveURL makes href absolute against base. Already absolute links are returned unchanged.
// If either side fails to parse, the two are joined textually.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}

	return baseURL.ResolveReference(ref).String()
}
