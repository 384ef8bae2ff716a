package helpers

import (
	"errors"
	"net/url"
	"strings"
)

var (
	ErrEmptyURL       = errors.New("empty url")
	ErrMissingHost    = errors.New("url missing host")
	ErrUnsupportedURL = errors.New("unsupported url scheme")
)

// TargetURL turns user input into an absolute http(s) URL suitable for
// navigation. Surrounding whitespace is dropped, scheme and host are
// lowercased and a missing scheme defaults to https. Path, query and
// fragment are left untouched since pages may depend on them.
func TargetURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	parsed, err := parseURLPreserveHost(raw)
	if err != nil {
		return "", err
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", ErrUnsupportedURL
	}
	if parsed.Hostname() == "" {
		return "", ErrMissingHost
	}
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String(), nil
}

// HostOf returns the lowercased hostname of raw, or "" when it has none.
func HostOf(raw string) string {
	parsed, err := parseURLPreserveHost(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// parseURLPreserveHost attempts to parse raw into a url.URL, handling schemeless URLs.
func parseURLPreserveHost(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		if !strings.Contains(raw, "://") {
			// "example.com:8080/x" can fail with a numeric-looking scheme
			return url.Parse("https://" + raw)
		}
		return nil, err
	}
	if parsed.Scheme == "" || looksLikeHostPort(parsed) {
		// Attempt schemeless format like example.com/path or //example.com/path.
		if strings.HasPrefix(raw, "//") {
			return url.Parse("https:" + raw)
		}
		return url.Parse("https://" + raw)
	}
	return parsed, nil
}

// looksLikeHostPort reports whether url.Parse mistook "host:port" for a
// scheme, as in "localhost:5000/path".
func looksLikeHostPort(u *url.URL) bool {
	if u.Opaque == "" {
		return false
	}
	port := u.Opaque
	if i := strings.IndexAny(port, "/?#"); i >= 0 {
		port = port[:i]
	}
	if port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
