package config

import (
	"net/url"
	"sort"
	"strings"
)

// DefaultSitePatterns lists hosts served by the site-specific extraction
// strategy. Subdomains match as well.
var DefaultSitePatterns = []string{"4chan.org", "4channel.org"}

// MatchesSite reports whether host equals one of patterns or is a subdomain
// of one. Patterns are expected to be normalized.
func MatchesSite(host string, patterns []string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if host == p || strings.HasSuffix(host, "."+p) {
			return true
		}
	}
	return false
}

func sanitizeHostList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		host := normalizeHost(raw)
		if host == "" {
			continue
		}
		seen[host] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if u, err := url.Parse(value); err == nil && u.Host != "" {
			value = u.Hostname()
		}
	}
	value = strings.TrimPrefix(value, "*.")
	value = strings.TrimPrefix(value, "www.")
	return strings.TrimSuffix(value, ".")
}
