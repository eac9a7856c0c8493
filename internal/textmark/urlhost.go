package textmark

import (
	"net/url"
	"regexp"
)

// urlPattern finds http(s) URLs in free text, bounded to a reasonable URL
// length so a pathological run of URL-like characters cannot blow up the
// match set.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>\)\]]{1,2048}`)

// ExtractHosts scans text (already bounded by the caller) for http(s) URLs
// and returns the set of distinct hostnames referenced, sorted by first
// appearance. It never resolves the URLs (spec non-goal: no network
// resolution) -- this is string parsing only.
func ExtractHosts(text string, maxURLs int) []string {
	matches := urlPattern.FindAllString(text, maxURLs)
	seen := make(map[string]bool)
	var hosts []string
	for _, m := range matches {
		u, err := url.Parse(m)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := u.Hostname()
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// HostFromURL extracts the hostname from a single URL string, or "" if it
// does not resolve to a well-formed absolute URL.
func HostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
