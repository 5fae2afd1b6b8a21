package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// This is useful for creating consistent, safe keys for Redis.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeURL returns the duplicate-detection key for a bookmark URL.
//
// The scheme is forced to https, a single leading "www." label is removed
// from the host, the fragment is dropped and one trailing slash is trimmed.
// A port that is the default for the original scheme or for https is
// dropped, an empty path becomes "/" and dot segments are resolved before
// the slash is trimmed. Query strings are kept. Input that does not parse as
// an absolute URL with a host is returned unchanged, so malformed URLs only
// match themselves.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}

	port := u.Port()
	if port == defaultPorts[u.Scheme] || port == defaultPorts["https"] {
		port = ""
	}
	u.Scheme = "https"

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if strings.Contains(host, ":") {
		// IPv6 literal
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host

	u.Fragment = ""
	u.RawFragment = ""

	if u.Path == "" {
		u.Path, u.RawPath = "/", ""
	}
	u = u.ResolveReference(&url.URL{
		Path:       u.Path,
		RawPath:    u.RawPath,
		RawQuery:   u.RawQuery,
		ForceQuery: u.ForceQuery,
	})

	return strings.TrimSuffix(u.String(), "/")
}
