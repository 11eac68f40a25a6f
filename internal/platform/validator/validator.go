// internal/platform/validator/validator.go
package validator

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var domainRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)

// IsDomain reports whether s is a syntactically valid hostname (not an IP).
func IsDomain(domain string) bool {
	if len(domain) == 0 || len(domain) > 253 {
		return false
	}
	if !domainRegex.MatchString(domain) {
		return false
	}
	return net.ParseIP(domain) == nil
}

// NormalizeTarget lower-cases and trims a user-supplied target domain.
// Unlike artifact lines, targets are compared case-insensitively.
func NormalizeTarget(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimSuffix(domain, "/")
	return strings.TrimSuffix(domain, ".")
}

// RegistrableDomain returns the eTLD+1 of domain using the public suffix list.
// A bare public suffix such as "co.uk" returns an error.
func RegistrableDomain(domain string) (string, error) {
	return publicsuffix.EffectiveTLDPlusOne(NormalizeTarget(domain))
}

// InScope reports whether host equals root or is one of its subdomains.
func InScope(host, root string) bool {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	root = strings.ToLower(strings.TrimSpace(root))
	if host == "" || root == "" {
		return false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host == root || strings.HasSuffix(host, "."+root)
}

// IsURL checks for an absolute http(s) URL with a host.
func IsURL(urlStr string) bool {
	if len(urlStr) == 0 {
		return false
	}
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// URLHost extracts the host (without port) of an absolute URL, or "".
func URLHost(urlStr string) string {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
