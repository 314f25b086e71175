package utils

import (
	"regexp"
	"strings"
)

const (
	// MinSlugLength is the minimum allowed tenant slug length
	MinSlugLength = 2
	// MaxSlugLength is the maximum allowed tenant slug length
	MaxSlugLength = 63
)

var (
	// slugRegex validates tenant slug format
	slugRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

	// Reserved slugs that cannot be claimed by a tenant
	reservedSlugs = map[string]bool{
		"www":        true,
		"api":        true,
		"admin":      true,
		"superadmin": true,
		"app":        true,
		"web":        true,
		"mail":       true,
		"smtp":       true,
		"ftp":        true,
		"localhost":  true,
		"test":       true,
		"dev":        true,
		"staging":    true,
		"prod":       true,
		"cdn":        true,
		"static":     true,
	}
)

// NormalizeHost canonicalizes an externally observed hostname: lowercase,
// port stripped, leading "www." stripped. All hostnames that normalize to
// the same string must be treated as the same domain.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	host = strings.TrimPrefix(host, "www.")
	return host
}

// StripPort removes a trailing :port from a host, if present.
func StripPort(host string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		return host[:idx]
	}
	return host
}

// Example: "acme.fluxio.mx" with base domain "fluxio.mx" -> "acme".
// Returns empty string when the host is not a subdomain of the base domain.
func ExtractSubdomain(host, baseDomain string) string {
	host = strings.ToLower(StripPort(host))
	baseDomain = strings.ToLower(StripPort(baseDomain))

	suffix := "." + baseDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}

	label := strings.TrimSuffix(host, suffix)
	// Nested labels (a.b.basedomain) are not tenant subdomains.
	if label == "" || strings.Contains(label, ".") {
		return ""
	}

	return label
}

// IsValidSlug checks if a tenant slug is valid
func IsValidSlug(slug string) bool {
	slug = strings.ToLower(slug)

	if len(slug) < MinSlugLength || len(slug) > MaxSlugLength {
		return false
	}

	if !slugRegex.MatchString(slug) {
		return false
	}

	return !reservedSlugs[slug]
}

// IsReservedSlug checks if a slug is reserved
func IsReservedSlug(slug string) bool {
	return reservedSlugs[strings.ToLower(slug)]
}
