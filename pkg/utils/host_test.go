package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"lowercase passthrough", "acme.com", "acme.com"},
		{"uppercase", "Acme.COM", "acme.com"},
		{"port stripped", "acme.com:443", "acme.com"},
		{"www stripped", "www.acme.com", "acme.com"},
		{"www and port", "WWW.Acme.com:8080", "acme.com"},
		{"surrounding whitespace", " acme.com ", "acme.com"},
		{"www only in middle kept", "app.www.acme.com", "app.www.acme.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeHost(tt.host))
		})
	}
}

func TestNormalizeHost_EquivalentForms(t *testing.T) {
	// All spellings of the same domain must collide on one key.
	forms := []string{"Foo.com", "foo.com:443", "www.foo.com", "WWW.FOO.COM:8443"}
	for _, f := range forms {
		assert.Equal(t, "foo.com", NormalizeHost(f))
	}
}

func TestStripPort(t *testing.T) {
	assert.Equal(t, "acme.com", StripPort("acme.com:3000"))
	assert.Equal(t, "acme.com", StripPort("acme.com"))
	assert.Equal(t, "localhost", StripPort("localhost:8080"))
}

func TestExtractSubdomain(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		base     string
		expected string
	}{
		{"simple subdomain", "acme.fluxio.mx", "fluxio.mx", "acme"},
		{"with port", "acme.fluxio.mx:8080", "fluxio.mx", "acme"},
		{"uppercase host", "ACME.Fluxio.MX", "fluxio.mx", "acme"},
		{"bare base domain", "fluxio.mx", "fluxio.mx", ""},
		{"unrelated host", "acme.com", "fluxio.mx", ""},
		{"nested label", "a.b.fluxio.mx", "fluxio.mx", ""},
		{"suffix but not label", "notfluxio.mx", "fluxio.mx", ""},
		{"localhost base", "acme.localhost", "localhost", "acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractSubdomain(tt.host, tt.base))
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	valid := []string{"acme", "acme-corp", "t1", "tenant42"}
	for _, s := range valid {
		assert.True(t, IsValidSlug(s), s)
	}

	invalid := []string{
		"",
		"a",                // too short
		"-acme",            // leading hyphen
		"acme-",            // trailing hyphen
		"acme corp",        // space
		"Acme!",            // punctuation
		"www",              // reserved
		"admin",            // reserved
		strings.Repeat("a", 70), // too long
	}
	for _, s := range invalid {
		assert.False(t, IsValidSlug(s), s)
	}
}

func TestIsReservedSlug(t *testing.T) {
	assert.True(t, IsReservedSlug("www"))
	assert.True(t, IsReservedSlug("ADMIN"))
	assert.False(t, IsReservedSlug("acme"))
}
