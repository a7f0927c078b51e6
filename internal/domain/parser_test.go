package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveApex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "apex itself", input: "example.com", expected: "example.com"},
		{name: "subdomain", input: "www.example.com", expected: "example.com"},
		{name: "multi-label public suffix", input: "a.b.example.co.uk", expected: "example.co.uk"},
		{name: "challenge label", input: "_acme-challenge.example.org", expected: "example.org"},
		{name: "trailing dot and case", input: "WWW.Example.COM.", expected: "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apex, err := EffectiveApex(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, apex)
		})
	}
}

func TestEffectiveApex_Errors(t *testing.T) {
	for _, input := range []string{"", "com", "co.uk", "192.0.2.1"} {
		t.Run(input, func(t *testing.T) {
			_, err := EffectiveApex(input)
			assert.ErrorIs(t, err, ErrNoApex)
		})
	}
}

func TestChallengeFQDN(t *testing.T) {
	assert.Equal(t, "_acme-challenge.example.com", ChallengeFQDN("example.com"))
	assert.Equal(t, "_acme-challenge.www.example.com", ChallengeFQDN("www.example.com."))
}

func TestStripApex(t *testing.T) {
	tests := []struct {
		fqdn     string
		expected string
	}{
		{fqdn: "_acme-challenge.example.com", expected: "_acme-challenge"},
		{fqdn: "_acme-challenge.www.example.com", expected: "_acme-challenge.www"},
		{fqdn: "_acme-challenge.shop.example.co.uk", expected: "_acme-challenge.shop"},
		// 根域名在子域名中重复出现时只去掉末尾
		{fqdn: "_acme-challenge.example.com.example.com", expected: "_acme-challenge.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.fqdn, func(t *testing.T) {
			name, err := StripApex(tt.fqdn)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestStripApex_RoundTrip(t *testing.T) {
	for _, d := range []string{"example.com", "example.net", "example.co.uk", "sub.example.io", "a.b.c.example.org"} {
		t.Run(d, func(t *testing.T) {
			fqdn := ChallengeFQDN(d)

			name, err := StripApex(fqdn)
			require.NoError(t, err)

			apex, err := EffectiveApex(fqdn)
			require.NoError(t, err)
			assert.Equal(t, fqdn, JoinApex(name, apex))
		})
	}
}

func TestStripApex_Undefined(t *testing.T) {
	for _, fqdn := range []string{"example.com", "com", ""} {
		t.Run(fqdn, func(t *testing.T) {
			name, err := StripApex(fqdn)
			assert.ErrorIs(t, err, ErrNoApex)
			assert.Empty(t, name)
		})
	}
}
