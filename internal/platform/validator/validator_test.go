package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDomain(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"example.com", true},
		{"sub.example.co.uk", true},
		{"localhost", true},
		{"", false},
		{"-bad.com", false},
		{"exa mple.com", false},
		{"192.168.1.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDomain(tt.input))
		})
	}
}

func TestNormalizeTarget(t *testing.T) {
	assert.Equal(t, "example.com", NormalizeTarget("  HTTPS://Example.COM/ "))
	assert.Equal(t, "example.com", NormalizeTarget("example.com."))
	assert.Equal(t, "www.example.com", NormalizeTarget("www.example.com"))
}

func TestRegistrableDomain(t *testing.T) {
	got, err := RegistrableDomain("a.b.example.co.uk")
	require.NoError(t, err)
	assert.Equal(t, "example.co.uk", got)

	_, err = RegistrableDomain("co.uk")
	assert.Error(t, err)
}

func TestInScope(t *testing.T) {
	assert.True(t, InScope("example.com", "example.com"))
	assert.True(t, InScope("API.Example.com", "example.com"))
	assert.True(t, InScope("api.example.com:8443", "example.com"))
	assert.False(t, InScope("badexample.com", "example.com"))
	assert.False(t, InScope("", "example.com"))
}

func TestIsURLAndHost(t *testing.T) {
	assert.True(t, IsURL("https://a.example.com/x"))
	assert.False(t, IsURL("ftp://a.example.com"))
	assert.False(t, IsURL("a.example.com"))
	assert.Equal(t, "a.example.com", URLHost("https://a.example.com:8443/x"))
	assert.Equal(t, "", URLHost("::bad"))
}
