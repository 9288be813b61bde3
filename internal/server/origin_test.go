package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"http://localhost:3000", "http://localhost:3000", true},
		{"HTTPS://Example.COM", "https://example.com", true},
		{"https://example.com/path?q=1", "https://example.com", true},
		{"localhost:3000", "", false},
		{"not a url", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeOrigin(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestOriginPolicy verifies allow list matching, wildcards and rejection of
// requests without an Origin header.
func TestOriginPolicy(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	t.Run("allow list", func(t *testing.T) {
		p := newOriginPolicy([]string{" https://app.example ", "bogus", ""}, zerolog.Nop())

		assert.True(t, p.checkOrigin(request("https://app.example")))
		assert.True(t, p.checkOrigin(request("HTTPS://APP.EXAMPLE")))
		assert.False(t, p.checkOrigin(request("https://other.example")))
		assert.False(t, p.checkOrigin(request("bogus")))
		assert.False(t, p.checkOrigin(request("")))
	})

	t.Run("wildcard", func(t *testing.T) {
		p := newOriginPolicy([]string{"*"}, zerolog.Nop())

		assert.True(t, p.checkOrigin(request("https://anything.example")))
		assert.False(t, p.checkOrigin(request("")))
	})

	t.Run("empty list rejects everything", func(t *testing.T) {
		p := newOriginPolicy(nil, zerolog.Nop())

		assert.False(t, p.checkOrigin(request("http://localhost:3000")))
	})
}
