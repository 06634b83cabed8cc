package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-bff/internal/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENV", "test")
	t.Setenv("JWT_SECRET", "jarvis")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGalleryCommand(t *testing.T) {
	out, err := run(t, "gallery", "--category", "Jackets", "--sort", "price_asc")
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "page 1 of 1")
	assert.NotContains(t, out, "Helmets")

	_, err = run(t, "gallery", "--sort", "cheapest")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "token", "pepper", "--ttl", "1h")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(out))
	user, err := auth.NewMiddleware("jarvis").Identify(req)
	require.NoError(t, err)
	assert.Equal(t, "pepper", user)
}
