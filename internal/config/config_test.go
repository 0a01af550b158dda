package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAMPAIGNDASH_SECURITY_JWTACCESSSECRET", "access")
	t.Setenv("CAMPAIGNDASH_SECURITY_JWTVERIFYSECRET", "verify")
	t.Setenv("CAMPAIGNDASH_POSTGRES_DSN", "postgres://localhost/dash")
	t.Setenv("CAMPAIGNDASH_SECURITY_ADMINDOMAINS", "example.com,corp.example")
	t.Setenv("CAMPAIGNDASH_FACEBOOK_CACHETTL", "2m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "access", cfg.Security.JWTAccessSecret)
	assert.Equal(t, []string{"example.com", "corp.example"}, cfg.Security.AdminDomains)
	assert.Equal(t, 2*time.Minute, cfg.Facebook.CacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.Security.JWTAccessTTL)
	assert.Equal(t, 8000, cfg.HTTP.Port)
	assert.False(t, cfg.Production())
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CAMPAIGNDASH_POSTGRES_DSN", "postgres://localhost/dash")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadClientDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DASHCTL_BASEURL", "https://api.example.com")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.NotEmpty(t, cfg.TokenFile)
}
