package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  token: tok_1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Identity.Provider)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.NotEmpty(t, cfg.Cache.Path)
	assert.Equal(t, 25*time.Second, cfg.API.GetTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Cache.GetTTL())
	assert.Equal(t, 9464, cfg.Observability.MetricsPort)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
  timeout: 40
  fallback_enabled: true
  rate_limit_per_minute: 30
identity:
  provider: static
  token: tok_1
  user_id: u_1
cache:
  backend: memory
  ttl: 5m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40*time.Second, cfg.API.GetTimeout())
	assert.True(t, cfg.API.FallbackEnabled)
	assert.Equal(t, 30, cfg.API.RateLimitPerMinute)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.GetTTL())
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("STORE_TEST_TOKEN", "tok_from_env")

	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  token: ${STORE_TEST_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok_from_env", cfg.Identity.Token)
}

func TestLoadFailsOnMissingEnvVar(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  token: ${STORE_TEST_MISSING_VAR}
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_TEST_MISSING_VAR")
}

func TestLoadSkipsEnvVarsInComments(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  token: tok_1
# token: ${STORE_TEST_COMMENTED_VAR}
`)

	_, err := Load(path)
	assert.NoError(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidateRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
identity:
  token: tok_1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

func TestValidateStaticProviderRequiresToken(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  provider: static
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identity.token")
}

func TestValidateTokenEndpointProvider(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  provider: token_endpoint
  token_endpoint:
    url: https://auth.example.com/token
    refresh_token: rt_1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "token_endpoint", cfg.Identity.Provider)
}

func TestValidateTokenEndpointRequiresRefreshToken(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  provider: token_endpoint
  token_endpoint:
    url: https://auth.example.com/token
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh_token")
}

func TestValidateUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  provider: oauth_dance
  token: tok_1
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRedisBackendRequiresAddr(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  token: tok_1
cache:
  backend: redis
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.redis.addr")
}

func TestValidateUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://script.example.com/exec
identity:
  token: tok_1
cache:
  backend: s3
`)

	_, err := Load(path)
	require.Error(t, err)
}
