package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BINGO_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bingo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  trusted_proxies: ["10.0.0.0/8"]
db:
  driver: postgres
  url: postgres://bingo@localhost/bingo
rate_limit:
  requests: 5
  window: 30s
log:
  level: debug
`), 0o644))

	t.Setenv("BINGO_CONFIG", path)
	t.Setenv("BINGO_LOG_FORMAT", "json")
	t.Setenv("BINGO_RATE_LIMIT_REQUESTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://bingo@localhost/bingo", cfg.DB.URL)
	assert.Equal(t, 7, cfg.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "web/dist", cfg.Server.StaticDir, "unset keys keep their defaults")
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
}

func TestTrustedProxiesFromEnv(t *testing.T) {
	t.Setenv("BINGO_CONFIG", "")
	t.Setenv("BINGO_TRUSTED_PROXIES", "127.0.0.1, 172.16.0.0/12,")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1", "172.16.0.0/12"}, cfg.Server.TrustedProxies)

	t.Setenv("BINGO_TRUSTED_PROXIES", "proxy.internal")
	_, err = Load("")
	require.ErrorContains(t, err, "server.trusted_proxies")
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("BINGO_CONFIG", "")
	t.Setenv("BINGO_BCRYPT_COST", "ten")
	_, err := Load("")
	require.ErrorContains(t, err, "BINGO_BCRYPT_COST")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DB.Driver = "postgres"
	require.ErrorContains(t, cfg.Validate(), "db.url")

	cfg = Default()
	cfg.DB.Driver = "mysql"
	require.ErrorContains(t, cfg.Validate(), "unknown db.driver")

	cfg = Default()
	cfg.Log.Format = "xml"
	require.ErrorContains(t, cfg.Validate(), "log.format")

	cfg = Default()
	cfg.RateLimit.Requests = 0
	cfg.RateLimit.Window = 0
	require.NoError(t, cfg.Validate(), "limiting disabled needs no window")
}
