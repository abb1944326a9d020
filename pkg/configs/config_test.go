package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/configs"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := configs.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, configs.DefaultPort, cfg.Server.Port)
	assert.Equal(t, configs.SQLite, cfg.DB.Type)
	assert.Equal(t, "file:db.db", cfg.DB.GetDSN())
	assert.Equal(t, configs.DefaultRelayAPIURL, cfg.Relay.APIURL)
	assert.Equal(t, 80, cfg.Public.Port)
	assert.Equal(t, configs.MQTypeGoChannel, cfg.MQ.Type)
	assert.False(t, cfg.Relay.Configured())
	assert.False(t, cfg.Reconcile.Enabled)
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN", "test-token")
	t.Setenv("TG_CHAT_ID", "-1001")
	t.Setenv("PROTOCOL", "https")
	t.Setenv("CUSTOM_DOMAIN", "files.example.com")

	cfg, err := configs.Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Relay.Configured())
	assert.Equal(t, "test-token", cfg.Relay.Token)
	assert.Equal(t, "-1001", cfg.Relay.ChatID)
	assert.Equal(t, 443, cfg.Public.Port)
	assert.Equal(t, "https://files.example.com:443/find/2025/3/4/abc", cfg.Public.BuildURL(2025, 3, 4, "abc"))
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	t.Setenv("TG_CHAT_ID", "legacy")
	t.Setenv("TGVAULT_RELAY_CHAT_ID", "prefixed")
	t.Setenv("CUSTOM_PORT", "8443")

	cfg, err := configs.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.Relay.ChatID)
	assert.Equal(t, 8443, cfg.Public.Port)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  port: 9001
db:
  path: data/meta.db
public:
  domain: vault.local
  path_prefix: files/
reconcile:
  enabled: true
`)

	cfg, err := configs.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "file:data/meta.db", cfg.DB.GetDSN())
	assert.Equal(t, "/files", cfg.Public.PathPrefix)
	assert.Equal(t, "http://vault.local:80/files/2024/12/31/u", cfg.Public.BuildURL(2024, 12, 31, "u"))
	assert.True(t, cfg.Reconcile.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "TGVAULT_DOTENV_PROBE_TOKEN=x\nTGVAULT_RELAY_TOKEN=from-dotenv\n")

	t.Cleanup(func() {
		_ = os.Unsetenv("TGVAULT_DOTENV_PROBE_TOKEN")
		_ = os.Unsetenv("TGVAULT_RELAY_TOKEN")
	})

	cfg, err := configs.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Relay.Token)
}

func TestLoadRejectsInvalidProtocol(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "public:\n  protocol: ftp\n")

	_, err := configs.Load(dir)
	require.Error(t, err)
}

func TestDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  configs.DBConfig
		want string
	}{
		{"sqlite memory", configs.DBConfig{Type: configs.SQLite, Path: ":memory:"}, ":memory:"},
		{"sqlite by name", configs.DBConfig{Type: configs.SQLite, Database: "meta"}, "file:meta.db"},
		{"mysql", configs.DBConfig{Type: configs.MySQL, User: "u", Password: "p", Host: "h", Port: 3306, Database: "d"},
			"u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local"},
		{"unknown", configs.DBConfig{Type: "oracle"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.GetDSN())
		})
	}
}
