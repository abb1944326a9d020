package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/internal/relay/relaytest"
)

func run(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	return out.String()
}

func TestListRegisteredTypes(t *testing.T) {
	dir := t.TempDir()

	assert.Contains(t, run(t, "--config", dir, "db", "ls"), "sqlite")
	assert.Contains(t, run(t, "--config", dir, "kv", "ls"), "memory")
	assert.Contains(t, run(t, "--config", dir, "mq", "ls"), "* gochannel")
	assert.Contains(t, run(t, "--config", dir, "kv", "ls"), "* memory")
}

func TestCacheAndEventCommands(t *testing.T) {
	dir := t.TempDir()

	assert.Contains(t, run(t, "--config", dir, "kv", "keys"), "0 keys (memory)")
	assert.Contains(t, run(t, "--config", dir, "kv", "purge"), "record cache purged")

	out := run(t, "--config", dir, "mq", "topics")
	assert.Contains(t, out, "tgv.file.stored")
	assert.Contains(t, out, "tgv.relay.delete.failed")
}

func TestDBInit(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "meta.db")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("db:\n  path: "+filepath.ToSlash(dbPath)+"\n"), 0o600))

	out := run(t, "--config", dir, "db", "init")
	assert.Contains(t, out, "metadata store ready")

	_, err := os.Stat(dbPath)
	require.NoError(t, err)
}

func TestRelayUpdates(t *testing.T) {
	srv := relaytest.NewServer(t)
	srv.SetUpdates(`{"ok":true,"result":[{"update_id":3}]}`)

	t.Setenv("TGVAULT_RELAY_API_URL", srv.URL)
	t.Setenv("TGVAULT_RELAY_TOKEN", relaytest.Token)
	t.Setenv("TGVAULT_RELAY_CHAT_ID", relaytest.ChatID)

	out := run(t, "--config", t.TempDir(), "relay", "updates")
	assert.Contains(t, out, `"update_id":3`)
}

func TestConfigDebugHidesSecrets(t *testing.T) {
	t.Setenv("TGVAULT_RELAY_TOKEN", relaytest.Token)

	out := run(t, "--config", t.TempDir(), "config", "debug")
	assert.Contains(t, out, `"Server"`)
	assert.NotContains(t, out, relaytest.Token)
}
