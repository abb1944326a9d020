package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/relay/relaytest"
	"github.com/yeisme/tgvault/pkg/internal/storage"
	"github.com/yeisme/tgvault/pkg/internal/storage/kv"
)

func testConfig(t *testing.T) *configs.AppConfig {
	t.Helper()

	dir := t.TempDir()

	cfg, err := configs.Load(dir)
	require.NoError(t, err)

	cfg.DB.Path = filepath.Join(dir, "meta.db")

	return cfg
}

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)
	cfg.Relay = relaytest.NewServer(t).Config()

	mgr, err := storage.NewManager(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = mgr.Close() })

	require.NotNil(t, mgr.GetStore())
	require.NotNil(t, mgr.GetKVClient())
	require.NotNil(t, mgr.GetMQClient())
	assert.Equal(t, kv.KVTypeMemory, mgr.GetKVClient().Type())
	assert.Equal(t, configs.MQTypeGoChannel, mgr.GetMQClient().Type())
	assert.True(t, mgr.GetRelayClient().Configured())
	require.NoError(t, mgr.GetDBClient().Ping(context.Background()))

	records, err := mgr.GetStore().ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestNewManagerOptionalParts(t *testing.T) {
	cfg := testConfig(t)
	cfg.KV.Enabled = false
	cfg.Events.Enabled = false

	mgr, err := storage.NewManager(context.Background(), cfg)
	require.NoError(t, err)

	assert.Nil(t, mgr.GetKVClient())
	assert.Nil(t, mgr.GetMQClient())
	assert.False(t, mgr.GetRelayClient().Configured())

	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close())
}

func TestNewManagerBadDB(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Type = "oracle"

	_, err := storage.NewManager(context.Background(), cfg)
	require.Error(t, err)
}
