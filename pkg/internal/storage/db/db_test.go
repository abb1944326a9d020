package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/storage/db"
)

func TestRegisteredTypes(t *testing.T) {
	types := db.GetRegisteredDBTypes()

	assert.Contains(t, types, configs.SQLite)
	assert.Contains(t, types, configs.MySQL)
	assert.Contains(t, types, configs.PostgreSQL)
}

func TestNewSQLite(t *testing.T) {
	cfg := configs.DBConfig{
		Type:         configs.SQLite,
		Path:         filepath.Join(t.TempDir(), "meta.db"),
		MaxIdleConns: 1,
	}

	client, err := db.New(context.Background(), cfg, false)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, configs.SQLite, client.Type())
	require.NoError(t, client.Ping(context.Background()))

	sqlDB, err := client.GetDB().DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestNewUnsupported(t *testing.T) {
	_, err := db.New(context.Background(), configs.DBConfig{Type: "oracle"}, false)
	require.Error(t, err)
}
