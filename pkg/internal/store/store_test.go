package store_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/model"
	"github.com/yeisme/tgvault/pkg/internal/storage/db"
	"github.com/yeisme/tgvault/pkg/internal/store"
)

func newStore(t *testing.T, opts ...store.Option) (*store.Store, *db.Client) {
	t.Helper()

	client, err := db.New(context.Background(), configs.DBConfig{
		Type:         configs.SQLite,
		Path:         filepath.Join(t.TempDir(), "files.db"),
		MaxIdleConns: 1,
	}, false)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	s := store.New(client, opts...)
	require.NoError(t, s.Init(context.Background()))

	return s, client
}

func sampleRecord(id, url string) *model.FileRecord {
	custom := "http://localhost:80/find/2025/3/4/" + id

	return &model.FileRecord{
		Filename:            "hello.txt",
		RemoteFileHandle:    "BQACAgIAAxk",
		RemoteMessageHandle: "42",
		DownloadURL:         url,
		Year:                2025,
		Month:               3,
		Day:                 4,
		UUID:                id,
		CustomURL:           &custom,
	}
}

func TestInitIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	id, err := s.Insert(ctx, sampleRecord("a", "http://x/a"))
	require.NoError(t, err)

	require.NoError(t, s.Init(ctx))

	rows, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
}

func TestInitWritesSchemaVersion(t *testing.T) {
	_, client := newStore(t)

	var meta model.SchemaMeta
	require.NoError(t, client.GetDB().Take(&meta).Error)
	assert.Equal(t, model.SchemaVersion, meta.Version)
}

func TestInsertThenGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	rec := sampleRecord("u-1", "http://x/u-1")
	id, err := s.Insert(ctx, rec)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, id, got.ID)
	assert.False(t, got.UploadTime.IsZero())
	assert.Equal(t, rec.Filename, got.Filename)
	assert.Equal(t, rec.RemoteFileHandle, got.RemoteFileHandle)
	assert.Equal(t, rec.RemoteMessageHandle, got.RemoteMessageHandle)
	assert.Equal(t, rec.DownloadURL, got.DownloadURL)
	assert.Equal(t, []int{2025, 3, 4}, []int{got.Year, got.Month, got.Day})
	assert.Equal(t, rec.UUID, got.UUID)
	require.NotNil(t, got.CustomURL)
	assert.Equal(t, *rec.CustomURL, *got.CustomURL)
}

func TestInsertIDsIncrease(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	first, err := s.Insert(ctx, sampleRecord("a", "http://x/a"))
	require.NoError(t, err)

	second, err := s.Insert(ctx, sampleRecord("b", "http://x/b"))
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	got, err := s.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetByDateAndUUID(ctx, 2025, 3, 4, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetByDateAndUUIDFirstMatch(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	first, err := s.Insert(ctx, sampleRecord("dup", "http://x/1"))
	require.NoError(t, err)

	_, err = s.Insert(ctx, sampleRecord("dup", "http://x/2"))
	require.NoError(t, err)

	got, err := s.GetByDateAndUUID(ctx, 2025, 3, 4, "dup")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, got.ID)

	got, err = s.GetByDateAndUUID(ctx, 2025, 3, 5, "dup")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	n, err := s.DeleteByID(ctx, 12345)
	require.NoError(t, err)
	assert.Zero(t, n)

	id, err := s.Insert(ctx, sampleRecord("d", "http://x/d"))
	require.NoError(t, err)

	n, err = s.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAllEmpty(t *testing.T) {
	s, _ := newStore(t)

	rows, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestStorageErrorAfterClose(t *testing.T) {
	s, client := newStore(t)
	require.NoError(t, client.Close())

	_, err := s.ListAll(context.Background())

	var se *store.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list", se.Op)
}

func TestFetchContent(t *testing.T) {
	ctx := context.Background()

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		if r.URL.Path == "/file/botsecret/documents/missing.txt" {
			http.NotFound(w, r)

			return
		}

		_, _ = w.Write([]byte("hello"))
	}))
	t.Cleanup(srv.Close)

	s, _ := newStore(t, store.WithHTTPClient(srv.Client()))

	_, err := s.Insert(ctx, sampleRecord("ok", srv.URL+"/file/botsecret/documents/hello.txt"))
	require.NoError(t, err)

	_, err = s.Insert(ctx, sampleRecord("gone", srv.URL+"/file/botsecret/documents/missing.txt"))
	require.NoError(t, err)

	body, err := s.FetchContent(ctx, 2025, 3, 4, "ok")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)

	_, err = s.FetchContent(ctx, 2025, 3, 4, "absent")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FetchContent(ctx, 2025, 3, 4, "gone")

	var fe *store.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.False(t, errors.Is(err, store.ErrNotFound))
	assert.NotContains(t, err.Error(), "secret")
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchContentNetworkError(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, _ := newStore(t)

	_, err := s.Insert(ctx, sampleRecord("x", url+"/file/bottoken/a"))
	require.NoError(t, err)

	_, err = s.FetchContent(ctx, 2025, 3, 4, "x")

	var fe *store.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.Status)
	assert.Error(t, fe.Err)
}

func TestPendingDeletes(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.AddPendingDelete(ctx, "100", 1, errors.New("boom")))
	require.NoError(t, s.AddPendingDelete(ctx, "101", 2, nil))

	items, err := s.ListPendingDeletes(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "100", items[0].RemoteMessageHandle)
	assert.Equal(t, 1, items[0].Attempts)
	assert.Equal(t, "boom", items[0].LastError)

	require.NoError(t, s.MarkPendingDeleteFailed(ctx, items[0].ID, errors.New("again")))
	require.NoError(t, s.MarkPendingDeleteFailed(ctx, items[0].ID, errors.New("again")))

	items, err = s.ListPendingDeletes(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "101", items[0].RemoteMessageHandle)

	require.NoError(t, s.RemovePendingDelete(ctx, items[0].ID))

	items, err = s.ListPendingDeletes(ctx, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t,
		"https://api.telegram.org/file/bot<redacted>/documents/a.txt",
		store.RedactURL("https://api.telegram.org/file/bot123:ABC/documents/a.txt"))
}
