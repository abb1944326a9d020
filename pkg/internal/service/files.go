package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/tgvault/pkg/cache"
	"github.com/yeisme/tgvault/pkg/internal/model"
	"github.com/yeisme/tgvault/pkg/internal/relay"
	"github.com/yeisme/tgvault/pkg/internal/types"
	nlog "github.com/yeisme/tgvault/pkg/log"
)

// Upload 把内容发送到中继并写入元数据记录，分区日期取服务器本地日期.
// 记录写入失败时不回滚中继侧的文档.
func (fs *FileService) Upload(ctx context.Context, filename string, content []byte) (*types.UploadResponse, error) {
	if err := fs.ready(); err != nil {
		return nil, err
	}

	if filename == "" {
		filename = DefaultFilename
	}

	res, err := fs.relay.Upload(ctx, content, filename)
	if err != nil {
		return nil, &RelayFailure{Err: err}
	}

	year, month, day := fs.now().Date()
	id := fs.newUUID()
	customURL := fs.opts.Public.BuildURL(year, int(month), day, id)

	rec := &model.FileRecord{
		Filename:            filename,
		RemoteFileHandle:    res.RemoteFileHandle,
		RemoteMessageHandle: res.RemoteMessageHandle,
		DownloadURL:         res.DownloadURL,
		Year:                year,
		Month:               int(month),
		Day:                 day,
		UUID:                id,
		CustomURL:           &customURL,
	}

	rowID, err := fs.store.Insert(ctx, rec)
	if err != nil {
		nlog.Logger().Error().Err(err).
			Str("message_id", res.RemoteMessageHandle).
			Msg("record insert failed after relay upload, remote document kept")

		return nil, err
	}

	fs.publishStored(ctx, rec, int64(len(content)))

	return &types.UploadResponse{
		Message:   "File uploaded successfully",
		FileID:    res.RemoteFileHandle,
		MessageID: res.RemoteMessageHandle,
		URL:       res.DownloadURL,
		RowID:     rowID,
		UUID:      id,
		CustomURL: customURL,
	}, nil
}

// List 返回全部记录，按 id 升序.
func (fs *FileService) List(ctx context.Context) ([]model.FileRecord, error) {
	if err := fs.ready(); err != nil {
		return nil, err
	}

	return fs.store.ListAll(ctx)
}

// lookup 按分区键查找记录，启用缓存时先查缓存，不存在返回 ErrNotFound.
func (fs *FileService) lookup(ctx context.Context, year, month, day int, id string) (*model.FileRecord, error) {
	load := func() (model.FileRecord, error) {
		rec, err := fs.store.GetByDateAndUUID(ctx, year, month, day, id)
		if err != nil {
			return model.FileRecord{}, err
		}

		if rec == nil {
			return model.FileRecord{}, fmt.Errorf("%s: %w", model.PartitionKey(year, month, day, id), ErrNotFound)
		}

		return *rec, nil
	}

	if fs.cache == nil {
		rec, err := load()
		if err != nil {
			return nil, err
		}

		return &rec, nil
	}

	key := recordKey(year, month, day, id)

	rec, err := cache.GetOrSet(ctx, fs.cache, key, load, fs.opts.RecordTTL)
	if err != nil {
		return nil, err
	}

	// 删除与回填并发时，回填可能晚于失效
	if fs.tombstoned(ctx, key) {
		_ = fs.cache.Delete(ctx, key)

		return nil, fmt.Errorf("%s: %w", model.PartitionKey(year, month, day, id), ErrNotFound)
	}

	return &rec, nil
}

// Fetch 按 year/month/day/uuid 获取文件内容.
func (fs *FileService) Fetch(ctx context.Context, year, month, day int, id string) ([]byte, error) {
	if err := fs.ready(); err != nil {
		return nil, err
	}

	if fs.cache == nil {
		return fs.store.FetchContent(ctx, year, month, day, id)
	}

	rec, err := fs.lookup(ctx, year, month, day, id)
	if err != nil {
		return nil, err
	}

	return fs.store.Download(ctx, rec)
}

// Delete 删除记录并尽力删除中继消息.
// 中继删除失败只记录日志，启用补偿时写入待重试队列；记录不存在返回 ErrNotFound.
// 中继未配置时直接返回 relay.ErrNotConfigured，不改动记录.
func (fs *FileService) Delete(ctx context.Context, id int64) error {
	if err := fs.ready(); err != nil {
		return err
	}

	if !fs.relay.Configured() {
		return relay.ErrNotConfigured
	}

	rec, err := fs.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if rec == nil {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}

	remoteDeleted := true

	if rec.RemoteMessageHandle != "" {
		if err := fs.relay.DeleteMessage(ctx, rec.RemoteMessageHandle); err != nil {
			remoteDeleted = false
			fs.remoteDeleteFailed(ctx, rec, err)
		}
	}

	n, err := fs.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}

	fs.invalidate(ctx, rec)
	fs.publishDeleted(ctx, rec, remoteDeleted)

	return nil
}

// remoteDeleteFailed 记录中继删除失败，按配置写入待重试队列并发布事件.
func (fs *FileService) remoteDeleteFailed(ctx context.Context, rec *model.FileRecord, cause error) {
	l := nlog.Logger().With().
		Int64("id", rec.ID).
		Str("message_id", rec.RemoteMessageHandle).
		Logger()

	l.Warn().Err(cause).Msg("relay delete failed, deleting record anyway")

	queued := false

	if fs.opts.Reconcile.Enabled {
		if err := fs.store.AddPendingDelete(ctx, rec.RemoteMessageHandle, rec.ID, cause); err != nil {
			l.Error().Err(err).Msg("queue pending delete failed")
		} else {
			queued = true
		}
	}

	fs.publishDeleteFailed(ctx, rec, cause, 1, queued)
}

// invalidate 删除记录缓存并写入墓碑，墓碑存活时间与记录缓存相同.
func (fs *FileService) invalidate(ctx context.Context, rec *model.FileRecord) {
	if fs.cache == nil {
		return
	}

	key := recordKey(rec.Year, rec.Month, rec.Day, rec.UUID)

	if err := cache.Set(ctx, fs.cache, tombstoneKey(key), true, fs.opts.RecordTTL); err != nil {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("cache tombstone failed")
	}

	if err := fs.cache.Delete(ctx, key); err != nil {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}

func (fs *FileService) tombstoned(ctx context.Context, key string) bool {
	ok, err := fs.cache.Exists(ctx, tombstoneKey(key))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("cache tombstone check failed")

		return false
	}

	return ok
}

// Updates 透传中继 getUpdates 的原始响应.
func (fs *FileService) Updates(ctx context.Context) (string, error) {
	if fs.relay == nil {
		return "", errors.New("storage manager not initialized")
	}

	return fs.relay.GetUpdates(ctx)
}
