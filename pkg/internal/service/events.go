package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/yeisme/tgvault/pkg/internal/model"
	"github.com/yeisme/tgvault/pkg/internal/relay"
	nlog "github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/queue"
)

// eventsOn 判断事件总开关与主题开关.
func (fs *FileService) eventsOn(topic bool) bool {
	return fs.mq != nil && fs.opts.Events.Enabled && topic
}

func (fs *FileService) eventOpts(ctx context.Context) []queue.Option {
	return []queue.Option{queue.WithProducer(fs.opts.Events.Producer), queue.WithTraceContext(ctx)}
}

func fileRef(rec *model.FileRecord) queue.FileRef {
	return queue.FileRef{
		RowID:               rec.ID,
		UUID:                rec.UUID,
		Partition:           rec.PartitionKey(),
		RemoteMessageHandle: rec.RemoteMessageHandle,
	}
}

// publishStored 发布 tgv.file.stored，失败只记录日志.
func (fs *FileService) publishStored(ctx context.Context, rec *model.FileRecord, size int64) {
	if !fs.eventsOn(fs.opts.Events.File.Stored) {
		return
	}

	customURL := ""
	if rec.CustomURL != nil {
		customURL = *rec.CustomURL
	}

	err := queue.PublishFileStored(fs.mq.Publisher(), queue.FileStoredPayload{
		File:             fileRef(rec),
		Filename:         rec.Filename,
		RemoteFileHandle: rec.RemoteFileHandle,
		CustomURL:        customURL,
		Size:             size,
	}, fs.eventOpts(ctx)...)
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", queue.TopicFileStored).Msg("publish event failed")
	}
}

// publishDeleted 发布 tgv.file.deleted.
func (fs *FileService) publishDeleted(ctx context.Context, rec *model.FileRecord, remoteDeleted bool) {
	if !fs.eventsOn(fs.opts.Events.File.Deleted) {
		return
	}

	err := queue.PublishFileDeleted(fs.mq.Publisher(), queue.FileDeletedPayload{
		File:          fileRef(rec),
		RemoteDeleted: remoteDeleted,
	}, fs.eventOpts(ctx)...)
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", queue.TopicFileDeleted).Msg("publish event failed")
	}
}

// publishDeleteFailed 发布 tgv.relay.delete.failed.
func (fs *FileService) publishDeleteFailed(ctx context.Context, rec *model.FileRecord, cause error, attempts int, queued bool) {
	if !fs.eventsOn(fs.opts.Events.File.RemoteDeleteFailed) {
		return
	}

	err := queue.PublishRelayDeleteFailed(fs.mq.Publisher(), queue.RelayDeleteFailedPayload{
		File:     fileRef(rec),
		Error:    cause.Error(),
		Attempts: attempts,
		Queued:   queued,
	}, fs.eventOpts(ctx)...)
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("topic", queue.TopicRelayDeleteFailed).Msg("publish event failed")
	}
}

// relayGone 中继返回消息已不存在，视为删除成功.
func relayGone(err error) bool {
	var re *relay.RelayError
	if !errors.As(err, &re) {
		return false
	}

	return re.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(re.Description), "not found")
}
