package queue

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"
)

const auditCloseTimeout = 10 * time.Second

// Auditor 订阅全部文件事件并写入审计日志.
type Auditor struct {
	logger zerolog.Logger
}

// NewAuditRouter 创建审计路由，每个主题注册一个只消费的 handler.
// 无法解析的消息记录告警后确认，不重投.
func NewAuditRouter(sub message.Subscriber, wlog watermill.LoggerAdapter, logger zerolog.Logger) (*message.Router, error) {
	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: auditCloseTimeout}, wlog)
	if err != nil {
		return nil, err
	}

	r.AddMiddleware(middleware.Recoverer)

	a := &Auditor{logger: logger.With().Str("component", "audit").Logger()}

	r.AddNoPublisherHandler("audit."+TopicFileStored, TopicFileStored, sub, a.FileStored)
	r.AddNoPublisherHandler("audit."+TopicFileDeleted, TopicFileDeleted, sub, a.FileDeleted)
	r.AddNoPublisherHandler("audit."+TopicRelayDeleteFailed, TopicRelayDeleteFailed, sub, a.RelayDeleteFailed)

	return r, nil
}

func (a *Auditor) event(h EventHeader) *zerolog.Event {
	return a.logger.Info().
		Str("topic", h.Topic).
		Str("event_id", h.EventID).
		Str("trace_id", h.TraceID).
		Str("producer", h.Producer).
		Time("occurred_at", h.OccurredAt)
}

func (a *Auditor) malformed(msg *message.Message, err error) error {
	a.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("drop malformed event")

	return nil
}

// FileStored 记录文件写入事件.
func (a *Auditor) FileStored(msg *message.Message) error {
	ev, err := ParseFileStored(msg)
	if err != nil {
		return a.malformed(msg, err)
	}

	a.event(ev.Header).
		Int64("row_id", ev.Payload.File.RowID).
		Str("uuid", ev.Payload.File.UUID).
		Str("partition", ev.Payload.File.Partition).
		Str("filename", ev.Payload.Filename).
		Int64("size", ev.Payload.Size).
		Msg("file stored")

	return nil
}

// FileDeleted 记录文件删除事件.
func (a *Auditor) FileDeleted(msg *message.Message) error {
	ev, err := ParseFileDeleted(msg)
	if err != nil {
		return a.malformed(msg, err)
	}

	a.event(ev.Header).
		Int64("row_id", ev.Payload.File.RowID).
		Str("uuid", ev.Payload.File.UUID).
		Bool("remote_deleted", ev.Payload.RemoteDeleted).
		Msg("file deleted")

	return nil
}

// RelayDeleteFailed 记录中继删除失败事件.
func (a *Auditor) RelayDeleteFailed(msg *message.Message) error {
	ev, err := ParseRelayDeleteFailed(msg)
	if err != nil {
		return a.malformed(msg, err)
	}

	a.event(ev.Header).
		Int64("row_id", ev.Payload.File.RowID).
		Str("message_id", ev.Payload.File.RemoteMessageHandle).
		Int("attempts", ev.Payload.Attempts).
		Bool("queued", ev.Payload.Queued).
		Str("error", ev.Payload.Error).
		Msg("relay delete failed")

	return nil
}
