// Package queue 封装文件生命周期事件的消息信封与发布辅助函数.
//
// 消息信封 JSON 结构：
//
//	{
//	  "header": {
//	    "topic": "tgv.file.stored",
//	    "event_id": "01J9Z3M2Q8X4T6W5B7C9D1E3F5",
//	    "trace_id": "optional-trace-id",
//	    "producer": "tgvault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 事件 ID 同时写入 watermill 消息的 UUID 与 event_id 元数据.
package queue

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
	"go.opentelemetry.io/otel/trace"
)

const (
	PayloadVersionV1 string = "v1"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEventID 生成按时间单调递增的 ULID.
func NewEventID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Option 修改事件头部.
type Option func(*EventHeader)

// NewEventHeader 构造事件头，默认填充 EventID、OccurredAt 与 Version.
func NewEventHeader(topic string, opts ...Option) EventHeader {
	now := time.Now().UTC()
	hdr := EventHeader{
		Topic:      topic,
		EventID:    NewEventID(now),
		OccurredAt: now,
		Version:    PayloadVersionV1,
	}

	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置追踪 ID.
func WithTraceID(id string) Option { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置生产者标识.
func WithProducer(p string) Option { return func(h *EventHeader) { h.Producer = p } }

// WithTraceContext 从 ctx 中的 span 读取追踪 ID.
func WithTraceContext(ctx context.Context) Option {
	return func(h *EventHeader) {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			h.TraceID = sc.TraceID().String()
		}
	}
}

// Encode 序列化信封.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 反序列化信封.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造携带信封的 watermill 消息.
func NewWatermillMessage[T any](topic string, payload T, opts ...Option) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(header.EventID, data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("event_id", header.EventID)
	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set("version", header.Version)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	return msg, nil
}

// ParseWatermillMessage 将 watermill 消息解析为强类型信封.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
