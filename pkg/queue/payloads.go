package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理时定位来源.
	Topic string `json:"topic"`
	// EventID 事件唯一 ID（ULID，按时间有序）.
	EventID string `json:"event_id"`
	// TraceID 分布式追踪 ID，来自请求上下文中的 span.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 标识一条文件记录及其在中继侧的句柄.
type FileRef struct {
	RowID               int64  `json:"row_id"`
	UUID                string `json:"uuid"`
	Partition           string `json:"partition"`
	RemoteMessageHandle string `json:"message_id"`
}

// FileStoredPayload 对应 tgv.file.stored.
type FileStoredPayload struct {
	File             FileRef `json:"file"`
	Filename         string  `json:"filename"`
	RemoteFileHandle string  `json:"file_id"`
	CustomURL        string  `json:"custom_url,omitempty"`
	Size             int64   `json:"size"`
}

// FileDeletedPayload 对应 tgv.file.deleted.
type FileDeletedPayload struct {
	File          FileRef `json:"file"`
	RemoteDeleted bool    `json:"remote_deleted"`
}

// RelayDeleteFailedPayload 对应 tgv.relay.delete.failed.
type RelayDeleteFailedPayload struct {
	File     FileRef `json:"file"`
	Error    string  `json:"error"`
	Attempts int     `json:"attempts"`
	// Queued 是否已写入待重试队列.
	Queued bool `json:"queued"`
}
