package queue

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

func publish[T any](pub message.Publisher, topic string, payload T, opts ...Option) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishFileStored 发布 tgv.file.stored 事件.
func PublishFileStored(pub message.Publisher, payload FileStoredPayload, opts ...Option) error {
	return publish(pub, TopicFileStored, payload, opts...)
}

// PublishFileDeleted 发布 tgv.file.deleted 事件.
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...Option) error {
	return publish(pub, TopicFileDeleted, payload, opts...)
}

// PublishRelayDeleteFailed 发布 tgv.relay.delete.failed 事件.
func PublishRelayDeleteFailed(pub message.Publisher, payload RelayDeleteFailedPayload, opts ...Option) error {
	return publish(pub, TopicRelayDeleteFailed, payload, opts...)
}

// ParseFileStored 解析 tgv.file.stored 消息.
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// ParseFileDeleted 解析 tgv.file.deleted 消息.
func ParseFileDeleted(msg *message.Message) (Message[FileDeletedPayload], error) {
	return ParseWatermillMessage[FileDeletedPayload](msg)
}

// ParseRelayDeleteFailed 解析 tgv.relay.delete.failed 消息.
func ParseRelayDeleteFailed(msg *message.Message) (Message[RelayDeleteFailedPayload], error) {
	return ParseWatermillMessage[RelayDeleteFailedPayload](msg)
}
