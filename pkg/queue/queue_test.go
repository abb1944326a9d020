package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/tgvault/pkg/queue"
)

func TestEventIDsAreOrdered(t *testing.T) {
	now := time.Now()

	prev := queue.NewEventID(now)
	for range 100 {
		next := queue.NewEventID(now)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestNewWatermillMessage(t *testing.T) {
	payload := queue.FileDeletedPayload{
		File:          queue.FileRef{RowID: 7, UUID: "u-1", Partition: "2025/1/2/u-1", RemoteMessageHandle: "42"},
		RemoteDeleted: true,
	}

	msg, err := queue.NewWatermillMessage(queue.TopicFileDeleted, payload, queue.WithProducer("tgvault"))
	require.NoError(t, err)

	assert.Equal(t, queue.TopicFileDeleted, msg.Metadata.Get("topic"))
	assert.Equal(t, msg.UUID, msg.Metadata.Get("event_id"))
	assert.Equal(t, "tgvault", msg.Metadata.Get("producer"))
	assert.Empty(t, msg.Metadata.Get("trace_id"))

	env, err := queue.ParseFileDeleted(msg)
	require.NoError(t, err)
	assert.Equal(t, payload, env.Payload)
	assert.Equal(t, msg.UUID, env.Header.EventID)
	assert.Equal(t, queue.PayloadVersionV1, env.Header.Version)
}

func TestWithTraceContext(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: trace.SpanID{0x01}})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	hdr := queue.NewEventHeader(queue.TopicFileStored, queue.WithTraceContext(ctx))
	assert.Equal(t, traceID.String(), hdr.TraceID)

	hdr = queue.NewEventHeader(queue.TopicFileStored, queue.WithTraceContext(context.Background()))
	assert.Empty(t, hdr.TraceID)
}

func TestPublishFileStored(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := ps.Subscribe(ctx, queue.TopicFileStored)
	require.NoError(t, err)

	payload := queue.FileStoredPayload{
		File:             queue.FileRef{RowID: 1, UUID: "u-2", Partition: "2025/3/4/u-2", RemoteMessageHandle: "101"},
		Filename:         "hello.txt",
		RemoteFileHandle: "BQAC",
		Size:             5,
	}
	require.NoError(t, queue.PublishFileStored(ps, payload))

	select {
	case msg := <-ch:
		env, err := queue.ParseFileStored(msg)
		require.NoError(t, err)
		assert.Equal(t, payload, env.Payload)
		assert.Equal(t, queue.TopicFileStored, env.Header.Topic)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}

func TestTopics(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"tgv.file.stored", "tgv.file.deleted", "tgv.relay.delete.failed"},
		queue.Topics())
}
