package queue_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/queue"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestAuditRouterLogsEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	var out syncBuffer

	r, err := queue.NewAuditRouter(pubSub, watermill.NopLogger{}, zerolog.New(&out))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
		_ = pubSub.Close()
	})

	go func() { _ = r.Run(ctx) }()

	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("audit router did not start")
	}

	file := queue.FileRef{RowID: 3, UUID: "u-3", Partition: "2025/3/4/u-3", RemoteMessageHandle: "103"}

	require.NoError(t, queue.PublishFileStored(pubSub, queue.FileStoredPayload{File: file, Filename: "a.txt", Size: 1}))
	require.NoError(t, queue.PublishFileDeleted(pubSub, queue.FileDeletedPayload{File: file, RemoteDeleted: false}))
	require.NoError(t, queue.PublishRelayDeleteFailed(pubSub, queue.RelayDeleteFailedPayload{File: file, Error: "boom", Attempts: 1}))
	require.NoError(t, pubSub.Publish(queue.TopicFileStored, message.NewMessage(watermill.NewUUID(), []byte("{broken"))))

	assert.Eventually(t, func() bool {
		s := out.String()

		return strings.Contains(s, `"file stored"`) &&
			strings.Contains(s, `"file deleted"`) &&
			strings.Contains(s, `"relay delete failed"`) &&
			strings.Contains(s, "drop malformed event")
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, out.String(), `"component":"audit"`)
}
