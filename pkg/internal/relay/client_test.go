package relay_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/relay"
	"github.com/yeisme/tgvault/pkg/internal/relay/relaytest"
)

func newClient(t *testing.T, opts ...relay.Option) (*relay.Client, *relaytest.Server) {
	t.Helper()

	srv := relaytest.NewServer(t)

	return relay.New(srv.Config(), opts...), srv
}

func TestUploadDocument(t *testing.T) {
	c, srv := newClient(t)

	res, err := c.Upload(context.Background(), []byte("hello"), "hello.txt")
	require.NoError(t, err)

	assert.Equal(t, "hello.txt", res.Filename)
	assert.NotEmpty(t, res.RemoteFileHandle)
	assert.Equal(t, "101", res.RemoteMessageHandle)
	assert.True(t, strings.HasPrefix(res.DownloadURL, srv.URL+"/file/bot"+relaytest.Token+"/documents/"))

	content, ok := srv.Content(res.RemoteFileHandle)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), content)
	assert.Equal(t, 1, srv.Calls("sendDocument"))
	assert.Equal(t, 1, srv.Calls("getFile"))
}

func TestUploadSticker(t *testing.T) {
	c, srv := newClient(t)
	srv.SetFailures(relaytest.Failures{Sticker: true})

	res, err := c.Upload(context.Background(), []byte("RIFF"), "s.webp")
	require.NoError(t, err)

	assert.Equal(t, "sticker_"+res.RemoteFileHandle+".webp", res.Filename)
}

func TestUploadUnknownFileID(t *testing.T) {
	c, srv := newClient(t)
	srv.SetFailures(relaytest.Failures{
		SendBody: `{"ok":true,"result":{"message_id":7,"document":{"file_id":"abc"}}}`,
	})

	_, err := c.Upload(context.Background(), []byte("x"), "x.bin")

	// file_id abc 不存在，解析地址失败
	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
}

func TestUploadRelayErrorIsNotDecodeError(t *testing.T) {
	c, srv := newClient(t)
	srv.SetFailures(relaytest.Failures{SendStatus: http.StatusBadRequest})

	_, err := c.Upload(context.Background(), []byte("hello"), "hello.txt")
	require.Error(t, err)

	var (
		re *relay.RelayError
		de *relay.DecodeError
	)

	require.ErrorAs(t, err, &re)
	assert.False(t, errors.As(err, &de))
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "Bad Request: injected failure", re.Description)
	assert.Zero(t, srv.Calls("getFile"))
}

func TestUploadDecodeErrors(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"malformed json", `{"ok":tru`, ""},
		{"missing result", `{"ok":true}`, "result"},
		{"missing message id", `{"ok":true,"result":{"document":{"file_id":"a"}}}`, "result.message_id"},
		{"missing file id", `{"ok":true,"result":{"message_id":1,"document":{}}}`, "result.document.file_id"},
		{"string message id", `{"ok":true,"result":{"message_id":"1","document":{"file_id":"a"}}}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newClient(t)
			srv.SetFailures(relaytest.Failures{SendBody: tc.body})

			_, err := c.Upload(context.Background(), []byte("x"), "x")

			var (
				de *relay.DecodeError
				re *relay.RelayError
			)

			require.ErrorAs(t, err, &de)
			assert.False(t, errors.As(err, &re))
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestUploadOKFalse(t *testing.T) {
	c, srv := newClient(t)
	srv.SetFailures(relaytest.Failures{SendBody: `{"ok":false,"description":"Forbidden: bot was kicked"}`})

	_, err := c.Upload(context.Background(), []byte("x"), "x")

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Forbidden: bot was kicked", re.Description)
}

func TestResolveURLNotOK(t *testing.T) {
	c, srv := newClient(t)

	res, err := c.Upload(context.Background(), []byte("hello"), "hello.txt")
	require.NoError(t, err)

	srv.SetFailures(relaytest.Failures{GetFileNotOK: true})

	_, err = c.ResolveURL(context.Background(), res.RemoteFileHandle)

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusOK, re.Status)

	srv.SetFailures(relaytest.Failures{GetFileNoPath: true})

	_, err = c.ResolveURL(context.Background(), res.RemoteFileHandle)
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Description, "file_path")
}

func TestUploadPropagatesResolveFailure(t *testing.T) {
	c, srv := newClient(t)
	srv.SetFailures(relaytest.Failures{GetFileNotOK: true})

	_, err := c.Upload(context.Background(), []byte("hello"), "hello.txt")

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, srv.Calls("getFile"))
}

func TestDeleteMessage(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	res, err := c.Upload(ctx, []byte("hello"), "hello.txt")
	require.NoError(t, err)
	require.True(t, srv.HasMessage(res.RemoteMessageHandle))

	require.NoError(t, c.DeleteMessage(ctx, res.RemoteMessageHandle))
	assert.False(t, srv.HasMessage(res.RemoteMessageHandle))

	var re *relay.RelayError

	err = c.DeleteMessage(ctx, res.RemoteMessageHandle)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)

	srv.SetFailures(relaytest.Failures{DeleteNotOK: true})

	err = c.DeleteMessage(ctx, "1")
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Description, "can't be deleted")
}

func TestGetUpdates(t *testing.T) {
	c, srv := newClient(t)
	srv.SetUpdates(`{"ok":true,"result":[{"update_id":1}]}`)

	raw, err := c.GetUpdates(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"result":[{"update_id":1}]}`, raw)

	srv.SetFailures(relaytest.Failures{Unavailable: true})

	_, err = c.GetUpdates(context.Background())

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadGateway, re.Status)
}

func TestGetUpdatesOversizedResponse(t *testing.T) {
	c, srv := newClient(t, relay.WithResponseLimit(64))

	srv.SetUpdates(`{"ok":true,"result":[]}`)

	raw, err := c.GetUpdates(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"result":[]}`, raw)

	srv.SetUpdates(`{"ok":true,"result":[{"update_id":1,"message":{"text":"` + strings.Repeat("x", 64) + `"}}]}`)

	_, err = c.GetUpdates(context.Background())

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusOK, re.Status)
	assert.Contains(t, re.Description, "exceeds 64 bytes")
}

func TestNotConfigured(t *testing.T) {
	c := relay.New(configs.RelayConfig{APIURL: "http://127.0.0.1:1"})
	ctx := context.Background()

	assert.False(t, c.Configured())

	_, err := c.Upload(ctx, []byte("x"), "x")
	require.ErrorIs(t, err, relay.ErrNotConfigured)

	_, err = c.ResolveURL(ctx, "a")
	require.ErrorIs(t, err, relay.ErrNotConfigured)

	require.ErrorIs(t, c.DeleteMessage(ctx, "1"), relay.ErrNotConfigured)

	_, err = c.GetUpdates(ctx)
	require.ErrorIs(t, err, relay.ErrNotConfigured)
}

func TestNetworkErrorRedactsToken(t *testing.T) {
	srv := relaytest.NewServer(t)
	cfg := srv.Config()
	srv.Close()

	c := relay.New(cfg)

	_, err := c.GetUpdates(context.Background())

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.Status)
	assert.Error(t, re.Err)
	assert.NotContains(t, err.Error(), relaytest.Token)
}

func TestBreakerOpensOn5xx(t *testing.T) {
	c, srv := newClient(t, relay.WithBreaker(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}))
	srv.SetFailures(relaytest.Failures{Unavailable: true})

	ctx := context.Background()

	for range 2 {
		_, err := c.GetUpdates(ctx)
		require.Error(t, err)
	}

	assert.Equal(t, "open", c.BreakerState())

	_, err := c.GetUpdates(ctx)

	var re *relay.RelayError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Rejected())
	assert.Equal(t, 2, srv.Calls("getUpdates"))
}

func TestBreakerIgnores4xx(t *testing.T) {
	c, srv := newClient(t, relay.WithBreaker(configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       1,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}))

	for range 3 {
		require.Error(t, c.DeleteMessage(context.Background(), "404"))
	}

	assert.Equal(t, "closed", c.BreakerState())
	assert.Equal(t, 3, srv.Calls("deleteMessage"))
}
