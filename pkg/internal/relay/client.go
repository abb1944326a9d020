// Package relay 封装 Telegram Bot API，把它当作文件存储使用：
// 上传文档、把 file_id 解析为下载地址、删除消息以及读取待处理的更新.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/tgvault/pkg/configs"
	nlog "github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/metrics"
	"github.com/yeisme/tgvault/pkg/tracing"
)

const (
	opSendDocument  = "sendDocument"
	opGetFile       = "getFile"
	opDeleteMessage = "deleteMessage"
	opGetUpdates    = "getUpdates"

	// maxResponseBytes 单个 API 响应的读取上限.
	maxResponseBytes = 4 << 20
	// maxDescriptionLen 错误描述的最大长度.
	maxDescriptionLen = 512
)

// UploadResult 上传成功后的远端句柄与下载地址.
type UploadResult struct {
	RemoteFileHandle    string
	Filename            string
	DownloadURL         string
	RemoteMessageHandle string
}

// Client Telegram Bot API 客户端，可并发使用.
type Client struct {
	apiURL     string
	token      string
	chatID     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxBody    int64
}

// Option 配置 Client.
type Option func(*Client)

// WithHTTPClient 指定底层 HTTP 客户端.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithResponseLimit 设置单个响应的读取上限，超出时返回 RelayError.
func WithResponseLimit(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithBreaker 按配置启用熔断器；网络错误与 5xx 计为失败.
func WithBreaker(cfg configs.CircuitBreakerConfig) Option {
	return func(c *Client) {
		if !cfg.Enabled {
			return
		}

		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "telegram-relay",
			MaxRequests: cfg.MaxRequestsInHalf,
			Interval:    cfg.Interval(),
			Timeout:     cfg.Timeout(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}

				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				nlog.Logger().Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("relay circuit breaker state changed")
			},
		})
	}
}

// New 创建客户端；token 或 chat id 为空时仍返回可用实例，调用时返回 ErrNotConfigured.
func New(cfg configs.RelayConfig, opts ...Option) *Client {
	c := &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		token:      cfg.Token,
		chatID:     cfg.ChatID,
		httpClient: http.DefaultClient,
		maxBody:    maxResponseBytes,
	}

	if c.apiURL == "" {
		c.apiURL = configs.DefaultRelayAPIURL
	}

	if cfg.Timeout > 0 {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Configured 是否已配置 token 与 chat id.
func (c *Client) Configured() bool {
	return c.token != "" && c.chatID != ""
}

// BreakerState 熔断器状态，未启用时为空字符串.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return ""
	}

	return c.breaker.State().String()
}

func (c *Client) methodURL(method string) string {
	return c.apiURL + "/bot" + c.token + "/" + method
}

// FileURL 拼接文件下载地址 {api}/file/bot{token}/{file_path}.
func (c *Client) FileURL(filePath string) string {
	return c.apiURL + "/file/bot" + c.token + "/" + strings.TrimLeft(filePath, "/")
}

// response 已读取的远端响应.
type response struct {
	status int
	body   []byte
}

func (r *response) success() bool {
	return r.status >= 200 && r.status <= 299
}

// statusError 把非 2xx 响应转换为 RelayError，描述优先取 JSON 中的 description.
func statusError(op string, r *response) *RelayError {
	desc := ""

	var env apiEnvelope
	if err := unmarshal(r.body, &env); err == nil && env.Description != "" {
		desc = env.Description
	} else {
		desc = strings.TrimSpace(string(r.body))
	}

	desc = truncate(desc, maxDescriptionLen)

	if desc == "" {
		desc = http.StatusText(r.status)
	}

	return &RelayError{Op: op, Status: r.status, Description: desc}
}

// truncate 截断到不超过 n 字节，不拆分多字节字符.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

// send 发送请求并读取响应；启用熔断器时经由熔断器执行.
func (c *Client) send(op string, req *http.Request) (*response, error) {
	call := func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &RelayError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
		if err != nil {
			return nil, &RelayError{Op: op, Status: resp.StatusCode, Err: err}
		}

		if int64(len(body)) > c.maxBody {
			return nil, &RelayError{
				Op:          op,
				Status:      resp.StatusCode,
				Description: fmt.Sprintf("response exceeds %d bytes", c.maxBody),
			}
		}

		r := &response{status: resp.StatusCode, body: body}
		if r.status >= http.StatusInternalServerError {
			return nil, statusError(op, r)
		}

		return r, nil
	}

	var (
		v   any
		err error
	)

	if c.breaker != nil {
		v, err = c.breaker.Execute(call)
	} else {
		v, err = call()
	}

	if err != nil {
		var re *RelayError
		if !errors.As(err, &re) {
			err = &RelayError{Op: op, Description: "circuit breaker rejected request", Err: err}
		}

		return nil, err
	}

	return v.(*response), nil
}

// observe 记录一次调用的 span、指标与日志.
func (c *Client) observe(ctx context.Context, op string) (context.Context, func(*error)) {
	ctx, span := tracing.StartSpan(ctx, "relay."+op)
	span.SetAttributes(attribute.String("relay.op", op))

	start := time.Now()

	return ctx, func(errp *error) {
		err := *errp
		res := outcome(err)

		span.SetAttributes(attribute.String("relay.outcome", res))
		tracing.EndSpan(span, err)

		metrics.RelayRequests.WithLabelValues(op, res).Inc()
		metrics.RelayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

		evt := nlog.Logger().Debug()
		if err != nil {
			evt = nlog.Logger().Warn().Err(err)
		}

		evt.Str("op", op).Str("outcome", res).Dur("elapsed", time.Since(start)).Msg("relay call")
	}
}

// Upload 以 multipart 调用 sendDocument，随后解析下载地址.
func (c *Client) Upload(ctx context.Context, content []byte, filename string) (res *UploadResult, err error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, done := c.observe(ctx, opSendDocument)
	defer done(&err)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("chat_id", c.chatID); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	part, err := mw.CreateFormFile("document", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(opSendDocument), body)
	if err != nil {
		return nil, &RelayError{Op: opSendDocument, Err: err}
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.send(opSendDocument, req)
	if err != nil {
		return nil, err
	}

	if !resp.success() {
		return nil, statusError(opSendDocument, resp)
	}

	doc, err := decodeSendDocument(resp.status, resp.body)
	if err != nil {
		return nil, err
	}

	downloadURL, err := c.ResolveURL(ctx, doc.RemoteFileHandle)
	if err != nil {
		return nil, err
	}

	doc.DownloadURL = downloadURL

	return doc, nil
}

// ResolveURL 调用 getFile 把 file_id 解析为下载地址.
func (c *Client) ResolveURL(ctx context.Context, fileHandle string) (u string, err error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, done := c.observe(ctx, opGetFile)
	defer done(&err)

	endpoint := c.methodURL(opGetFile) + "?file_id=" + url.QueryEscape(fileHandle)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &RelayError{Op: opGetFile, Err: err}
	}

	resp, err := c.send(opGetFile, req)
	if err != nil {
		return "", err
	}

	if !resp.success() {
		return "", statusError(opGetFile, resp)
	}

	filePath, err := decodeGetFile(resp.status, resp.body)
	if err != nil {
		return "", err
	}

	return c.FileURL(filePath), nil
}

// DeleteMessage 删除之前发送的消息.
func (c *Client) DeleteMessage(ctx context.Context, messageHandle string) (err error) {
	if !c.Configured() {
		return ErrNotConfigured
	}

	ctx, done := c.observe(ctx, opDeleteMessage)
	defer done(&err)

	form := url.Values{}
	form.Set("chat_id", c.chatID)
	form.Set("message_id", messageHandle)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(opDeleteMessage), strings.NewReader(form.Encode()))
	if err != nil {
		return &RelayError{Op: opDeleteMessage, Err: err}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.send(opDeleteMessage, req)
	if err != nil {
		return err
	}

	if !resp.success() {
		return statusError(opDeleteMessage, resp)
	}

	return decodeOK(opDeleteMessage, resp.status, resp.body)
}

// GetUpdates 原样返回 getUpdates 的响应体.
func (c *Client) GetUpdates(ctx context.Context) (raw string, err error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	ctx, done := c.observe(ctx, opGetUpdates)
	defer done(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL(opGetUpdates), nil)
	if err != nil {
		return "", &RelayError{Op: opGetUpdates, Err: err}
	}

	resp, err := c.send(opGetUpdates, req)
	if err != nil {
		return "", err
	}

	if !resp.success() {
		return "", statusError(opGetUpdates, resp)
	}

	return string(resp.body), nil
}
