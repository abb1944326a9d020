package relay

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/sony/gobreaker"
)

// ErrNotConfigured bot token 或 chat id 未配置.
var ErrNotConfigured = errors.New("relay: bot token or chat id is not configured")

// RelayError 远端返回非 2xx、ok:false，或网络请求失败（Status 为 0）.
type RelayError struct {
	Op          string
	Status      int
	Description string
	Err         error
}

func (e *RelayError) Error() string {
	var msg string

	switch {
	case e.Err != nil && e.Description != "":
		msg = fmt.Sprintf("relay %s: %s: %v", e.Op, e.Description, e.Err)
	case e.Err != nil:
		msg = fmt.Sprintf("relay %s: %v", e.Op, e.Err)
	case e.Status != 0:
		msg = fmt.Sprintf("relay %s: status %d: %s", e.Op, e.Status, e.Description)
	default:
		msg = fmt.Sprintf("relay %s: %s", e.Op, e.Description)
	}

	return redact(msg)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// Rejected 请求是否被熔断器拒绝，未发往远端.
func (e *RelayError) Rejected() bool {
	return errors.Is(e.Err, gobreaker.ErrOpenState) || errors.Is(e.Err, gobreaker.ErrTooManyRequests)
}

// DecodeError 远端响应不是合法 JSON 或缺少必需字段.
type DecodeError struct {
	Op    string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("relay %s: decode response: missing %s", e.Op, e.Field)
	}

	return fmt.Sprintf("relay %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var tokenPattern = regexp.MustCompile(`/bot[^/]+/`)

// redact 去掉错误信息中请求地址里的 bot token.
func redact(s string) string {
	return tokenPattern.ReplaceAllString(s, "/bot<redacted>/")
}

// outcome 指标中的调用结果分类.
func outcome(err error) string {
	var (
		re *RelayError
		de *DecodeError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.As(err, &de):
		return "decode_error"
	case errors.As(err, &re) && re.Rejected():
		return "rejected"
	case errors.As(err, &re) && re.Status == 0:
		return "network_error"
	default:
		return "relay_error"
	}
}
