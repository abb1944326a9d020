package store

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound 没有匹配的记录.
var ErrNotFound = errors.New("record not found")

// StorageError 底层数据库读写失败.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// FetchError 获取文件内容失败：请求出错或返回非 2xx 状态.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return RedactURL(fmt.Sprintf("fetch %s: %v", e.URL, e.Err))
	}

	return RedactURL(fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status))
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

var botTokenSegment = regexp.MustCompile(`/bot[^/]+/`)

// RedactURL 隐藏字符串中下载地址里的 bot token.
func RedactURL(u string) string {
	return botTokenSegment.ReplaceAllString(u, "/bot<redacted>/")
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	return &StorageError{Op: op, Err: err}
}
