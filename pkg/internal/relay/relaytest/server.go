// Package relaytest 提供测试用的 Telegram Bot API 假服务，
// 实现 sendDocument、getFile、文件下载、deleteMessage 与 getUpdates，并可按开关注入失败.
package relaytest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/yeisme/tgvault/pkg/configs"
)

const (
	// Token 假服务接受的 bot token.
	Token = "123456:test-token"
	// ChatID 假服务接受的会话 id.
	ChatID = "-1000000000001"
)

// Failures 失败注入开关.
type Failures struct {
	// SendStatus 非零时 sendDocument 以该状态码返回 ok:false.
	SendStatus int
	// SendBody 非空时 sendDocument 以 200 原样返回该响应体.
	SendBody string
	// Sticker sendDocument 返回贴纸而不是文档.
	Sticker bool
	// GetFileNotOK getFile 以 200 返回 {"ok":false}.
	GetFileNotOK bool
	// GetFileNoPath getFile 返回成功但缺少 file_path.
	GetFileNoPath bool
	// DeleteNotOK deleteMessage 返回 ok:false.
	DeleteNotOK bool
	// DownloadStatus 非零时文件下载返回该状态码.
	DownloadStatus int
	// Unavailable 所有 Bot API 方法返回 502.
	Unavailable bool
}

type storedFile struct {
	path    string
	name    string
	content []byte
}

// Server 假 Telegram Bot API 服务.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int64
	files    map[string]*storedFile // file_id -> 文件
	messages map[string]string      // message_id -> file_id
	calls    map[string]int
	updates  string
	fail     Failures
}

// NewServer 启动假服务，测试结束时自动关闭.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nextID:   100,
		files:    make(map[string]*storedFile),
		messages: make(map[string]string),
		calls:    make(map[string]int),
		updates:  `{"ok":true,"result":[]}`,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.route))
	t.Cleanup(s.Close)

	return s
}

// Config 指向假服务的中继配置.
func (s *Server) Config() configs.RelayConfig {
	return configs.RelayConfig{APIURL: s.URL, Token: Token, ChatID: ChatID}
}

// SetFailures 替换失败注入开关.
func (s *Server) SetFailures(f Failures) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail = f
}

// SetUpdates 设置 getUpdates 返回的响应体.
func (s *Server) SetUpdates(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = body
}

// Calls 返回某个方法（或 "download"）被调用的次数.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[method]
}

// HasMessage 消息是否仍然存在.
func (s *Server) HasMessage(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.messages[messageID]

	return ok
}

// Content 返回 file_id 对应的已上传内容.
func (s *Server) Content(fileID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, false
	}

	return f.content, true
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	filePrefix := "/file/bot" + Token + "/"
	methodPrefix := "/bot" + Token + "/"

	switch {
	case strings.HasPrefix(r.URL.Path, filePrefix):
		s.download(w, strings.TrimPrefix(r.URL.Path, filePrefix))
	case strings.HasPrefix(r.URL.Path, methodPrefix):
		s.method(w, r, strings.TrimPrefix(r.URL.Path, methodPrefix))
	default:
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error_code": 401, "description": "Unauthorized"})
	}
}

func (s *Server) method(w http.ResponseWriter, r *http.Request, name string) {
	s.mu.Lock()
	s.calls[name]++
	fail := s.fail
	s.mu.Unlock()

	if fail.Unavailable {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error_code": 502, "description": "Bad Gateway"})

		return
	}

	switch name {
	case "sendDocument":
		s.sendDocument(w, r, fail)
	case "getFile":
		s.getFile(w, r, fail)
	case "deleteMessage":
		s.deleteMessage(w, r, fail)
	case "getUpdates":
		s.mu.Lock()
		body := s.updates
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	default:
		writeError(w, http.StatusNotFound, "Not Found: method not found")
	}
}

func (s *Server) sendDocument(w http.ResponseWriter, r *http.Request, fail Failures) {
	if fail.SendStatus != 0 {
		writeError(w, fail.SendStatus, "Bad Request: injected failure")

		return
	}

	if fail.SendBody != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, fail.SendBody)

		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: "+err.Error())

		return
	}

	if r.FormValue("chat_id") != ChatID {
		writeError(w, http.StatusBadRequest, "Bad Request: chat not found")

		return
	}

	file, hdr, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: there is no document in the request")

		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: "+err.Error())

		return
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	fileID := fmt.Sprintf("BQACAgIAAxkDAAI%06d", id)
	messageID := strconv.FormatInt(id, 10)
	s.files[fileID] = &storedFile{
		path:    fmt.Sprintf("documents/file_%d%s", id, path.Ext(hdr.Filename)),
		name:    hdr.Filename,
		content: content,
	}
	s.messages[messageID] = fileID
	s.mu.Unlock()

	result := map[string]any{
		"message_id": id,
		"date":       time.Now().Unix(),
		"chat":       map[string]any{"id": ChatID, "type": "channel"},
	}

	if fail.Sticker {
		result["sticker"] = map[string]any{"file_id": fileID, "width": 512, "height": 512, "is_animated": false}
	} else {
		result["document"] = map[string]any{
			"file_id":        fileID,
			"file_unique_id": "AgAD" + messageID,
			"file_name":      hdr.Filename,
			"file_size":      len(content),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request, fail Failures) {
	if fail.GetFileNotOK {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false})

		return
	}

	fileID := r.URL.Query().Get("file_id")

	s.mu.Lock()
	f, ok := s.files[fileID]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusBadRequest, "Bad Request: invalid file_id")

		return
	}

	result := map[string]any{"file_id": fileID, "file_size": len(f.content)}
	if !fail.GetFileNoPath {
		result["file_path"] = f.path
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": result})
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request, fail Failures) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request: "+err.Error())

		return
	}

	if fail.DeleteNotOK {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "description": "Bad Request: message can't be deleted"})

		return
	}

	messageID := r.PostForm.Get("message_id")

	s.mu.Lock()
	_, ok := s.messages[messageID]
	delete(s.messages, messageID)
	s.mu.Unlock()

	if r.PostForm.Get("chat_id") != ChatID || !ok {
		writeError(w, http.StatusBadRequest, "Bad Request: message to delete not found")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": true})
}

func (s *Server) download(w http.ResponseWriter, filePath string) {
	s.mu.Lock()
	s.calls["download"]++
	status := s.fail.DownloadStatus

	var found *storedFile

	for _, f := range s.files {
		if f.path == filePath {
			found = f

			break
		}
	}
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)

		return
	}

	if found == nil {
		http.NotFound(w, nil)

		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(found.content)
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, map[string]any{"ok": false, "error_code": status, "description": description})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
