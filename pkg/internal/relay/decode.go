package relay

import (
	"strconv"

	"github.com/bytedance/sonic"
)

// apiEnvelope Bot API 响应的公共字段.
type apiEnvelope struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type tgFile struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

type sendDocumentResponse struct {
	apiEnvelope

	Result *struct {
		MessageID *int64  `json:"message_id"`
		Document  *tgFile `json:"document"`
		Sticker   *tgFile `json:"sticker"`
	} `json:"result"`
}

type getFileResponse struct {
	apiEnvelope

	Result *struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	} `json:"result"`
}

func unmarshal(b []byte, v any) error {
	return sonic.Unmarshal(b, v)
}

// decodeSendDocument 提取 file_id、message_id 与文件名.
// 贴纸消息的文件名为 sticker_<file_id>.webp；文档没有文件名时为 unknown.
func decodeSendDocument(status int, body []byte) (*UploadResult, error) {
	var resp sendDocumentResponse
	if err := unmarshal(body, &resp); err != nil {
		return nil, &DecodeError{Op: opSendDocument, Err: err}
	}

	if !resp.OK {
		return nil, &RelayError{Op: opSendDocument, Status: status, Description: orDefault(resp.Description, "ok is false")}
	}

	if resp.Result == nil {
		return nil, &DecodeError{Op: opSendDocument, Field: "result"}
	}

	if resp.Result.MessageID == nil {
		return nil, &DecodeError{Op: opSendDocument, Field: "result.message_id"}
	}

	out := &UploadResult{RemoteMessageHandle: strconv.FormatInt(*resp.Result.MessageID, 10)}

	switch {
	case resp.Result.Sticker != nil && resp.Result.Sticker.FileID != "":
		out.RemoteFileHandle = resp.Result.Sticker.FileID
		out.Filename = "sticker_" + resp.Result.Sticker.FileID + ".webp"

		if resp.Result.Document != nil && resp.Result.Document.FileID != "" {
			out.RemoteFileHandle = resp.Result.Document.FileID
		}
	case resp.Result.Document != nil && resp.Result.Document.FileID != "":
		out.RemoteFileHandle = resp.Result.Document.FileID
		out.Filename = orDefault(resp.Result.Document.FileName, "unknown")
	default:
		return nil, &DecodeError{Op: opSendDocument, Field: "result.document.file_id"}
	}

	return out, nil
}

// decodeGetFile 提取 file_path；ok:false 或缺少 file_path 返回 RelayError.
func decodeGetFile(status int, body []byte) (string, error) {
	var resp getFileResponse
	if err := unmarshal(body, &resp); err != nil {
		return "", &DecodeError{Op: opGetFile, Err: err}
	}

	if !resp.OK {
		return "", &RelayError{Op: opGetFile, Status: status, Description: orDefault(resp.Description, "ok is false")}
	}

	if resp.Result == nil || resp.Result.FilePath == "" {
		return "", &RelayError{Op: opGetFile, Status: status, Description: "response has no result.file_path"}
	}

	return resp.Result.FilePath, nil
}

// decodeOK 只检查 ok 字段.
func decodeOK(op string, status int, body []byte) error {
	var env apiEnvelope
	if err := unmarshal(body, &env); err != nil {
		return &DecodeError{Op: op, Err: err}
	}

	if !env.OK {
		return &RelayError{Op: op, Status: status, Description: orDefault(env.Description, "ok is false")}
	}

	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}

	return s
}
