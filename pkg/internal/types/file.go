// Package types 定义 HTTP 接口的请求参数与响应结构.
package types

// UploadResponse POST /upload 成功响应.
type UploadResponse struct {
	Message   string `json:"message"`
	FileID    string `json:"file_id"`
	MessageID string `json:"message_id"`
	URL       string `json:"url"`
	RowID     int64  `json:"row_id"`
	UUID      string `json:"uuid"`
	CustomURL string `json:"custom_url"`
}

// UploadFailedResponse 中继上传失败响应.
type UploadFailedResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// FindParams GET /find/:year/:month/:day/:uuid 路径参数.
type FindParams struct {
	Year  int    `uri:"year"  rule:"min=1,max=9999"`
	Month int    `uri:"month" rule:"min=1,max=12"`
	Day   int    `uri:"day"   rule:"min=1,max=31"`
	UUID  string `uri:"uuid"  rule:"required,max=64"`
}

// DeleteParams DELETE /del/:id 路径参数.
type DeleteParams struct {
	ID int64 `uri:"id"`
}

// DeleteResponse 删除成功响应.
type DeleteResponse struct {
	Message string `json:"message"`
}

// NotFoundResponse 删除不存在的记录时的响应.
type NotFoundResponse struct {
	Detail string `json:"detail"`
}

// ErrorResponse 通用错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
}
