package handle

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/service"
	"github.com/yeisme/tgvault/pkg/internal/types"
	"github.com/yeisme/tgvault/pkg/log"
	"github.com/yeisme/tgvault/pkg/rule"
)

// UploadFieldName 上传文件优先读取的表单字段.
const UploadFieldName = "file"

const noFileMessage = "No file field received"

func abortNoFile(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: noFileMessage})
}

// pickFile 优先取 file 字段，否则按字段名排序取第一个文件.
func pickFile(form *multipart.Form) *multipart.FileHeader {
	if fhs := form.File[UploadFieldName]; len(fhs) > 0 {
		return fhs[0]
	}

	names := make([]string, 0, len(form.File))
	for name, fhs := range form.File {
		if len(fhs) > 0 {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil
	}

	slices.Sort(names)

	return form.File[names[0]][0]
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// UploadFile 处理 POST /upload，把 multipart 中的文件发送到中继并写入记录.
func UploadFile(c *gin.Context) {
	cfg := configs.GetConfig()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.Server.MaxUploadBytes())

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &tooLarge):
			abortError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			abortNoFile(c)
		default:
			abortError(c, http.StatusInternalServerError, err)
		}

		return
	}

	fh := pickFile(form)
	if fh == nil {
		abortNoFile(c)

		return
	}

	content, err := readPart(fh)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)

		return
	}

	svc := service.NewFileService(c.Request.Context())

	res, err := svc.Upload(c.Request.Context(), fh.Filename, content)
	if err != nil {
		var rf *service.RelayFailure
		if errors.As(err, &rf) {
			log.Logger().Error().Err(err).Str("filename", fh.Filename).Msg("relay upload failed")

			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, types.UploadFailedResponse{
				Message: "Failed to send to relay",
				Error:   rf.Error(),
			})

			return
		}

		abortError(c, http.StatusInternalServerError, err)

		return
	}

	log.Logger().Info().
		Int64("row_id", res.RowID).
		Str("uuid", res.UUID).
		Int("size", len(content)).
		Msg("file uploaded")

	c.JSON(http.StatusOK, res)
}

// ListFiles 处理 GET /files.
func ListFiles(c *gin.Context) {
	files, err := service.NewFileService(c.Request.Context()).List(c.Request.Context())
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)

		return
	}

	c.JSON(http.StatusOK, files)
}

// FindFile 处理 GET /find/:year/:month/:day/:uuid，返回文件内容.
func FindFile(c *gin.Context) {
	var params types.FindParams
	if err := c.ShouldBindUri(&params); err != nil {
		abortError(c, http.StatusBadRequest, err)

		return
	}

	if err := rule.ValidateStruct(&params); err != nil {
		if verrs := rule.Errors(err); verrs != nil {
			err = verrs
		}

		abortError(c, http.StatusBadRequest, err)

		return
	}

	svc := service.NewFileService(c.Request.Context())

	content, err := svc.Fetch(c.Request.Context(), params.Year, params.Month, params.Day, params.UUID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotFound) {
			status = http.StatusNotFound
		}

		abortError(c, status, err)

		return
	}

	etag := `"` + strconv.FormatUint(xxhash.Sum64(content), 16) + `"`

	c.Header("ETag", etag)
	c.Header("Content-Disposition", "attachment; filename="+params.UUID)

	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)

		return
	}

	c.Data(http.StatusOK, "application/octet-stream", content)
}

// DeleteFile 处理 DELETE /del/:id，先删中继消息再删记录.
func DeleteFile(c *gin.Context) {
	var params types.DeleteParams
	if err := c.ShouldBindUri(&params); err != nil {
		abortError(c, http.StatusBadRequest, err)

		return
	}

	svc := service.NewFileService(c.Request.Context())

	if err := svc.Delete(c.Request.Context(), params.ID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, types.NotFoundResponse{Detail: "File not found in database"})

			return
		}

		abortError(c, http.StatusInternalServerError, err)

		return
	}

	c.JSON(http.StatusOK, types.DeleteResponse{Message: "Deleted (db+telegram)"})
}

// GetUpdates 处理 GET /getUpdates，原样返回中继响应体.
func GetUpdates(c *gin.Context) {
	raw, err := service.NewFileService(c.Request.Context()).Updates(c.Request.Context())
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)

		return
	}

	c.Data(http.StatusOK, "application/json", []byte(raw))
}
