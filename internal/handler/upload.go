package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/punch-attendance/pkg/errors"
)

const defaultMaxUploadBytes = 10 << 20

// multipartOverhead leaves room for boundaries and form fields around the file part.
const multipartOverhead = 64 << 10

// readUpload buffers the multipart "file" field, enforcing maxBytes on the file content.
func readUpload(c *gin.Context, maxBytes int64) (string, []byte, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, payloadTooLarge(maxBytes)
		}
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if header.Size > maxBytes {
		return "", nil, payloadTooLarge(maxBytes)
	}
	src, err := header.Open()
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	defer src.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
	}
	if int64(len(data)) > maxBytes {
		return "", nil, payloadTooLarge(maxBytes)
	}
	return header.Filename, data, nil
}

func payloadTooLarge(maxBytes int64) error {
	return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("uploaded file exceeds %d bytes", maxBytes))
}
