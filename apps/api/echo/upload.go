package echoapi

import (
	"mime/multipart"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/plataforma-apa/apa/core"
)

// formFile reads the multipart file `field`, rejecting files above maxSize bytes.
// The returned closer must be called once the upload has been consumed.
func formFile(ctx echo.Context, field string, maxSize int64) (core.FileUpload, func(), error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return core.FileUpload{}, nil, core.NewValidationError(err, core.FieldError{Field: field, Error: "file is required"})
	}
	if maxSize > 0 && fh.Size > maxSize {
		return core.FileUpload{}, nil, errFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return core.FileUpload{}, nil, err
	}
	return core.FileUpload{
		Name:     fh.Filename,
		MimeType: mimeType(fh),
		Size:     fh.Size,
		Content:  src,
	}, func() { _ = src.Close() }, nil
}

func mimeType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get(echo.HeaderContentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
