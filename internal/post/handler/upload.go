package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/service"
)

const imageField = "image"

// readImage returns the optional image attached to a multipart request.
// The returned closer must be called once the upload has been consumed.
func readImage(c *gin.Context, maxBytes int64) (*service.Upload, func(), error) {
	fh, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read image: %w", err)
	}
	return checkImage(fh, maxBytes)
}

func checkImage(fh *multipart.FileHeader, maxBytes int64) (*service.Upload, func(), error) {
	if fh.Size > maxBytes {
		return nil, nil, &post.UploadError{Reason: tooLarge(maxBytes)}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	closer := func() { f.Close() }

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("detect image type: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		closer()
		return nil, nil, &post.UploadError{Reason: "Only image files are allowed"}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		closer()
		return nil, nil, err
	}
	return &service.Upload{
		Body:        f,
		Size:        fh.Size,
		ContentType: mt.String(),
		Ext:         mt.Extension(),
	}, closer, nil
}

func tooLarge(maxBytes int64) string {
	if maxBytes%(1<<20) == 0 {
		return fmt.Sprintf("File too large. Maximum size is %dMB.", maxBytes>>20)
	}
	return fmt.Sprintf("File too large. Maximum size is %d bytes.", maxBytes)
}
