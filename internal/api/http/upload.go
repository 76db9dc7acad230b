package http

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

// Upload runs a program/tests pair sent as the multipart files "code" and
// "tests". Files are sniffed and transcoded to UTF-8.
func (h *Handlers) Upload(c *gin.Context) {
	code, err := h.readUpload(c, "code")
	if err != nil {
		h.reject(c, testrun.SourceUpload, err)
		return
	}
	tests, err := h.readUpload(c, "tests")
	if err != nil {
		h.reject(c, testrun.SourceUpload, err)
		return
	}

	req, err := sandbox.FromWire(types.RunRequest{Code: &code, Tests: &tests}, h.maxSourceBytes)
	if err != nil {
		h.reject(c, testrun.SourceUpload, err)
		return
	}

	h.execute(c, testrun.SourceUpload, req)
}

func (h *Handlers) readUpload(c *gin.Context, field string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%w: file %q is required", utils.ErrInvalidRequest, field)
	}
	limit := int64(h.maxSourceBytes)
	if limit <= 0 {
		limit = utils.MaxSourceSize
	}
	if header.Size > limit {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", utils.ErrInvalidRequest, field, limit)
	}

	data, err := readFile(header, limit)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", utils.ErrInvalidRequest, field, err)
	}

	text, err := utils.DecodeText(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", utils.ErrInvalidRequest, field, err)
	}
	return text, nil
}

func readFile(header *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}
