// internal/api/handlers/supplier_handler.go
package handlers

import (
	"errors"
	"net/http"

	"po-bridge-api-server/internal/api/respond"
	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/portal"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form boundaries and headers around the file.
const multipartOverhead = 1 << 20

// SupplierHandler serves the token-only routes. No login is involved.
type SupplierHandler struct {
	Portal         *portal.Service
	Log            *logger.Logger
	MaxUploadBytes int64
}

// GetLines returns the lines shared under one access token.
func (h *SupplierHandler) GetLines(c *gin.Context) {
	view, err := h.Portal.SupplierView(c.Request.Context(), c.Param("token"))
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitDocument stores a CoA for one line of the token's batch.
func (h *SupplierHandler) SubmitDocument(c *gin.Context) {
	upload, cleanup, err := formUpload(c, h.MaxUploadBytes)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	defer cleanup()

	line, err := h.Portal.Submit(c.Request.Context(), c.Param("token"), c.Param("id"), upload)
	if err != nil {
		respond.Error(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// formUpload reads the "file" part of a multipart request, bounded by maxBytes.
func formUpload(c *gin.Context, maxBytes int64) (portal.Upload, func(), error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return portal.Upload{}, nil, apperr.Newf(apperr.KindValidation, "the file exceeds the %d MB limit", maxBytes>>20)
		}
		return portal.Upload{}, nil, apperr.New(apperr.KindValidation, "a file is required in the \"file\" field")
	}

	upload := portal.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	return upload, func() { _ = file.Close() }, nil
}
