// pdf.go handles the PDF operation endpoints.
//
// POST /api/v1/pdf/extract        - Text of every page, OCR for pages without a text layer
// POST /api/v1/pdf/extract-page   - Text layer + embedded-image OCR for one page
// POST /api/v1/pdf/extract-images - Embedded-image OCR only, for one page
// POST /api/v1/pdf/search         - Highlighted matches, OCR fallback
//
// All four take a multipart form with "file", "page", "query" and "format".
// Operation outcomes (including "please upload a file") come back as a
// models.Response with 200; only transport problems use ErrorResponse.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
	pdfservice "github.com/Shimizu-Technology/pdf-text-tools/internal/services/pdf"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/worker"
)

// maxMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const maxMemory = 32 << 20

// ExtractAll handles POST /api/v1/pdf/extract.
func (h *Handler) ExtractAll(c *gin.Context) {
	h.runOperation(c, models.OpExtractAll)
}

// ExtractPage handles POST /api/v1/pdf/extract-page.
func (h *Handler) ExtractPage(c *gin.Context) {
	h.runOperation(c, models.OpExtractPage)
}

// ExtractImages handles POST /api/v1/pdf/extract-images.
func (h *Handler) ExtractImages(c *gin.Context) {
	h.runOperation(c, models.OpExtractImages)
}

// Search handles POST /api/v1/pdf/search.
func (h *Handler) Search(c *gin.Context) {
	h.runOperation(c, models.OpSearch)
}

func (h *Handler) runOperation(c *gin.Context, op models.Operation) {
	req, cleanup, errResp := h.buildRequest(c, op)
	defer cleanup()
	if errResp != nil {
		c.JSON(errResp.Code, errResp)
		return
	}

	resp, errResp := h.run(c, req)
	if errResp != nil {
		c.JSON(errResp.Code, errResp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// run hands req to the worker pool and waits for the response.
func (h *Handler) run(c *gin.Context, req models.Request) (models.Response, *models.ErrorResponse) {
	resp, err := h.Worker.Run(c.Request.Context(), req)
	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		return models.Response{}, &models.ErrorResponse{
			Error:   "busy",
			Message: "The server is busy processing other PDFs. Try again shortly.",
			Code:    http.StatusServiceUnavailable,
		}
	default:
		h.Logger.Warn().Err(err).Str("operation", string(req.Operation)).Msg("request abandoned")
		return models.Response{}, &models.ErrorResponse{
			Error:   "cancelled",
			Message: "The request was cancelled before the operation finished.",
			Code:    http.StatusServiceUnavailable,
		}
	}
}

// buildRequest reads the multipart form into a Request. The returned cleanup
// removes the saved upload and must always be called.
func (h *Handler) buildRequest(c *gin.Context, op models.Operation) (models.Request, func(), *models.ErrorResponse) {
	noop := func() {}
	if errResp := h.parseForm(c); errResp != nil {
		return models.Request{Operation: op}, noop, errResp
	}

	req := models.Request{
		Operation:  op,
		PageNumber: parsePage(c.PostForm("page")),
		Query:      c.PostForm("query"),
	}

	format, ok := models.ParseFormat(c.PostForm("format"))
	if !ok {
		return req, noop, &models.ErrorResponse{
			Error:   "invalid_format",
			Message: "Supported formats: txt, docx, pdf",
			Code:    http.StatusBadRequest,
		}
	}
	req.Format = format

	path, name, errResp := h.saveUpload(c)
	if errResp != nil {
		return req, noop, errResp
	}
	req.DocumentPath = path
	req.DocumentName = name

	cleanup := func() {
		if path == "" {
			return
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			h.Logger.Warn().Err(err).Str("path", path).Msg("failed to remove upload")
		}
	}
	return req, cleanup, nil
}

// parseForm caps the body size and parses the form before anything reads it.
func (h *Handler) parseForm(c *gin.Context) *models.ErrorResponse {
	maxSize := h.Opts.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)

	err := c.Request.ParseMultipartForm(maxMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return &models.ErrorResponse{
			Error:   "file_too_large",
			Message: fmt.Sprintf("The uploaded file is larger than %dMB.", maxSize>>20),
			Code:    http.StatusBadRequest,
		}
	}
	return &models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Could not read the form. Send multipart/form-data with the PDF in the field 'file'.",
		Code:    http.StatusBadRequest,
	}
}

// saveUpload stores the "file" form field under a generated name in the
// upload directory. No file at all is not an error: the operation itself
// answers with the upload prompt.
func (h *Handler) saveUpload(c *gin.Context) (path, name string, errResp *models.ErrorResponse) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		// Missing field or a non-multipart body: nothing was uploaded.
		return "", "", nil
	}
	defer file.Close()

	// Validate file extension
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" {
		return "", "", &models.ErrorResponse{
			Error:   "invalid_file_type",
			Message: fmt.Sprintf("Unsupported file format '%s'. Only .pdf files are accepted.", ext),
			Code:    http.StatusBadRequest,
		}
	}

	// Go Pattern: io.ReadAll reads the entire reader into a byte slice.
	// The size is already capped by MaxBytesReader.
	data, err := io.ReadAll(file)
	if err != nil {
		return "", "", &models.ErrorResponse{
			Error:   "read_error",
			Message: "Failed to read uploaded file",
			Code:    http.StatusBadRequest,
		}
	}

	if !pdfservice.ValidatePDF(data) {
		return "", "", &models.ErrorResponse{
			Error:   "invalid_pdf",
			Message: "The uploaded file does not appear to be a valid PDF",
			Code:    http.StatusBadRequest,
		}
	}

	path = filepath.Join(h.Opts.UploadDir, uuid.New().String()+".pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		h.Logger.Error().Err(err).Msg("failed to store upload")
		return "", "", &models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to store the uploaded file",
			Code:    http.StatusInternalServerError,
		}
	}
	return path, header.Filename, nil
}

// parsePage turns the page form value into a page number. Empty means page
// 1; anything that isn't a whole number becomes 0, which the operations
// report as an invalid page.
func parsePage(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}
