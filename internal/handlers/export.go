// export.go serves export artifacts and exports results after the fact.
//
// POST /api/v1/export           - Export a result the client already has
// GET  /api/v1/downloads/:name  - Download an artifact (?filename= renames it)
//
// Supported formats:
//   - txt  - Plain text
//   - docx - Word document
//   - pdf  - PDF document
package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// artifactName matches the names the exporter generates. Anything else is
// refused, which also keeps path traversal out of the download route.
var artifactName = regexp.MustCompile(`^pdftext-[0-9]+\.(txt|docx|pdf)$`)

var contentTypes = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pdf":  "application/pdf",
}

// ExportResult writes a previously returned result to a new artifact.
// POST /api/v1/export
func (h *Handler) ExportResult(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Request body must be JSON with a 'result' object",
			Code:    http.StatusBadRequest,
		})
		return
	}

	format, ok := models.ParseFormat(req.Format)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_format",
			Message: "Supported formats: txt, docx, pdf",
			Code:    http.StatusBadRequest,
		})
		return
	}
	if format == "" {
		format = models.FormatTXT
	}

	download := h.Exporter.Export(req.Result, format)
	if download == nil {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:   "nothing_to_export",
			Message: "Only successful results with text can be exported",
			Code:    http.StatusUnprocessableEntity,
		})
		return
	}

	c.JSON(http.StatusCreated, download)
}

// Download serves an artifact from the export directory.
// GET /api/v1/downloads/:name?filename=
//
// Response headers are set for file download:
//   - Content-Type: appropriate MIME type
//   - Content-Disposition: attachment with filename
func (h *Handler) Download(c *gin.Context) {
	name := c.Param("name")
	if !artifactName.MatchString(name) {
		h.notFound(c)
		return
	}

	path := filepath.Join(h.Opts.ExportDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.notFound(c)
		return
	}

	ext := filepath.Ext(name)
	filename := name
	if requested := sanitizeFilename(strings.TrimSuffix(c.Query("filename"), ext)); requested != "" {
		filename = requested + ext
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", contentTypes[ext])
	c.File(path)
}

func (h *Handler) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "Download not found",
		Code:    http.StatusNotFound,
	})
}

// sanitizeFilename removes characters that aren't safe for filenames.
// Go Pattern: Keep it simple - replace unsafe characters with hyphens
// and trim the result. We don't need a full filesystem-safe sanitizer
// since this is just for the Content-Disposition header.
func sanitizeFilename(name string) string {
	// Replace common unsafe characters
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	// Collapse multiple hyphens/spaces
	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}

	name = strings.TrimSpace(name)

	// Limit length
	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
