// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// Every operation takes a Request and hands back a Response. Nothing here
// is stored anywhere - these values live for exactly one request.
package models

import "strings"

// Operation names one of the extraction/search actions a user can trigger.
type Operation string

const (
	OpExtractAll    Operation = "extract_all"
	OpExtractPage   Operation = "extract_page"
	OpExtractImages Operation = "extract_images"
	OpSearch        Operation = "search"
)

// Format is the container an export artifact is written in.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat normalizes a user-supplied format ("TXT", "docx", ...).
// The second return value is false when the format is not recognized.
// An empty string is valid and means "don't export".
func ParseFormat(s string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTXT, FormatDOCX, FormatPDF:
		return f, true
	default:
		return "", false
	}
}

// Extension returns the file extension (with the dot) for the format.
// Unknown formats fall back to plain text.
func (f Format) Extension() string {
	switch f {
	case FormatDOCX:
		return ".docx"
	case FormatPDF:
		return ".pdf"
	default:
		return ".txt"
	}
}

// ResultStatus says what kind of outcome a Result carries.
// Go Pattern: We use string constants instead of enums (Go doesn't have enums).
type ResultStatus string

const (
	StatusOK           ResultStatus = "ok"
	StatusPrompt       ResultStatus = "prompt"        // required input missing
	StatusInvalidInput ResultStatus = "invalid_input" // input present but unusable
	StatusEmpty        ResultStatus = "empty"         // ran fine, nothing to show
	StatusNotFound     ResultStatus = "not_found"
	StatusError        ResultStatus = "error"
)

// Result is the user-facing outcome of one operation.
// Text is always set, so there is always something to display; Markup
// tells the renderer (and the exporter) that Text is HTML.
type Result struct {
	Status ResultStatus `json:"status"`
	Text   string       `json:"text"`
	Markup bool         `json:"markup"`
}

// HasContent reports whether the result is real extracted content worth
// exporting, as opposed to a prompt, an error or a "nothing found" message.
func (r Result) HasContent() bool {
	return r.Status == StatusOK && strings.TrimSpace(r.Text) != ""
}

// SourceKind tells where a piece of text came from.
type SourceKind string

const (
	SourceNative SourceKind = "native"
	SourceOCR    SourceKind = "ocr"
)

// Unit is the text of one page from one source.
// Failure is set when OCR for the page could not run; Text is then empty.
type Unit struct {
	Page    int        `json:"page"` // 1-based
	Source  SourceKind `json:"source"`
	Text    string     `json:"text"`
	Failure string     `json:"failure,omitempty"`
}

// --- Request/Response DTOs ---
// Go Pattern: The form's state is modeled as an explicit request value
// passed into the handler and an explicit response value returned from it.

// Request carries everything one operation needs.
type Request struct {
	Operation    Operation `json:"operation"`
	DocumentPath string    `json:"-"` // Filesystem path of the PDF; empty = nothing uploaded
	DocumentName string    `json:"document_name,omitempty"`
	PageNumber   int       `json:"page_number"` // 1-based, as typed by the user
	Query        string    `json:"query,omitempty"`
	Format       Format    `json:"format,omitempty"` // Empty = don't export
}

// Download points at an export artifact produced for a response.
type Download struct {
	Name   string `json:"name"`
	Format Format `json:"format"`
	URL    string `json:"url"`
}

// Response is what every operation returns.
type Response struct {
	Operation Operation `json:"operation"`
	Result    Result    `json:"result"`
	Download  *Download `json:"download,omitempty"` // Pointer = nullable; nil when nothing was exported
}

// ExportRequest is the JSON body for POST /api/v1/export.
type ExportRequest struct {
	Result Result `json:"result" binding:"required"`
	Format string `json:"format"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status     string   `json:"status"`
	Version    string   `json:"version"`
	OCREngine  string   `json:"ocr_engine"`
	OCRVersion string   `json:"ocr_version"`
	Languages  []string `json:"ocr_languages"`
	Workers    int      `json:"workers"`
	QueueSize  int      `json:"queue_size"`
}
