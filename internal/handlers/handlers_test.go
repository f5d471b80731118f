package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/app"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/export"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/worker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRunner records requests and answers with a fixed response.
type fakeRunner struct {
	resp       models.Response
	err        error
	got        []models.Request
	uploadSeen bool // whether the upload existed while the job ran
}

func (f *fakeRunner) Run(_ context.Context, req models.Request) (models.Response, error) {
	f.got = append(f.got, req)
	if req.DocumentPath != "" {
		_, err := os.Stat(req.DocumentPath)
		f.uploadSeen = err == nil
	}
	if f.err != nil {
		return models.Response{}, f.err
	}
	resp := f.resp
	resp.Operation = req.Operation
	return resp, nil
}

func (f *fakeRunner) WorkerCount() int { return 1 }
func (f *fakeRunner) QueueSize() int   { return 0 }

type fakeEngine struct{}

func (fakeEngine) Name() string        { return "tesseract" }
func (fakeEngine) Version() string     { return "5.3.0" }
func (fakeEngine) Languages() []string { return []string{"eng", "deu"} }

type testEnv struct {
	router    *gin.Engine
	handler   *Handler
	uploadDir string
	exportDir string
}

func newTestEnv(t *testing.T, runner *fakeRunner) *testEnv {
	t.Helper()

	uploadDir, exportDir := t.TempDir(), t.TempDir()
	exporter := app.New(nil, nil, export.New(exportDir, zerolog.Nop()), zerolog.Nop())
	h := NewHandler(runner, exporter, fakeEngine{}, Options{
		UploadDir:      uploadDir,
		ExportDir:      exportDir,
		MaxUploadBytes: 1 << 20,
		Version:        "test",
	}, zerolog.Nop())

	r := gin.New()
	r.SetHTMLTemplate(Templates())
	r.GET("/", h.ShowForm)
	r.POST("/", h.SubmitForm)
	r.GET("/api/v1/health", h.HealthCheck)
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)
	r.GET("/api/docs/openapi.json", h.ServeOpenAPIJSON)
	r.POST("/api/v1/pdf/extract", h.ExtractAll)
	r.POST("/api/v1/pdf/extract-page", h.ExtractPage)
	r.POST("/api/v1/pdf/extract-images", h.ExtractImages)
	r.POST("/api/v1/pdf/search", h.Search)
	r.POST("/api/v1/export", h.ExportResult)
	r.GET("/api/v1/downloads/:name", h.Download)

	return &testEnv{router: r, handler: h, uploadDir: uploadDir, exportDir: exportDir}
}

// multipartRequest builds a form post. A nil file means no file part.
func multipartRequest(t *testing.T, target string, fields map[string]string, filename string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var minimalPDF = []byte("%PDF-1.4\n1 0 obj <<>> endobj\ntrailer <<>>\n%%EOF\n")

func TestOperations_BuildRequest(t *testing.T) {
	tests := []struct {
		path      string
		fields    map[string]string
		wantOp    models.Operation
		wantPage  int
		wantQuery string
		wantFmt   models.Format
	}{
		{"/api/v1/pdf/extract", nil, models.OpExtractAll, 1, "", ""},
		{"/api/v1/pdf/extract-page", map[string]string{"page": "3", "format": "DOCX"}, models.OpExtractPage, 3, "", models.FormatDOCX},
		{"/api/v1/pdf/extract-images", map[string]string{"page": "2.0"}, models.OpExtractImages, 2, "", ""},
		{"/api/v1/pdf/search", map[string]string{"query": "Total Due", "format": "pdf"}, models.OpSearch, 1, "Total Due", models.FormatPDF},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantOp), func(t *testing.T) {
			runner := &fakeRunner{resp: models.Response{Result: models.Result{Status: models.StatusOK, Text: "x"}}}
			env := newTestEnv(t, runner)

			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, multipartRequest(t, tt.path, tt.fields, "Scan.PDF", minimalPDF))

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			require.Len(t, runner.got, 1)
			got := runner.got[0]
			assert.Equal(t, tt.wantOp, got.Operation)
			assert.Equal(t, tt.wantPage, got.PageNumber)
			assert.Equal(t, tt.wantQuery, got.Query)
			assert.Equal(t, tt.wantFmt, got.Format)
			assert.Equal(t, "Scan.PDF", got.DocumentName)
			assert.Equal(t, env.uploadDir, filepath.Dir(got.DocumentPath))
			assert.True(t, runner.uploadSeen, "upload exists while the operation runs")
			assert.NoFileExists(t, got.DocumentPath, "upload removed after the request")

			var resp models.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantOp, resp.Operation)
		})
	}
}

func TestOperations_NoFileStillRuns(t *testing.T) {
	runner := &fakeRunner{resp: models.Response{Result: models.Result{Status: models.StatusPrompt, Text: "Please upload a PDF file."}}}
	env := newTestEnv(t, runner)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "/api/v1/pdf/extract", nil, "", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.got, 1)
	assert.Empty(t, runner.got[0].DocumentPath)
	assert.Contains(t, w.Body.String(), "Please upload a PDF file.")
}

func TestOperations_TransportErrors(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		filename   string
		file       []byte
		runnerErr  error
		wantStatus int
		wantError  string
	}{
		{"wrong extension", nil, "notes.txt", []byte("%PDF-1.4"), nil, http.StatusBadRequest, "invalid_file_type"},
		{"wrong magic bytes", nil, "fake.pdf", []byte("PK\x03\x04zip"), nil, http.StatusBadRequest, "invalid_pdf"},
		{"unknown format", map[string]string{"format": "odt"}, "a.pdf", minimalPDF, nil, http.StatusBadRequest, "invalid_format"},
		{"too large", nil, "big.pdf", append([]byte("%PDF-"), make([]byte, 2<<20)...), nil, http.StatusBadRequest, "file_too_large"},
		{"queue full", nil, "a.pdf", minimalPDF, worker.ErrQueueFull, http.StatusServiceUnavailable, "busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{err: tt.runnerErr}
			env := newTestEnv(t, runner)

			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, multipartRequest(t, "/api/v1/pdf/extract", tt.fields, tt.filename, tt.file))

			assert.Equal(t, tt.wantStatus, w.Code)
			var errResp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.Equal(t, tt.wantError, errResp.Error)
			assert.Equal(t, tt.wantStatus, errResp.Code)

			entries, err := os.ReadDir(env.uploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no upload left behind")
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 1},
		{" 4 ", 4},
		{"0", 0},
		{"-2", -2},
		{"3.0", 3},
		{"2.5", 0},
		{"abc", 0},
		{"NaN", 0},
		{"1e20", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePage(tt.in))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthResponse{
		Status:     "ok",
		Version:    "test",
		OCREngine:  "tesseract",
		OCRVersion: "5.3.0",
		Languages:  []string{"eng", "deu"},
		Workers:    1,
	}, health)
}

func TestDocs(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var spec map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.3", spec["openapi"])
	paths, ok := spec["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/pdf/search")

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestYAMLToJSON_NonStringKeys(t *testing.T) {
	out, err := yamlToJSON([]byte("responses:\n  200:\n    description: ok\n"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"responses":{"200":{"description":"ok"}}}`, string(out))
}

// --- form ---

func TestShowForm(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, want := range []string{"Extract All Text", "Extract Specific Page Text", "Extract Image Text from Page", "Search", "Clear", `value="1"`} {
		assert.Contains(t, body, want)
	}
}

func TestSubmitForm_PlainResultIsEscaped(t *testing.T) {
	runner := &fakeRunner{resp: models.Response{Result: models.Result{Status: models.StatusOK, Text: "--- Page 1 ---\n<b>not bold</b>"}}}
	env := newTestEnv(t, runner)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "/", map[string]string{"action": "extract_page", "page": "1", "format": "docx"}, "a.pdf", minimalPDF))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "&lt;b&gt;not bold&lt;/b&gt;")
	require.Len(t, runner.got, 1)
	assert.Equal(t, models.FormatDOCX, runner.got[0].Format)
}

func TestSubmitForm_SearchMarkupRendered(t *testing.T) {
	markup := `<div style='margin-bottom: 15px;'><b>✅ Found on Page 1:</b><br><span style="background-color: yellow;">hit</span></div>`
	runner := &fakeRunner{resp: models.Response{
		Result:   models.Result{Status: models.StatusOK, Text: markup, Markup: true},
		Download: &models.Download{Name: "pdftext-1.txt", Format: models.FormatTXT, URL: "/api/v1/downloads/pdftext-1.txt"},
	}}
	env := newTestEnv(t, runner)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "/", map[string]string{"action": "search", "query": "hit"}, "a.pdf", minimalPDF))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<span style="background-color: yellow;">hit</span>`)
	assert.Contains(t, body, `href="/api/v1/downloads/pdftext-1.txt"`)
	assert.Equal(t, models.FormatTXT, runner.got[0].Format, "form defaults to TXT")
}

func TestSubmitForm_Clear(t *testing.T) {
	env := newTestEnv(t, &fakeRunner{})

	form := url.Values{"action": {"clear"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestSubmitForm_UnknownAction(t *testing.T) {
	runner := &fakeRunner{}
	env := newTestEnv(t, runner)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, multipartRequest(t, "/", map[string]string{"action": "shred"}, "", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, runner.got)
}
