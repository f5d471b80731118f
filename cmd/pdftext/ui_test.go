package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

func TestUIResponse(t *testing.T) {
	tests := []struct {
		name string
		resp models.Response
		want string
	}{
		{
			name: "text result",
			resp: models.Response{
				Operation: models.OpExtractAll,
				Result:    models.Result{Status: models.StatusOK, Text: "--- Page 1 ---\nHello\n\n"},
			},
			want: "✓ extract_all: ok\n--- Page 1 ---\nHello\n",
		},
		{
			name: "prompt",
			resp: models.Response{
				Operation: models.OpSearch,
				Result:    models.Result{Status: models.StatusPrompt, Text: "Please upload a PDF file."},
			},
			want: "! search: prompt\nPlease upload a PDF file.\n",
		},
		{
			name: "markup is flattened",
			resp: models.Response{
				Operation: models.OpSearch,
				Result: models.Result{
					Status: models.StatusOK,
					Markup: true,
					Text:   `<div><b>Page 2</b>: a <span class="highlight">match</span></div>`,
				},
			},
			want: "✓ search: ok\nPage 2: a match\n",
		},
		{
			name: "error with download",
			resp: models.Response{
				Operation: models.OpExtractPage,
				Result:    models.Result{Status: models.StatusError, Text: "boom"},
				Download:  &models.Download{Name: "pdftext-1.txt", Format: models.FormatTXT},
			},
			want: "✗ extract_page: error\nboom\n→ Exported TXT to " + filepath.Join("/exports", "pdftext-1.txt") + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ui := NewUI(&buf, true, false)
			require.NoError(t, ui.Response(tt.resp, "/exports"))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestUIResponse_JSON(t *testing.T) {
	var buf bytes.Buffer
	ui := NewUI(&buf, true, true)

	resp := models.Response{
		Operation: models.OpExtractAll,
		Result:    models.Result{Status: models.StatusOK, Text: "hi"},
	}
	require.NoError(t, ui.Response(resp, ""))

	var got models.Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, resp, got)
}

func TestNewRequest(t *testing.T) {
	req := newRequest(models.OpExtractAll, []string{"/tmp/scans/report.pdf"})
	assert.Equal(t, "/tmp/scans/report.pdf", req.DocumentPath)
	assert.Equal(t, "report.pdf", req.DocumentName)

	req = newRequest(models.OpSearch, nil)
	assert.Empty(t, req.DocumentPath)
	assert.Equal(t, models.OpSearch, req.Operation)
}
