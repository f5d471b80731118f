package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
	"github.com/Shimizu-Technology/pdf-text-tools/internal/services/export"
)

// UI prints responses for a terminal or, in JSON mode, for scripts.
type UI struct {
	out      io.Writer
	jsonMode bool
}

// NewUI creates a UI writing to out.
func NewUI(out io.Writer, noColor, jsonMode bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{out: out, jsonMode: jsonMode}
}

// statusStyle picks the marker and color for a status line.
func statusStyle(s models.ResultStatus) (string, *color.Color) {
	switch s {
	case models.StatusOK:
		return "✓", color.New(color.FgGreen)
	case models.StatusError:
		return "✗", color.New(color.FgRed, color.Bold)
	default:
		return "!", color.New(color.FgYellow)
	}
}

// Response prints resp. Search results are HTML, so they are flattened to
// plain text; the export file path is resolved against exportDir.
func (ui *UI) Response(resp models.Response, exportDir string) error {
	if ui.jsonMode {
		enc := json.NewEncoder(ui.out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	marker, c := statusStyle(resp.Result.Status)
	if _, err := c.Fprintf(ui.out, "%s %s: %s\n", marker, resp.Operation, resp.Result.Status); err != nil {
		return err
	}

	text := resp.Result.Text
	if resp.Result.Markup {
		text = export.StripMarkup(text)
	}
	if _, err := fmt.Fprintln(ui.out, strings.TrimRight(text, "\n")); err != nil {
		return err
	}

	if resp.Download != nil {
		path := filepath.Join(exportDir, resp.Download.Name)
		if _, err := color.New(color.FgCyan).Fprintf(ui.out, "→ Exported %s to %s\n", strings.ToUpper(string(resp.Download.Format)), path); err != nil {
			return err
		}
	}
	return nil
}
