// form.go serves the browser form.
//
// GET  /  - Empty form
// POST /  - Run the pressed button's operation and show the result
//
// Go Pattern: The template is embedded and parsed once; gin renders it by
// name through c.HTML after router.Setup registers it.
package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

// formActions maps the submit buttons to operations.
var formActions = map[string]models.Operation{
	"extract_all":    models.OpExtractAll,
	"extract_page":   models.OpExtractPage,
	"extract_images": models.OpExtractImages,
	"search":         models.OpSearch,
}

// formView is everything the template shows.
type formView struct {
	Page     int
	Query    string
	Format   models.Format
	Action   string
	Result   *models.Result
	Markup   template.HTML // Set instead of Result.Text for highlighted search output
	Download *models.Download
	Error    string
}

// ShowForm renders an empty form.
// GET /
func (h *Handler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", formView{Page: 1, Format: models.FormatTXT})
}

// SubmitForm runs the operation for the pressed button.
// POST /
func (h *Handler) SubmitForm(c *gin.Context) {
	// Parse under the size cap before PostForm gets a chance to.
	if errResp := h.parseForm(c); errResp != nil {
		c.HTML(errResp.Code, "index.html", formView{
			Page:   1,
			Format: models.FormatTXT,
			Error:  errResp.Message,
		})
		return
	}

	action := c.PostForm("action")
	if action == "clear" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	op, ok := formActions[action]
	if !ok {
		c.HTML(http.StatusBadRequest, "index.html", formView{
			Page:   1,
			Format: models.FormatTXT,
			Error:  "Unknown action.",
		})
		return
	}

	req, cleanup, errResp := h.buildRequest(c, op)
	defer cleanup()

	view := formView{
		Page:   req.PageNumber,
		Query:  req.Query,
		Format: req.Format,
		Action: action,
	}
	if view.Format == "" {
		view.Format = models.FormatTXT
	}
	if errResp != nil {
		view.Error = errResp.Message
		c.HTML(errResp.Code, "index.html", view)
		return
	}

	// The form always offers a download, so always ask for one.
	req.Format = view.Format

	resp, errResp := h.run(c, req)
	if errResp != nil {
		view.Error = errResp.Message
		c.HTML(errResp.Code, "index.html", view)
		return
	}

	view.Result = &resp.Result
	view.Download = resp.Download
	if resp.Result.Markup {
		// Search markup is built from escaped page text.
		view.Markup = template.HTML(resp.Result.Text)
	}
	c.HTML(http.StatusOK, "index.html", view)
}
