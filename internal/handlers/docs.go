// docs.go serves the OpenAPI specification and Swagger UI.
//
// We write the OpenAPI 3.0 spec by hand as a YAML file and serve it
// alongside Swagger UI from a CDN, with no code generation step.
//
// Go Pattern: Embedding static files. Go 1.16+ has `embed` which lets you
// include files directly in the binary, so the binary is self-contained.
package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/Shimizu-Technology/pdf-text-tools/internal/models"
)

// openAPISpec is the OpenAPI 3.0 YAML specification embedded at compile time.
//
//go:embed openapi.yaml
var openAPISpec []byte

var (
	openAPIJSONOnce sync.Once
	openAPIJSON     []byte
	openAPIJSONErr  error
)

// ServeOpenAPISpec returns the raw OpenAPI YAML specification.
// GET /api/docs/openapi.yaml
func (h *Handler) ServeOpenAPISpec(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", openAPISpec)
}

// ServeOpenAPIJSON returns the same specification converted to JSON.
// GET /api/docs/openapi.json
func (h *Handler) ServeOpenAPIJSON(c *gin.Context) {
	openAPIJSONOnce.Do(func() {
		openAPIJSON, openAPIJSONErr = yamlToJSON(openAPISpec)
	})
	if openAPIJSONErr != nil {
		h.Logger.Error().Err(openAPIJSONErr).Msg("failed to convert OpenAPI spec")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "spec_error",
			Message: "Failed to render the API specification as JSON",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", openAPIJSON)
}

// yamlToJSON re-encodes a YAML document as JSON.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	out, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return out, nil
}

// jsonCompatible turns maps with non-string keys (e.g. unquoted response
// codes) into map[string]any so encoding/json accepts them.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}

// ServeSwaggerUI returns an HTML page that loads Swagger UI from a CDN
// and points it at our OpenAPI spec.
// GET /api/docs
func (h *Handler) ServeSwaggerUI(c *gin.Context) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>PDF Text Tools API - Documentation</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  <style>
    body { margin: 0; background: #fafafa; }
    .swagger-ui .topbar { display: none; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/api/docs/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout',
      deepLinking: true,
    });
  </script>
</body>
</html>`

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
