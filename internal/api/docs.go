package api

import (
	_ "embed"
	"log/slog"
	"net/http"
)

//go:embed openapi.json
var openAPISpec []byte

// ServeOpenAPI handles GET /api-docs requests with the static OpenAPI
// document describing this service.
func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(openAPISpec); err != nil {
		slog.Error("failed to write OpenAPI document", "error", err)
	}
}
