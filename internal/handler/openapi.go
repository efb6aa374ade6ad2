package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/showcasehq/showcase/internal/openapi"
)

// OpenAPIHandler serves the OpenAPI 3.1 document describing the JSON API.
// The document only depends on deployment settings, so it is rendered once.
type OpenAPIHandler struct {
	info openapi.Info

	once sync.Once
	body []byte
	err  error
}

// NewOpenAPIHandler creates a new OpenAPIHandler.
func NewOpenAPIHandler(info openapi.Info) *OpenAPIHandler {
	return &OpenAPIHandler{info: info}
}

// ServeSpec returns the OpenAPI document.
// GET /openapi.json
func (h *OpenAPIHandler) ServeSpec(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.body, h.err = json.MarshalIndent(openapi.Generate(h.info), "", "  ")
	})
	if h.err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate OpenAPI spec: "+h.err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(h.body)
}
