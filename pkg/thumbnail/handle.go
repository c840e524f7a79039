package thumbnail

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handle serves the thumbnail endpoint.
type Handle struct {
	service *Service
}

// NewHandle creates a new thumbnail handler
func NewHandle(service *Service) *Handle {
	return &Handle{service: service}
}

// RegisterRoutes mounts the thumbnail route on the router.
func (h *Handle) RegisterRoutes(r chi.Router) {
	r.Get("/thumbnail/{path}", h.Generate)
}

// Generate handles GET /thumbnail/{path}?preset=
func (h *Handle) Generate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "path")
	preset := Preset(r.URL.Query().Get("preset"))

	// Render into a buffer first so a failure mid-encode cannot leave a
	// half-written 200 response.
	var buf bytes.Buffer
	err := h.service.Render(r.Context(), &buf, name, preset)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			http.Error(w, "Image not found.", http.StatusNotFound)
			return
		}
		slog.Error("Failed to render thumbnail", "path", name, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(buf.Bytes())
}
