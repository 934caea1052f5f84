package controllers

import (
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
)

// DevotionalController serves the scraped word of the day.
type DevotionalController struct {
	svc *notifier.Service
}

// NewDevotionalController creates a new devotional controller.
func NewDevotionalController(svc *notifier.Service) *DevotionalController {
	return &DevotionalController{svc: svc}
}

// RegisterRoutes registers devotional routes with the given mux.
func (c *DevotionalController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/devotional", c.handleDevotional)
	mux.HandleFunc("/api/devotional", c.handleDevotional)
}

// handleDevotional returns {title, content, date, source}; 500 when the
// source page cannot be read.
func (c *DevotionalController) handleDevotional(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	d, err := c.svc.Devotional(r.Context())
	if err != nil {
		writeServiceError(w, err, "No se pudo obtener el devocional")
		return
	}
	writeJSON(w, map[string]any{
		"success": true,
		"title":   d.Title,
		"content": d.Content,
		"date":    d.Date,
		"source":  d.Source,
	})
}
