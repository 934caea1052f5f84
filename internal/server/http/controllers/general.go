package controllers

import (
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
)

// ServiceName and ServiceVersion are reported by the status endpoint.
const (
	ServiceName    = "Palabra del Día Backend"
	ServiceVersion = "2.0"
)

// GeneralController handles service status, health and the VAPID key.
type GeneralController struct {
	rt             *runtime.Runtime
	vapidPublicKey string
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, vapidPublicKey string) *GeneralController {
	return &GeneralController{rt: rt, vapidPublicKey: vapidPublicKey}
}

// RegisterRoutes registers general routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Service status (/)
// - Health checks (/v1/healthz)
// - The VAPID application server key (/v1/vapid-public-key)
func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", c.handleStatus)
	mux.HandleFunc("/v1/healthz", c.handleHealth)
	mux.HandleFunc("/v1/vapid-public-key", c.handleVAPIDKey)
}

// handleStatus reports that the service is online and which origins it
// accepts. Every unknown path falls through here and gets a 404.
func (c *GeneralController) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "Ruta no encontrada", r.URL.Path)
		return
	}
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, statusResp{
		Status:         "online",
		Service:        ServiceName,
		Version:        ServiceVersion,
		AllowedOrigins: c.rt.Config().AllowedOrigins,
	})
}

// handleHealth returns the health status of the service.
//
// Returns 200 OK with {"status": "ok"} if healthy, 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving", "not_serving", err.Error())
		return
	}
	writeJSON(w, map[string]any{"success": true, "status": "ok", "store": c.rt.Backend()})
}

// handleVAPIDKey returns the public key the browser passes to
// pushManager.subscribe.
func (c *GeneralController) handleVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if c.vapidPublicKey == "" {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "Claves VAPID no configuradas", "")
		return
	}
	writeJSON(w, map[string]any{"success": true, "publicKey": c.vapidPublicKey})
}
