package controllers

import (
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/dispatch"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
)

// BroadcastsController triggers broadcasts and serves their history.
type BroadcastsController struct {
	svc        *notifier.Service
	adminToken string
}

// NewBroadcastsController creates a new broadcasts controller.
func NewBroadcastsController(svc *notifier.Service, adminToken string) *BroadcastsController {
	return &BroadcastsController{svc: svc, adminToken: adminToken}
}

// RegisterRoutes registers broadcast routes with the given mux.
//
// All routes require the admin token when one is configured.
func (c *BroadcastsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/send-daily", requireAdmin(c.adminToken, c.handleSendDaily))
	mux.HandleFunc("/api/send-daily", requireAdmin(c.adminToken, c.handleSendDaily))
	mux.HandleFunc("/v1/broadcasts", requireAdmin(c.adminToken, c.handleBroadcasts))
}

// broadcastResp is the summary returned to the caller.
type broadcastResp struct {
	Success bool `json:"success"`
	dispatch.Summary
}

// handleSendDaily pushes today's devotional to every subscriber, or to the
// ones matching ?audience=<CEL>. GET serves cron triggers; POST is
// accepted too.
func (c *BroadcastsController) handleSendDaily(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	sum, err := c.svc.BroadcastDaily(r.Context(), r.URL.Query().Get("audience"))
	if err != nil {
		writeServiceError(w, err, "Error al enviar notificaciones")
		return
	}
	writeJSON(w, broadcastResp{Success: true, Summary: sum})
}

// handleBroadcasts lists the journal on GET and sends a custom broadcast
// on POST.
func (c *BroadcastsController) handleBroadcasts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := c.svc.History(parseLimit(r.URL.Query().Get("limit"), 20))
		if err != nil {
			writeServiceError(w, err, "Fallo al leer el historial")
			return
		}
		total, err := c.svc.HistoryLen()
		if err != nil {
			writeServiceError(w, err, "Fallo al leer el historial")
			return
		}
		writeJSON(w, map[string]any{"success": true, "total": total, "broadcasts": entries})
	case http.MethodPost:
		var req notifier.CustomBroadcast
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Solicitud inválida", err.Error())
			return
		}
		sum, err := c.svc.BroadcastCustom(r.Context(), req)
		if err != nil {
			writeServiceError(w, err, "Error al enviar notificaciones")
			return
		}
		writeJSON(w, broadcastResp{Success: true, Summary: sum})
	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}
