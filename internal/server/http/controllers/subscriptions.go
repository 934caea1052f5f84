package controllers

import (
	"io"
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
)

// SubscriptionsController handles browser subscription management and the
// operator listing of subscribers.
type SubscriptionsController struct {
	svc        *notifier.Service
	adminToken string
}

// NewSubscriptionsController creates a new subscriptions controller.
func NewSubscriptionsController(svc *notifier.Service, adminToken string) *SubscriptionsController {
	return &SubscriptionsController{svc: svc, adminToken: adminToken}
}

// RegisterRoutes registers subscription routes with the given mux.
func (c *SubscriptionsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/subscribe", c.handleSubscribe)
	mux.HandleFunc("/subscribe", c.handleSubscribe)
	mux.HandleFunc("/api/unsubscribe", c.handleUnsubscribe)
	mux.HandleFunc("/v1/subscribers", requireAdmin(c.adminToken, c.handleListSubscribers))
}

// handleSubscribe stores a browser push subscription.
//
// Accepts {"subscription": {...}} or the bare PushSubscription JSON.
// Returns 201 Created, 400 for invalid input, 409 when the endpoint is
// already registered and 500 when storage fails.
func (c *SubscriptionsController) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_subscription", "Suscripción inválida", err.Error())
		return
	}
	rec, err := subscription.ParseJSON(body)
	if err != nil {
		writeServiceError(w, err, "Fallo al guardar suscripción")
		return
	}
	stored, err := c.svc.Subscribe(r.Context(), rec)
	if err != nil {
		writeServiceError(w, err, "Fallo al guardar suscripción")
		return
	}
	writeJSONStatus(w, http.StatusCreated, subscribeResp{
		Success:      true,
		Message:      "Suscripción guardada",
		Subscription: subscriptionView{Endpoint: stored.Endpoint, CreatedAt: stored.CreatedAt},
	})
}

// handleUnsubscribe removes a subscription by endpoint.
//
// Removing an unknown endpoint succeeds with removed=false.
func (c *SubscriptionsController) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var req unsubscribeReq
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Solicitud inválida", err.Error())
		return
	}
	res, err := c.svc.Unsubscribe(r.Context(), req.Endpoint)
	if err != nil {
		writeServiceError(w, err, "Fallo al eliminar suscripción")
		return
	}
	writeJSON(w, unsubscribeResp{Success: true, Removed: res == registry.Removed})
}

// handleListSubscribers returns the subscriber count and, unless
// ?count_only=true, the endpoints with their creation time.
func (c *SubscriptionsController) handleListSubscribers(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if r.URL.Query().Get("count_only") == "true" {
		n, err := c.svc.Count(r.Context())
		if err != nil {
			writeServiceError(w, err, "Fallo al contar suscripciones")
			return
		}
		writeJSON(w, subscribersResp{Success: true, Count: n})
		return
	}
	recs, err := c.svc.Subscribers(r.Context())
	if err != nil {
		writeServiceError(w, err, "Fallo al listar suscripciones")
		return
	}
	views := make([]subscriptionView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, subscriptionView{Endpoint: rec.Endpoint, CreatedAt: rec.CreatedAt})
	}
	writeJSON(w, subscribersResp{Success: true, Count: len(views), Subscribers: views})
}
