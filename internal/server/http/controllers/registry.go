package controllers

import (
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
)

// ControllerRegistry manages all HTTP controllers.
//
// It provides a centralized way to register all controller routes
// and manages the lifecycle of individual controllers.
type ControllerRegistry struct {
	general       *GeneralController
	subscriptions *SubscriptionsController
	devotional    *DevotionalController
	broadcasts    *BroadcastsController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and service.
func NewControllerRegistry(rt *runtime.Runtime, svc *notifier.Service, vapidPublicKey string) *ControllerRegistry {
	token := rt.Config().AdminToken
	return &ControllerRegistry{
		general:       NewGeneralController(rt, vapidPublicKey),
		subscriptions: NewSubscriptionsController(svc, token),
		devotional:    NewDevotionalController(svc),
		broadcasts:    NewBroadcastsController(svc, token),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.subscriptions.RegisterRoutes(mux)
	r.devotional.RegisterRoutes(mux)
	r.broadcasts.RegisterRoutes(mux)
}
