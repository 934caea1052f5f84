package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/fundacionmisionvida7/Pagina/internal/devotional"
	"github.com/fundacionmisionvida7/Pagina/internal/notification"
	"github.com/fundacionmisionvida7/Pagina/internal/registry"
	"github.com/fundacionmisionvida7/Pagina/internal/services/notifier"
	"github.com/fundacionmisionvida7/Pagina/internal/subscription"
)

// statusClientClosedRequest is logged when the client went away before the
// answer was ready.
const statusClientClosedRequest = 499

// errorMapping is the status, code and fallback message for a failure.
type errorMapping struct {
	status  int
	code    string
	message string
}

// classify maps service errors to HTTP responses. fallback is used for
// anything unrecognised.
func classify(err error, fallback string) errorMapping {
	switch {
	case errors.Is(err, subscription.ErrInvalidSubscription):
		return errorMapping{http.StatusBadRequest, "invalid_subscription", "Suscripción inválida"}
	case errors.Is(err, registry.ErrAlreadyExists):
		return errorMapping{http.StatusConflict, "already_exists", "Suscripción ya registrada"}
	case errors.Is(err, notifier.ErrInvalidAudience):
		return errorMapping{http.StatusBadRequest, "invalid_audience", "Audiencia inválida"}
	case errors.Is(err, notification.ErrEmptyPayload):
		return errorMapping{http.StatusBadRequest, "invalid_payload", "Notificación inválida"}
	case errors.Is(err, devotional.ErrContentProvider):
		return errorMapping{http.StatusInternalServerError, "content_provider", "No se pudo obtener el devocional"}
	case errors.Is(err, context.DeadlineExceeded):
		return errorMapping{http.StatusGatewayTimeout, "timeout", fallback}
	case errors.Is(err, context.Canceled):
		return errorMapping{statusClientClosedRequest, "cancelled", fallback}
	case errors.Is(err, registry.ErrUnavailable):
		return errorMapping{http.StatusInternalServerError, "unavailable", fallback}
	default:
		return errorMapping{http.StatusInternalServerError, "internal", fallback}
	}
}

// writeServiceError classifies err and writes the response.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	m := classify(err, fallback)
	writeError(w, m.status, m.code, m.message, err.Error())
}
