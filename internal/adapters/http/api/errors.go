package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/timeclock/internal/app"
	"github.com/okian/timeclock/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// writeDomainError maps a kiosk error to a status and a stable code. The
// message is the text the kiosk shows for it.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorResponse{Code: code, Message: model.UserMessage(err)})
}

func classify(err error) (int, string) {
	// Order matters: a non-durable punch wraps the transport failure, and a
	// no-worker failure is also an upstream outage.
	switch {
	case errors.Is(err, model.ErrNotDurable):
		return http.StatusBadGateway, "not_durable"
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrTECRequired), errors.Is(err, model.ErrUnknownTimeEntryCode):
		return http.StatusBadRequest, "time_entry_code"
	case errors.Is(err, model.ErrNoSession), errors.Is(err, model.ErrSessionClosed):
		return http.StatusNotFound, "no_session"
	case errors.Is(err, model.ErrUnknownPosition):
		return http.StatusNotFound, "unknown_position"
	case errors.Is(err, model.ErrIneligible):
		return http.StatusForbidden, "ineligible"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, model.ErrNoWorker):
		return http.StatusNotFound, "no_worker"
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "upstream_unavailable"
	case errors.Is(err, model.ErrUnreachable):
		return http.StatusBadGateway, "unreachable"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusBadGateway, "upstream_not_found"
	case errors.Is(err, model.ErrUnexpectedStatus), errors.Is(err, model.ErrMalformedPayload):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}
