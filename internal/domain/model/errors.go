package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds shared by the session, punch and gateway layers.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnreachable          = errors.New("gateway unreachable")
	ErrNotFound             = errors.New("resource not found")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrNoWorker             = errors.New("no worker matches id")
	ErrUnexpectedStatus     = errors.New("unexpected upstream status")
	ErrMalformedPayload     = errors.New("malformed upstream payload")
	ErrIneligible           = errors.New("not eligible for time tracking")
	ErrTECRequired          = errors.New("time entry code required")
	ErrUnknownTimeEntryCode = errors.New("unknown time entry code")
	ErrUnknownPosition      = errors.New("unknown position")
	ErrConflict             = errors.New("a different job is already clocked in")
	ErrNotDurable           = errors.New("punch was not recorded")
	ErrBusy                 = errors.New("punch already in progress")
	ErrSessionClosed        = errors.New("session closed")
	ErrNoSession            = errors.New("no active session")
)

// GatewayError is a classified failure talking to the time-clock backend.
type GatewayError struct {
	Kind   error
	Status int
	Reason string
	Err    error
}

func (e *GatewayError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the kind. A no-worker failure is also an upstream outage.
func (e *GatewayError) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return e.Kind == ErrNoWorker && target == ErrUpstreamUnavailable
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Kiosk-facing messages.
const (
	msgUnreachable = "Unable to Connect to API"
	msgNotFound    = "Error 404: API not Found"
	msgNoWorker    = "No Worker Matches ID"
	msgNotDurable  = "The Punch was not Submitted Successfully"
	msgIneligible  = "You are not eligible for time tracking"
	msgConflict    = "A different job is already clocked in"
	msgBusy        = "Your punch is still being submitted"
	msgTECRequired = "Please select a time entry code"
)

// UserMessage maps err to the text shown on the kiosk.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var gw *GatewayError
	switch {
	case errors.Is(err, ErrNotDurable):
		return msgNotDurable
	case errors.Is(err, ErrNoWorker):
		return msgNoWorker
	case errors.As(err, &gw) && gw.Kind == ErrUpstreamUnavailable:
		return gw.Reason
	case errors.Is(err, ErrUnreachable):
		return msgUnreachable
	case errors.Is(err, ErrNotFound):
		return msgNotFound
	case errors.As(err, &gw) && gw.Kind == ErrUnexpectedStatus:
		return fmt.Sprintf("Error %d: %s\r\n%s", gw.Status, http.StatusText(gw.Status), gw.Reason)
	case errors.Is(err, ErrIneligible):
		return msgIneligible
	case errors.Is(err, ErrConflict):
		return msgConflict
	case errors.Is(err, ErrBusy):
		return msgBusy
	case errors.Is(err, ErrTECRequired), errors.Is(err, ErrUnknownTimeEntryCode):
		return msgTECRequired
	}
	return err.Error()
}
