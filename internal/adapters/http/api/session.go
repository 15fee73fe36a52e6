package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SessionHandler serves login, logout and the read models of the active
// session.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleLogin handles POST /employees/{id}/session. It replaces any active
// session.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ref, err := h.deps.Login(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(ref, h.deps.Notices(), h.deps.UI()))
}

// HandleGetSession handles GET /session.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, _ *http.Request) {
	ref, err := h.deps.Current()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(ref, h.deps.Notices(), h.deps.UI()))
}

// HandleLogout handles POST /session/logout.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Logout(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.UI())
}

type navigateRequest struct {
	Path string `json:"path"`
}

// HandleNavigate handles POST /session/navigate. Leaving the authenticated
// area ends the session.
func (h *SessionHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.Path == "" {
		writeDomainError(w, fmt.Errorf("%w: path is required", ErrBadRequest))
		return
	}
	ended := h.deps.Navigate(r.Context(), req.Path)
	writeJSON(w, http.StatusOK, map[string]any{
		"logged_out": ended,
		"ui":         h.deps.UI(),
	})
}

type selectDateRequest struct {
	Date string `json:"date"`
}

// HandleSelectDate handles PUT /session/selected-date.
func (h *SessionHandler) HandleSelectDate(w http.ResponseWriter, r *http.Request) {
	var req selectDateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	date, err := parseDate(req.Date, h.deps.Location())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := h.deps.SelectDate(date); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected_date": date.Format(dateLayout)})
}

// HandleGetDay handles GET /session/days/{date}.
func (h *SessionHandler) HandleGetDay(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"), h.deps.Location())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	day, err := h.deps.Day(date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDayView(day))
}

// HandleGetCalendar handles GET /session/positions/{position}/calendar with
// optional year and month query parameters.
func (h *SessionHandler) HandleGetCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := parseMonth(q.Get("year"), q.Get("month"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := h.deps.Calendar(chi.URLParam(r, "position"), month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCalendarView(view))
}

