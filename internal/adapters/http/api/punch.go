package api

import (
	"fmt"
	"net/http"

	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
)

// PunchHandler submits clock events for the active session.
type PunchHandler struct {
	deps Dependencies
}

// NewPunchHandler creates a new punch handler.
func NewPunchHandler(deps Dependencies) *PunchHandler {
	return &PunchHandler{deps: deps}
}

// punchRequest carries the punch and the kiosk's answers to the prompts
// the punch may raise.
type punchRequest struct {
	PositionNumber     string `json:"position_number"`
	ClockEventType     string `json:"clock_event_type"`
	TimeEntryCode      string `json:"time_entry_code"`
	ConfirmDoublePunch bool   `json:"confirm_double_punch"`
	AfterSuccess       string `json:"after_success"`
}

// HandlePunch handles POST /session/punch.
func (h *PunchHandler) HandlePunch(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.PositionNumber == "" {
		writeDomainError(w, fmt.Errorf("%w: position_number is required", ErrBadRequest))
		return
	}
	typ, err := model.ParseClockEventType(req.ClockEventType)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := h.deps.Punch(r.Context(), punch.Attempt{
		PositionNumber: req.PositionNumber,
		Type:           typ,
		TimeEntryCode:  req.TimeEntryCode,
		Confirmer: punch.StaticConfirmer{
			DoublePunch:  req.ConfirmDoublePunch,
			AfterSuccess: punch.ParseChoice(req.AfterSuccess),
		},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	_, cerr := h.deps.Current()
	writeJSON(w, http.StatusOK, newPunchResultView(res, cerr != nil))
}
