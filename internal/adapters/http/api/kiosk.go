package api

import (
	"fmt"
	"net/http"

	"github.com/okian/timeclock/internal/domain/model"
)

// KioskHandler serves the kiosk-wide UI state and client logs.
type KioskHandler struct {
	deps Dependencies
}

// NewKioskHandler creates a new kiosk handler.
func NewKioskHandler(deps Dependencies) *KioskHandler {
	return &KioskHandler{deps: deps}
}

type uiResponse struct {
	UI      model.UIState `json:"ui"`
	Notices model.Notices `json:"notices"`
}

// HandleGetUI handles GET /ui.
func (h *KioskHandler) HandleGetUI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, uiResponse{UI: h.deps.UI(), Notices: h.deps.Notices()})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

// HandlePutTheme handles PUT /theme. An empty theme restores the default.
func (h *KioskHandler) HandlePutTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	h.deps.SetTheme(req.Theme)
	h.deps.Touch()
	writeJSON(w, http.StatusOK, h.deps.UI())
}

type logRequest struct {
	Button  string `json:"button"`
	Message string `json:"message"`
	Notify  bool   `json:"notify"`
}

// HandlePostLog handles POST /logs. The entry is shipped in the background;
// a full queue rejects it.
func (h *KioskHandler) HandlePostLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if req.Message == "" {
		writeDomainError(w, fmt.Errorf("%w: message is required", ErrBadRequest))
		return
	}
	if !h.deps.Log(r.Context(), req.Button, req.Message, req.Notify) {
		writeDomainError(w, fmt.Errorf("%w: log queue full", ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}
