package punch

import (
	"context"

	"github.com/okian/timeclock/internal/domain/model"
)

// Choice is the employee's answer to the success dialog.
type Choice string

const (
	ChoiceAcknowledge Choice = "acknowledge"
	ChoiceLogout      Choice = "logout"
)

// ParseChoice maps a dialog result to a Choice. Unknown values acknowledge.
func ParseChoice(s string) Choice {
	if Choice(s) == ChoiceLogout {
		return ChoiceLogout
	}
	return ChoiceAcknowledge
}

// Confirmer answers the dialogs an attempt may raise. Each call resolves
// once.
type Confirmer interface {
	// ConfirmDoublePunch is asked before a clock-in on a position that is
	// already in, or a clock-out on one that is already out.
	ConfirmDoublePunch(ctx context.Context, pos *model.Position, t model.ClockEventType) bool
	// ConfirmSuccess is asked after a durable punch.
	ConfirmSuccess(ctx context.Context, resp model.PunchResponse) Choice
}

// StaticConfirmer answers every dialog with fixed values. The HTTP API
// uses it to carry answers sent with the punch request.
type StaticConfirmer struct {
	DoublePunch  bool
	AfterSuccess Choice
}

func (c StaticConfirmer) ConfirmDoublePunch(context.Context, *model.Position, model.ClockEventType) bool {
	return c.DoublePunch
}

func (c StaticConfirmer) ConfirmSuccess(context.Context, model.PunchResponse) Choice {
	if c.AfterSuccess == "" {
		return ChoiceAcknowledge
	}
	return c.AfterSuccess
}
