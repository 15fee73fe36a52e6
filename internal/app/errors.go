package service

import (
	"errors"
	"fmt"

	"github.com/okian/timeclock/internal/domain/model"
)

var (
	ErrNotStarted = errors.New("kiosk service not started")
	ErrInvalidID  = fmt.Errorf("%w: employee id must be 1 to 9 digits", model.ErrInvalidInput)
)
