package schedule

import (
	"errors"
	"fmt"

	"github.com/harentsoaR/clinic-agenda/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown appointment status")
)

var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusNoShow},
	models.StatusConfirmed: {models.StatusAttended, models.StatusNoShow},
}

type InvalidTransitionError struct {
	From, To models.AppointmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move appointment from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

func KnownStatus(s models.AppointmentStatus) bool {
	switch s {
	case models.StatusPending, models.StatusConfirmed, models.StatusAttended, models.StatusNoShow:
		return true
	}
	return false
}

// Transition returns requested if the edge current -> requested is in the
// transition table. Attended and NoShow are terminal.
func Transition(current, requested models.AppointmentStatus) (models.AppointmentStatus, error) {
	if !KnownStatus(current) || !KnownStatus(requested) {
		return current, ErrUnknownStatus
	}
	for _, next := range transitions[current] {
		if next == requested {
			return requested, nil
		}
	}
	return current, &InvalidTransitionError{From: current, To: requested}
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s models.AppointmentStatus) []models.AppointmentStatus {
	out := make([]models.AppointmentStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}
