package race

import (
	"errors"
	"fmt"
)

var (
	ErrParticipantNotFound = errors.New("invalid race number")
	ErrStationNotFound     = errors.New("invalid sector code")
	ErrCheckpointNotFound  = errors.New("no active checkpoint")
	ErrRaceNotStarted      = errors.New("race not started")
	ErrRaceFinished        = errors.New("race already finished")
	ErrBagAlreadyGiven     = errors.New("bag already given")
)

type SequenceKind string

const (
	// The sector was already completed by this participant.
	SequenceAlreadyCompleted SequenceKind = "already_completed"
	// Another sector is still running.
	SequenceActiveElsewhere SequenceKind = "active_elsewhere"
	// The sector is not the next one in order_index.
	SequenceOutOfOrder SequenceKind = "out_of_order"
	// A concurrent request started the sector first.
	SequenceAlreadyStarted SequenceKind = "already_started"
)

// SequenceError reports a violation of the sector ordering rules. Sector is
// the sector the participant has to deal with: the completed one for
// SequenceAlreadyCompleted and SequenceAlreadyStarted, otherwise the one to
// finish first.
type SequenceError struct {
	Kind   SequenceKind
	Sector int
}

func (e *SequenceError) Error() string {
	switch e.Kind {
	case SequenceAlreadyCompleted:
		return fmt.Sprintf("already completed sector %d; continue with next sector", e.Sector)
	case SequenceAlreadyStarted:
		return fmt.Sprintf("sector %d already started", e.Sector)
	default:
		return fmt.Sprintf("finish sector %d first", e.Sector)
	}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
