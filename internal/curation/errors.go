// AngelaMos | 2026
// errors.go

package curation

import (
	"errors"
	"fmt"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/gate"
)

var (
	ErrGateRejected      = errors.New("gate rejected")
	ErrInsufficientPicks = errors.New("insufficient picks")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNoteRequired      = fmt.Errorf("rejection note is required: %w", core.ErrInvalidInput)
)

// GateError carries the decision that blocked a submit or approve.
// It unwraps to ErrGateRejected or ErrInsufficientPicks.
type GateError struct {
	Kind     error
	Decision gate.Decision
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Decision.Reason)
}

func (e *GateError) Unwrap() error {
	return e.Kind
}

func gateRejected(d gate.Decision) error {
	return &GateError{Kind: ErrGateRejected, Decision: d}
}

func insufficientPicks(d gate.Decision) error {
	return &GateError{Kind: ErrInsufficientPicks, Decision: d}
}
