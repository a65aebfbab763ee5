// Package history keeps patient risk flags and the append-only log of probe
// completions the scheduler reads.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maastricht-university/vocal-indicators/indicators"
	"github.com/maastricht-university/vocal-indicators/microtask"
)

var (
	ErrInvalidPatient   = errors.New("patient id is required")
	ErrInvalidPeriod    = errors.New("period must be >= 1")
	ErrUnknownTask      = errors.New("unknown task")
	ErrUnknownCondition = errors.New("unknown condition")
)

// Store is the profile and history backend. Unknown patients have an empty
// profile rather than an error.
type Store interface {
	Profile(ctx context.Context, patientID string) (microtask.PatientProfile, error)
	// SetRiskFlags upserts the given flags; conditions not mentioned keep their value.
	SetRiskFlags(ctx context.Context, patientID string, flags map[indicators.Condition]bool) error
	RecordCompletion(ctx context.Context, patientID, taskID string, period int) error
	Close() error
}

func checkPatient(patientID string) error {
	if strings.TrimSpace(patientID) == "" {
		return ErrInvalidPatient
	}
	return nil
}

func checkCompletion(patientID, taskID string, period int) error {
	if err := checkPatient(patientID); err != nil {
		return err
	}
	if !microtask.Known(taskID) {
		return fmt.Errorf("%w: %q", ErrUnknownTask, taskID)
	}
	if period < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeriod, period)
	}
	return nil
}

func checkFlags(patientID string, flags map[indicators.Condition]bool) error {
	if err := checkPatient(patientID); err != nil {
		return err
	}
	for c := range flags {
		if !knownCondition(c) {
			return fmt.Errorf("%w: %q", ErrUnknownCondition, c)
		}
	}
	return nil
}

func knownCondition(c indicators.Condition) bool {
	for _, k := range indicators.Conditions {
		if k == c {
			return true
		}
	}
	return false
}

func emptyProfile() microtask.PatientProfile {
	return microtask.PatientProfile{
		RiskFlags: map[indicators.Condition]bool{},
		History:   []microtask.Completion{},
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
