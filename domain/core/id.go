package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID tags one analyser invocation in logs and metrics
type RunID ID

func (id RunID) String() string { return ID(id).String() }

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseExperimentID validates an experiment identifier
func ParseExperimentID(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: experiment ID cannot be empty", ErrInvalidKey)
	}
	return s, nil
}

// ParseTrialID validates a trial identifier
func ParseTrialID(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: trial ID cannot be empty", ErrInvalidKey)
	}
	return s, nil
}

// ExperimentFromTrial derives the experiment id from a trial id of the form
// "<experiment>_<n>". Ids without a separator are returned unchanged.
func ExperimentFromTrial(trialID string) string {
	if i := strings.Index(trialID, "_"); i > 0 {
		return trialID[:i]
	}
	return trialID
}
