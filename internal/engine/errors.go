package engine

import (
	"fmt"

	"github.com/redbco/redb-indexmeta/internal/indexdef"
)

// ErrUnknownIndex is returned for names that have no registered definition.
var ErrUnknownIndex = indexdef.ErrUnknownIndex

// StepError reports a store failure during one step of a rebuild.
type StepError struct {
	Index string
	Step  string
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("index %s: %s step failed: %v", e.Index, e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
