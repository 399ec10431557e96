// Package phase holds the lifecycle state machine of an import session.
package phase

import "errors"

// Phase is a step in the import lifecycle.
type Phase string

const (
	Upload    Phase = "UPLOAD"
	Preview   Phase = "PREVIEW"
	Importing Phase = "IMPORTING"
	Complete  Phase = "COMPLETE"
)

var validPhases = map[Phase]bool{
	Upload:    true,
	Preview:   true,
	Importing: true,
	Complete:  true,
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid returns true if p is a known phase.
func (p Phase) IsValid() bool {
	return validPhases[p]
}

// Trigger is an event that moves a session between phases.
type Trigger string

const (
	TriggerParseSucceeded Trigger = "PARSE_SUCCEEDED"
	TriggerStartImport    Trigger = "START_IMPORT"
	TriggerImportFinished Trigger = "IMPORT_FINISHED"
	TriggerReset          Trigger = "RESET"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in
	// the current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrGuardFailed is returned when every guarded transition of a trigger
	// refused.
	ErrGuardFailed = errors.New("guard condition failed")
)
