package phase

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc evaluates whether a transition should be allowed.
type GuardFunc func(ctx context.Context) bool

type transition struct {
	to    Phase
	guard GuardFunc
}

// Builder collects the permitted transitions of a machine.
type Builder struct {
	transitions map[Phase]map[Trigger][]transition
}

// Configuration configures the transitions leaving one phase.
type Configuration struct {
	builder *Builder
	from    Phase
}

// Machine tracks the current phase and validates transitions. It is not
// safe for concurrent use; the owning session serialises access.
type Machine struct {
	current     Phase
	transitions map[Phase]map[Trigger][]transition
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{transitions: make(map[Phase]map[Trigger][]transition)}
}

// Configure returns the configuration of the given phase.
func (b *Builder) Configure(from Phase) *Configuration {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid phase: %s", from))
	}
	if _, ok := b.transitions[from]; !ok {
		b.transitions[from] = make(map[Trigger][]transition)
	}
	return &Configuration{builder: b, from: from}
}

// Permit allows trigger to move the machine to the target phase.
func (c *Configuration) Permit(trigger Trigger, to Phase) *Configuration {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows trigger to move the machine to the target phase when the
// guard passes.
func (c *Configuration) PermitIf(trigger Trigger, to Phase, guard GuardFunc) *Configuration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target phase: %s", to))
	}
	c.builder.transitions[c.from][trigger] = append(c.builder.transitions[c.from][trigger], transition{to: to, guard: guard})
	return c
}

// Build creates a machine starting in the initial phase. Later changes to
// the builder do not affect machines already built.
func (b *Builder) Build(initial Phase) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial phase: %s", initial))
	}

	copied := make(map[Phase]map[Trigger][]transition, len(b.transitions))
	for from, byTrigger := range b.transitions {
		copied[from] = make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[from][trigger] = append([]transition{}, ts...)
		}
	}

	return &Machine{current: initial, transitions: copied}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.current
}

// CanFire reports whether trigger has any transition from the current
// phase. Guards are not evaluated.
func (m *Machine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

// Fire applies trigger. The first transition whose guard passes wins.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	ts := m.transitions[m.current][trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns the triggers configured for the current phase,
// sorted by name.
func (m *Machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.transitions[m.current]))
	for trigger := range m.transitions[m.current] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

// NewImportMachine builds the import lifecycle:
//
//	UPLOAD --PARSE_SUCCEEDED--> PREVIEW --START_IMPORT [canImport]--> IMPORTING --IMPORT_FINISHED--> COMPLETE
//
// RESET returns to UPLOAD from every phase.
func NewImportMachine(canImport GuardFunc) *Machine {
	b := NewBuilder()

	b.Configure(Upload).
		Permit(TriggerParseSucceeded, Preview).
		Permit(TriggerReset, Upload)

	b.Configure(Preview).
		PermitIf(TriggerStartImport, Importing, canImport).
		Permit(TriggerReset, Upload)

	b.Configure(Importing).
		Permit(TriggerImportFinished, Complete).
		Permit(TriggerReset, Upload)

	b.Configure(Complete).
		Permit(TriggerReset, Upload)

	return b.Build(Upload)
}
