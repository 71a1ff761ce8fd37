package domain

import (
	"fmt"
	"strings"
)

// MissingDependency is a dependency edge whose target role was never
// declared. An empty Dependency means Role itself has a spec but no
// description.
type MissingDependency struct {
	Role       Role
	Dependency Role
}

// ValidationError lists every dependency edge that points outside the
// declared roles.
type ValidationError struct {
	Missing []MissingDependency
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		if m.Dependency == "" {
			parts = append(parts, fmt.Sprintf("%s (undeclared role)", m.Role))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s -> %s", m.Role, m.Dependency))
	}
	return fmt.Sprintf("undeclared dependencies: %s", strings.Join(parts, ", "))
}

// CyclicDependencyError reports a dependency cycle. Cycle lists the roles on
// the cycle in edge order, each depending on the previous one.
type CyclicDependencyError struct {
	Cycle []Role
}

func (e *CyclicDependencyError) Error() string {
	parts := make([]string, 0, len(e.Cycle)+1)
	for _, r := range e.Cycle {
		parts = append(parts, string(r))
	}
	if len(e.Cycle) > 0 {
		parts = append(parts, string(e.Cycle[0]))
	}
	return fmt.Sprintf("dependency cycle: %s", strings.Join(parts, " -> "))
}

// CompositionError reports passive components that declare dependencies.
type CompositionError struct {
	Roles []Role
}

func (e *CompositionError) Error() string {
	parts := make([]string, 0, len(e.Roles))
	for _, r := range e.Roles {
		parts = append(parts, string(r))
	}
	return fmt.Sprintf("non-actor components declare dependencies: %s", strings.Join(parts, ", "))
}

// LifecycleOrderError reports a lifecycle operation invoked from a state that
// does not allow it.
type LifecycleOrderError struct {
	Op    string
	State State
}

func (e *LifecycleOrderError) Error() string {
	return fmt.Sprintf("cannot %s system in state %s", e.Op, e.State)
}

// StartupPhase names the step of Start in which a role failed.
type StartupPhase string

const (
	PhaseProduce StartupPhase = "produce"
	PhaseInject  StartupPhase = "inject"
	PhaseStart   StartupPhase = "start"
)

// StartupFailure wraps the error of a role that failed during Start.
type StartupFailure struct {
	Role  Role
	Phase StartupPhase
	Err   error
}

func (e *StartupFailure) Error() string {
	return fmt.Sprintf("role %s: %s failed: %v", e.Role, e.Phase, e.Err)
}

func (e *StartupFailure) Unwrap() error {
	return e.Err
}

// ShutdownFailure wraps the error of a role that failed during Stop.
type ShutdownFailure struct {
	Role Role
	Err  error
}

func (e *ShutdownFailure) Error() string {
	return fmt.Sprintf("role %s: stop failed: %v", e.Role, e.Err)
}

func (e *ShutdownFailure) Unwrap() error {
	return e.Err
}
