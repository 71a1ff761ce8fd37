package domain

import "fmt"

// Dependencies is an immutable record of injected components keyed by role.
// Actor implementations embed it to keep value semantics: With never mutates
// the receiver.
type Dependencies struct {
	m map[Role]Component
}

// With returns a copy of d holding dep under role. A second injection of the
// same role replaces the first.
func (d Dependencies) With(role Role, dep Component) Dependencies {
	next := make(map[Role]Component, len(d.m)+1)
	for k, v := range d.m {
		next[k] = v
	}
	next[role] = dep
	return Dependencies{m: next}
}

// Get returns the component injected for role.
func (d Dependencies) Get(role Role) (Component, bool) {
	c, ok := d.m[role]
	return c, ok
}

// Len returns the number of injected roles.
func (d Dependencies) Len() int {
	return len(d.m)
}

// DependencyError reports a missing or mistyped injected dependency.
type DependencyError struct {
	Role   Role
	Reason string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %q: %s", e.Role, e.Reason)
}

// Lookup fetches the dependency injected for role and asserts it to T.
func Lookup[T any](d Dependencies, role Role) (T, error) {
	var zero T
	c, ok := d.Get(role)
	if !ok {
		return zero, &DependencyError{Role: role, Reason: "not injected"}
	}
	v, ok := c.(T)
	if !ok {
		return zero, &DependencyError{Role: role, Reason: fmt.Sprintf("unexpected type %T", c)}
	}
	return v, nil
}
