package domain

import "context"

// Role names a slot in a composition. It is the only key used to address
// dependencies and current components.
type Role string

// Component is the opaque value that occupies a role.
type Component = any

// Producer lazily creates the initial component of a role. It is invoked by
// the system right before the role is started, never during construction.
type Producer func() (Component, error)

// Actor is a component that accepts injected dependencies and goes through
// start and stop transitions. Each method returns the instance that is
// authoritative afterwards, which may differ from the receiver.
type Actor interface {
	// Inject records the current component of a dependency role. It is called
	// once per declared dependency before Start and must not block on I/O.
	Inject(role Role, dep Component) (Actor, error)

	// Start acquires the actor's resources.
	Start(ctx context.Context) (Actor, error)

	// Stop releases the actor's resources.
	Stop(ctx context.Context) (Actor, error)
}
