// Package domain holds the shared vocabulary of a dagsys composition.
//
// A composition is described by a Blueprint: a set of named roles, a
// human-readable description per role, and for each role either an initial
// component or a producer plus the set of roles it depends on.
//
// Components are opaque values. A component that implements Actor can
// receive its dependencies through Inject and takes part in ordered
// startup and shutdown; every other value is a passive leaf that others may
// depend on but that may not declare dependencies itself.
//
// Actors are value-like: Inject, Start and Stop return the instance that
// represents the actor afterwards, and callers must keep using the returned
// value rather than the receiver.
//
// Example usage:
//
//	bp, err := domain.Build(
//	    map[domain.Role]string{
//	        "clock": "wall clock",
//	        "db":    "key-value store",
//	    },
//	    map[domain.Role]domain.RoleSpec{
//	        "clock": {Initial: clock.New(logger)},
//	        "db":    {Initial: database.NewMemory(logger).WithClock("clock"), DependsOn: []domain.Role{"clock"}},
//	    },
//	)
package domain
