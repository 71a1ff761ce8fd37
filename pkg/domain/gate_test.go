package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pointerActor struct{}

func (a *pointerActor) Inject(Role, Component) (Actor, error) { return a, nil }
func (a *pointerActor) Start(context.Context) (Actor, error) { return a, nil }
func (a *pointerActor) Stop(context.Context) (Actor, error) { return a, nil }

func TestClassify(t *testing.T) {
	var nilActor *pointerActor

	tests := []struct {
		name     string
		c        Component
		expected Capability
	}{
		{"nil", nil, CapabilityPassive},
		{"string", "config", CapabilityPassive},
		{"map", map[string]int{}, CapabilityPassive},
		{"value actor", stubActor{"a"}, CapabilityActor},
		{"pointer actor", &pointerActor{}, CapabilityActor},
		{"typed nil pointer actor", nilActor, CapabilityActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.c))
		})
	}
}

func TestAsActor(t *testing.T) {
	a, ok := AsActor(stubActor{"x"})
	require.True(t, ok)
	assert.Equal(t, stubActor{"x"}, a)

	a, ok = AsActor(nil)
	assert.False(t, ok)
	assert.Nil(t, a)

	_, ok = AsActor(12)
	assert.False(t, ok)
}

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "actor", CapabilityActor.String())
	assert.Equal(t, "passive", CapabilityPassive.String())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", StateNotStarted.String())
	assert.Equal(t, "started", StateStarted.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())

	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateStopped.Terminal())
	assert.False(t, StateStarted.Terminal())
}

func TestDependencies(t *testing.T) {
	var d Dependencies
	assert.Equal(t, 0, d.Len())

	d1 := d.With("clock", "first")
	d2 := d1.With("clock", "second").With("bus", 7)

	assert.Equal(t, 0, d.Len(), "With never mutates the receiver")
	assert.Equal(t, 1, d1.Len())
	assert.Equal(t, 2, d2.Len())

	v, ok := d1.Get("clock")
	require.True(t, ok)
	assert.Equal(t, "first", v)

	s, err := Lookup[string](d2, "clock")
	require.NoError(t, err)
	assert.Equal(t, "second", s, "last injection wins")

	_, err = Lookup[string](d2, "bus")
	var depErr *DependencyError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, Role("bus"), depErr.Role)
	assert.Contains(t, depErr.Reason, "unexpected type int")

	_, err = Lookup[string](d2, "db")
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, "not injected", depErr.Reason)
}

func TestErrorMessages(t *testing.T) {
	cause := errors.New("refused")

	startup := &StartupFailure{Role: "db", Phase: PhaseStart, Err: cause}
	assert.EqualError(t, startup, "role db: start failed: refused")
	assert.ErrorIs(t, startup, cause)

	shutdown := &ShutdownFailure{Role: "web", Err: cause}
	assert.EqualError(t, shutdown, "role web: stop failed: refused")
	assert.ErrorIs(t, shutdown, cause)

	order := &LifecycleOrderError{Op: "stop", State: StateNotStarted}
	assert.EqualError(t, order, "cannot stop system in state not_started")

	cycle := &CyclicDependencyError{Cycle: []Role{"a", "b", "c"}}
	assert.EqualError(t, cycle, "dependency cycle: a -> b -> c -> a")

	comp := &CompositionError{Roles: []Role{"x", "y"}}
	assert.EqualError(t, comp, "non-actor components declare dependencies: x, y")
}

func TestIsNilInstance(t *testing.T) {
	var nilPointer *pointerActor
	var nilInterface Actor

	assert.True(t, IsNilInstance(nilInterface))
	assert.True(t, IsNilInstance(nilPointer))
	assert.False(t, IsNilInstance(&pointerActor{}))
	assert.False(t, IsNilInstance(stubActor{"a"}))
}
