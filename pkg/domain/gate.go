package domain

import "reflect"

// Capability classifies a component.
type Capability int

const (
	// CapabilityPassive marks a lifecycle-free leaf value.
	CapabilityPassive Capability = iota
	// CapabilityActor marks a component implementing Actor.
	CapabilityActor
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapabilityActor:
		return "actor"
	default:
		return "passive"
	}
}

// Classify reports whether c satisfies the Actor contract. A nil component is
// passive.
func Classify(c Component) Capability {
	if _, ok := AsActor(c); ok {
		return CapabilityActor
	}
	return CapabilityPassive
}

// AsActor returns c as an Actor when it implements the contract.
func AsActor(c Component) (Actor, bool) {
	if c == nil {
		return nil, false
	}
	a, ok := c.(Actor)
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

// IsNilInstance reports whether an actor handed back by a lifecycle call is
// unusable: an untyped nil or a nil pointer, map, func, chan or slice behind
// the interface.
func IsNilInstance(a Actor) bool {
	if a == nil {
		return true
	}
	v := reflect.ValueOf(a)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
