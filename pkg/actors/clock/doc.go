// Package clock provides the clock actor, a time source other roles
// depend on through domain.Clock.
package clock
