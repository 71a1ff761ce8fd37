package domain

import "time"

// EventType identifies a lifecycle or actor event.
type EventType string

const (
	EventTypeSystemStarting EventType = "system.starting"
	EventTypeSystemStarted  EventType = "system.started"
	EventTypeSystemStopping EventType = "system.stopping"
	EventTypeSystemStopped  EventType = "system.stopped"
	EventTypeSystemFailed   EventType = "system.failed"

	EventTypeRoleInjected EventType = "role.injected"
	EventTypeRoleStarted  EventType = "role.started"
	EventTypeRoleStopped  EventType = "role.stopped"
	EventTypeRoleFailed   EventType = "role.failed"

	EventTypeTick EventType = "tick"
)

// Event is the unit carried by an event bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Role      Role                   `json:"role,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}
