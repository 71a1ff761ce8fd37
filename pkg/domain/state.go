package domain

// State is the lifecycle state of a system.
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateStarted
	StateStopping
	StateStopped
	StateFailed
)

var stateNames = map[State]string{
	StateNotStarted: "not_started",
	StateStarting:   "starting",
	StateStarted:    "started",
	StateStopping:   "stopping",
	StateStopped:    "stopped",
	StateFailed:     "failed",
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

// RolePhase tracks where a single role is in the lifecycle.
type RolePhase string

const (
	RolePhasePending RolePhase = "pending"
	RolePhaseStarted RolePhase = "started"
	RolePhaseStopped RolePhase = "stopped"
	RolePhaseFailed  RolePhase = "failed"
)

// RoleStatus describes one role in a SystemStatus snapshot.
type RoleStatus struct {
	Role        Role      `json:"role"`
	Description string    `json:"description"`
	Capability  string    `json:"capability"`
	Phase       RolePhase `json:"phase"`
	DependsOn   []Role    `json:"depends_on,omitempty"`
}

// SystemStatus is a point-in-time view of a system.
type SystemStatus struct {
	State string       `json:"state"`
	Roles []RoleStatus `json:"roles"`
}

// Count returns the number of roles in phase.
func (s SystemStatus) Count(phase RolePhase) int {
	n := 0
	for _, r := range s.Roles {
		if r.Phase == phase {
			n++
		}
	}
	return n
}
