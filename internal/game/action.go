// File: internal/game/action.go
package game

// ActionType enumerates the high-level actions decision modules can produce.
type ActionType string

const (
	ActionIdle    ActionType = "idle"
	ActionMove    ActionType = "move"
	ActionAttack  ActionType = "attack"
	ActionCollect ActionType = "collect"
	ActionJump    ActionType = "jump"
	ActionRepair  ActionType = "repair"
	ActionEscape  ActionType = "escape"
)

// Meta carries producer-specific hints to the actuator. It is the closed,
// typed equivalent of a free-form annotation map: every field is optional and
// consumers must treat the zero value as "absent", never as an error.
type Meta struct {
	// RelX/RelY are a normalized click target in [0,1]. They are only
	// meaningful together.
	RelX *float64
	RelY *float64

	// DirX/DirY form a unit vector toward the combat target.
	DirX *float64
	DirY *float64

	// Escape marks the action as a flight toward the safe point.
	Escape bool

	// Reason is a human-readable tag for logs and telemetry.
	Reason string

	// Danger is the safety score that triggered an escape action.
	Danger int

	// WaypointIndex identifies the patrol waypoint being approached.
	WaypointIndex *int

	TargetResourceID   string
	TargetResourceKind string
}

// HasRel reports whether the meta carries a complete normalized click target.
func (m Meta) HasRel() bool {
	return m.RelX != nil && m.RelY != nil
}

// Action is the single value a decision module may emit per tick. Actions are
// created fresh, handed to the actuator, and never retained.
type Action struct {
	Type     ActionType
	TargetID string
	Position *Position
	Meta     Meta
}

// Float64 returns a pointer to v, for filling optional Meta fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for filling optional Meta fields.
func Int(v int) *int { return &v }
