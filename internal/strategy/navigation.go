// File: internal/strategy/navigation.go
package strategy

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// Navigation modes.
const (
	modePatrol = "patrol"
	modeEscape = "escape"
)

// navJitter is the maximum random offset applied to a patrol waypoint on
// each axis; jittered coordinates are clamped back into [0.05, 0.95].
const navJitter = 0.05

// defaultWaypoints is the fixed patrol loop in normalized map coordinates.
var defaultWaypoints = []game.Position{
	{X: 0.2, Y: 0.2},
	{X: 0.8, Y: 0.2},
	{X: 0.8, Y: 0.8},
	{X: 0.2, Y: 0.8},
}

// safePoint is the map center, the destination of all escape movement.
var safePoint = game.Position{X: 0.5, Y: 0.5}

// PatrolNavigation cycles through fixed waypoints while idle and streams
// movement toward the safe point while in escape mode. It satisfies both
// Navigation and the optional ModeSwitcher capability.
type PatrolNavigation struct {
	logger *zap.Logger
	rng    *rand.Rand

	// destination is stored by SetDestination for future use; patrol output
	// does not consult it yet.
	destination *game.Position

	waypoints          []game.Position
	currentIndex       int
	ticksSinceLastMove int
	tickInterval       int
	mode               string
}

// NewPatrolNavigation creates the module. tickInterval is clamped to at
// least 1; rng may be nil, in which case the global source seeds a local one.
func NewPatrolNavigation(tickInterval int, rng *rand.Rand, logger *zap.Logger) *PatrolNavigation {
	if tickInterval < 1 {
		tickInterval = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &PatrolNavigation{
		logger:       logger.Named("navigation"),
		rng:          rng,
		waypoints:    defaultWaypoints,
		tickInterval: tickInterval,
		mode:         modePatrol,
	}
}

// SetDestination stores an absolute goal. Forward-compatibility hook: it does
// not currently influence patrol output.
func (n *PatrolNavigation) SetDestination(pos game.Position) {
	n.logger.Info("Navigation destination set.",
		zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
	n.destination = &pos
}

// EnterPatrolMode switches to patrol. No-op when already patrolling.
func (n *PatrolNavigation) EnterPatrolMode() {
	if n.mode == modePatrol {
		return
	}
	n.mode = modePatrol
	n.ticksSinceLastMove = 0
	n.logger.Info("Navigation entering patrol mode.")
}

// EnterEscapeMode switches to escape. No-op when already escaping.
func (n *PatrolNavigation) EnterEscapeMode() {
	if n.mode == modeEscape {
		return
	}
	n.mode = modeEscape
	n.ticksSinceLastMove = 0
	n.logger.Info("Navigation entering escape mode.")
}

// Mode exposes the current mode for logs and tests.
func (n *PatrolNavigation) Mode() string { return n.mode }

// Tick emits the next movement action, or nil while waiting out the patrol
// interval.
func (n *PatrolNavigation) Tick(state *game.State) *game.Action {
	if n.mode == modeEscape {
		return &game.Action{
			Type: game.ActionMove,
			Meta: game.Meta{
				RelX:   game.Float64(safePoint.X),
				RelY:   game.Float64(safePoint.Y),
				Escape: true,
				Reason: "escape_to_safe_point",
			},
		}
	}

	if len(n.waypoints) == 0 {
		return nil
	}

	n.ticksSinceLastMove++
	if n.ticksSinceLastMove < n.tickInterval {
		return nil
	}
	n.ticksSinceLastMove = 0

	idx := n.currentIndex
	wp := n.waypoints[idx]
	n.currentIndex = (n.currentIndex + 1) % len(n.waypoints)

	relX := clamp(wp.X+(n.rng.Float64()*2-1)*navJitter, 0.05, 0.95)
	relY := clamp(wp.Y+(n.rng.Float64()*2-1)*navJitter, 0.05, 0.95)

	n.logger.Info("Patrolling to waypoint.",
		zap.Int("waypoint_index", idx),
		zap.Float64("rel_x", relX),
		zap.Float64("rel_y", relY),
	)

	return &game.Action{
		Type:     game.ActionMove,
		Position: n.destination,
		Meta: game.Meta{
			RelX:          game.Float64(relX),
			RelY:          game.Float64(relY),
			WaypointIndex: game.Int(idx),
			Reason:        "patrol_waypoint",
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
