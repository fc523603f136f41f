// File: internal/strategy/safety.go
package strategy

import (
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// SafetyConfig holds the thresholds for the danger heuristic.
type SafetyConfig struct {
	// EscapeThreshold is the score at or above which Decide fires.
	EscapeThreshold int
	// WarnDistance and DangerDistance apply to the magnitude of either
	// position axis.
	WarnDistance   float64
	DangerDistance float64
	// StationaryWarnTicks and StationaryEscapeTicks are streak lengths of
	// consecutive assessments with an unmoved ship.
	StationaryWarnTicks   int
	StationaryEscapeTicks int
	// Epsilon is the movement below which the ship counts as stationary.
	Epsilon float64
}

// DefaultSafetyConfig returns the tuning the bot ships with.
func DefaultSafetyConfig() SafetyConfig {
	return SafetyConfig{
		EscapeThreshold:       70,
		WarnDistance:          0.75,
		DangerDistance:        0.9,
		StationaryWarnTicks:   30,
		StationaryEscapeTicks: 100,
		Epsilon:               1e-3,
	}
}

// BasicSafety scores the current risk and emits an escape action when the
// score crosses the escape threshold. It keeps private cross-tick state (last
// observed position, stationary streak) that belongs to the instance, not the
// world model.
type BasicSafety struct {
	cfg    SafetyConfig
	logger *zap.Logger

	lastPos         *game.Position
	stationaryTicks int
}

// NewBasicSafety creates the module. Zero-valued config fields fall back to
// the defaults.
func NewBasicSafety(cfg SafetyConfig, logger *zap.Logger) *BasicSafety {
	def := DefaultSafetyConfig()
	if cfg.EscapeThreshold <= 0 {
		cfg.EscapeThreshold = def.EscapeThreshold
	}
	if cfg.WarnDistance <= 0 {
		cfg.WarnDistance = def.WarnDistance
	}
	if cfg.DangerDistance <= 0 {
		cfg.DangerDistance = def.DangerDistance
	}
	if cfg.StationaryWarnTicks <= 0 {
		cfg.StationaryWarnTicks = def.StationaryWarnTicks
	}
	if cfg.StationaryEscapeTicks <= 0 {
		cfg.StationaryEscapeTicks = def.StationaryEscapeTicks
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	return &BasicSafety{cfg: cfg, logger: logger.Named("safety")}
}

// Assess returns the additive danger score, clamped to [0,100].
func (s *BasicSafety) Assess(state *game.State) int {
	score := 0

	if ratio := state.Ship.HPRatio(); ratio <= 0.3 {
		score += 60
	} else if ratio <= 0.6 {
		score += 30
	}

	pos := state.Ship.Position
	switch mag := math.Max(math.Abs(pos.X), math.Abs(pos.Y)); {
	case mag >= s.cfg.DangerDistance:
		score += 40
	case mag >= s.cfg.WarnDistance:
		score += 20
	}

	s.trackStationary(pos)
	if s.stationaryTicks >= s.cfg.StationaryEscapeTicks {
		score += 40
	} else if s.stationaryTicks >= s.cfg.StationaryWarnTicks {
		score += 20
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Decide returns an escape-flagged MOVE toward the map center iff the danger
// score is at or above the escape threshold. The equivalence with Assess is
// part of the module contract.
func (s *BasicSafety) Decide(state *game.State) *game.Action {
	danger := s.Assess(state)
	if danger < s.cfg.EscapeThreshold {
		return nil
	}

	s.logger.Warn("Danger threshold crossed, escaping to safe point.",
		zap.Int("danger", danger),
		zap.Int("threshold", s.cfg.EscapeThreshold),
	)

	return &game.Action{
		Type: game.ActionMove,
		Meta: game.Meta{
			RelX:   game.Float64(0.5),
			RelY:   game.Float64(0.5),
			Escape: true,
			Danger: danger,
			Reason: "danger_escape",
		},
	}
}

// trackStationary updates the stationary streak against the last observed
// position. The first observation resets the streak.
func (s *BasicSafety) trackStationary(pos game.Position) {
	if s.lastPos == nil {
		s.lastPos = &game.Position{X: pos.X, Y: pos.Y}
		s.stationaryTicks = 0
		return
	}
	if pos.Dist(*s.lastPos) <= s.cfg.Epsilon {
		s.stationaryTicks++
	} else {
		s.stationaryTicks = 0
	}
	s.lastPos.X, s.lastPos.Y = pos.X, pos.Y
}

// DummySafety always reports zero danger. Useful for dry runs and tests.
type DummySafety struct{}

func (DummySafety) Assess(*game.State) int          { return 0 }
func (DummySafety) Decide(*game.State) *game.Action { return nil }
