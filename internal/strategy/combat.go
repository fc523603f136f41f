// File: internal/strategy/combat.go
package strategy

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// CombatConfig tunes the engagement state machine.
type CombatConfig struct {
	Enabled bool
	// MaxTargetDistance is the effective attack range; beyond it the module
	// closes in instead of attacking.
	MaxTargetDistance float64
	// DisengageDistance drops the target outright when it drifts this far.
	DisengageDistance float64
	// MaxTargetTicks caps how long a single target is pursued (0 = unlimited).
	MaxTargetTicks int
}

// BasicCombat drives approach/attack/disengage against the currently held
// target. The three states (no target, approaching, attacking) fall out of
// distance comparisons rather than an explicit enum.
//
// BasicCombat never selects a target; that is the farm module's job.
type BasicCombat struct {
	cfg    CombatConfig
	logger *zap.Logger
}

// NewBasicCombat creates the module.
func NewBasicCombat(cfg CombatConfig, logger *zap.Logger) *BasicCombat {
	return &BasicCombat{cfg: cfg, logger: logger.Named("combat")}
}

// Decide manages the current engagement and emits a MOVE (approach) or
// ATTACK, or nil when there is nothing to fight.
func (c *BasicCombat) Decide(state *game.State) *game.Action {
	if !c.cfg.Enabled {
		// Inert, but it must not disturb the farm module's selection
		// beyond clearing the combat flag.
		state.InCombat = false
		return nil
	}

	if state.CurrentTargetID == "" {
		state.InCombat = false
		state.TicksWithCurrentTarget = 0
		return nil
	}

	target := state.TargetNpc()
	if target == nil {
		c.logger.Info("Target lost, disengaging.",
			zap.String("target_id", state.CurrentTargetID))
		state.ClearTarget()
		return nil
	}

	dist := state.Ship.Position.Dist(target.Position)

	if dist >= c.cfg.DisengageDistance ||
		(c.cfg.MaxTargetTicks > 0 && state.TicksWithCurrentTarget >= c.cfg.MaxTargetTicks) {
		c.logger.Info("Disengaging from target.",
			zap.String("target_id", target.ID),
			zap.Float64("distance", dist),
			zap.Int("ticks_on_target", state.TicksWithCurrentTarget),
		)
		state.ClearTarget()
		return nil
	}

	state.InCombat = true
	state.TicksWithCurrentTarget++

	if dist > c.cfg.MaxTargetDistance {
		dx, dy := 0.0, 0.0
		if dist > 0 {
			dx = (target.Position.X - state.Ship.Position.X) / dist
			dy = (target.Position.Y - state.Ship.Position.Y) / dist
		}
		return &game.Action{
			Type:     game.ActionMove,
			TargetID: target.ID,
			Meta: game.Meta{
				DirX:   game.Float64(dx),
				DirY:   game.Float64(dy),
				Reason: "approach_target",
			},
		}
	}

	return &game.Action{
		Type:     game.ActionAttack,
		TargetID: target.ID,
		Meta:     game.Meta{Reason: "attack_target"},
	}
}

// DummyCombat never initiates fights.
type DummyCombat struct{}

func (DummyCombat) Decide(*game.State) *game.Action { return nil }
