// File: internal/strategy/farm.go
package strategy

import (
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// FarmConfig controls the two farm sub-behaviors.
type FarmConfig struct {
	CollectBoxes bool
	HuntNpcs     bool
	// NpcPriority ranks npc types for target selection; earlier entries win.
	// Types absent from the list rank last.
	NpcPriority []string
}

// BasicFarm picks up collectibles and selects combat targets. Target
// selection is a pure side effect on the world model: the combat module acts
// on the selection next tick, so Decide returns nil for it.
//
// BasicFarm never clears a stale target. That recovery lives in the world
// model's tick-advance and in the combat module.
type BasicFarm struct {
	cfg      FarmConfig
	logger   *zap.Logger
	priority map[string]int
}

// NewBasicFarm creates the module and indexes the priority list.
func NewBasicFarm(cfg FarmConfig, logger *zap.Logger) *BasicFarm {
	priority := make(map[string]int, len(cfg.NpcPriority))
	for i, t := range cfg.NpcPriority {
		if _, seen := priority[t]; !seen {
			priority[t] = i
		}
	}
	return &BasicFarm{cfg: cfg, logger: logger.Named("farm"), priority: priority}
}

// Decide tries resource collection first, then target selection. If a target
// is already held it defers entirely to the combat module.
func (f *BasicFarm) Decide(state *game.State) *game.Action {
	if f.cfg.CollectBoxes && len(state.Resources) > 0 {
		return f.collectNearest(state)
	}

	if f.cfg.HuntNpcs && state.CurrentTargetID == "" {
		f.selectTarget(state)
	}
	return nil
}

// collectNearest returns a MOVE toward the closest resource. Ordering is
// deterministic: distance first, id as the tie-break.
func (f *BasicFarm) collectNearest(state *game.State) *game.Action {
	resources := make([]*game.Resource, 0, len(state.Resources))
	for _, r := range state.Resources {
		resources = append(resources, r)
	}
	shipPos := state.Ship.Position
	sort.Slice(resources, func(i, j int) bool {
		di := resources[i].Position.Dist(shipPos)
		dj := resources[j].Position.Dist(shipPos)
		if di != dj {
			return di < dj
		}
		return resources[i].ID < resources[j].ID
	})

	nearest := resources[0]
	f.logger.Info("Collecting nearest resource.",
		zap.String("resource_id", nearest.ID),
		zap.String("kind", nearest.Kind),
		zap.Float64("distance", nearest.Position.Dist(shipPos)),
	)

	pos := nearest.Position
	return &game.Action{
		Type:     game.ActionMove,
		Position: &pos,
		Meta: game.Meta{
			RelX:               game.Float64(pos.X),
			RelY:               game.Float64(pos.Y),
			Reason:             "collect_resource",
			TargetResourceID:   nearest.ID,
			TargetResourceKind: nearest.Kind,
		},
	}
}

// selectTarget picks the best-ranked npc and stores the selection on the
// world model. Npc types missing from the priority list rank last, tied among
// themselves and resolved by id order.
func (f *BasicFarm) selectTarget(state *game.State) {
	if len(state.Npcs) == 0 {
		return
	}

	ids := make([]string, 0, len(state.Npcs))
	for id := range state.Npcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	bestID := ""
	bestRank := len(f.cfg.NpcPriority) + 1
	for _, id := range ids {
		rank, ok := f.priority[state.Npcs[id].Type]
		if !ok {
			rank = len(f.cfg.NpcPriority)
		}
		if rank < bestRank {
			bestRank = rank
			bestID = id
		}
	}

	state.SetTarget(bestID)
	f.logger.Info("Selected combat target.",
		zap.String("target_id", bestID),
		zap.String("npc_type", state.Npcs[bestID].Type),
	)
}

// DummyFarm idles every other call, matching the original stub behavior.
type DummyFarm struct {
	counter int
}

func (f *DummyFarm) Decide(*game.State) *game.Action {
	f.counter++
	if f.counter%2 == 0 {
		return &game.Action{Type: game.ActionIdle, Meta: game.Meta{Reason: "dummy_farm"}}
	}
	return nil
}
