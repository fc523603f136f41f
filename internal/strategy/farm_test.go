// File: internal/strategy/farm_test.go
package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

func newFarmState() *game.State {
	ship := &game.Ship{ID: "player-1", HP: 100, MaxHP: 100}
	return game.NewState(ship, "1-1")
}

func TestFarmCollectsNearestResource(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{CollectBoxes: true, HuntNpcs: true}, zap.NewNop())
	state := newFarmState()
	state.Resources["box-far"] = &game.Resource{
		ID: "box-far", Kind: "cargo", Position: game.Position{X: 0.9, Y: 0.9},
	}
	state.Resources["box-near"] = &game.Resource{
		ID: "box-near", Kind: "bonus", Position: game.Position{X: 0.1, Y: 0.1},
	}

	action := farm.Decide(state)
	require.NotNil(t, action)

	assert.Equal(t, game.ActionMove, action.Type)
	assert.Equal(t, "box-near", action.Meta.TargetResourceID)
	assert.Equal(t, "bonus", action.Meta.TargetResourceKind)
	require.True(t, action.Meta.HasRel())
	assert.InDelta(t, 0.1, *action.Meta.RelX, 1e-9)
	assert.InDelta(t, 0.1, *action.Meta.RelY, 1e-9)
}

func TestFarmResourceTieBreakIsDeterministic(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{CollectBoxes: true}, zap.NewNop())
	state := newFarmState()
	// Two resources at identical distance; the lower id must win every time.
	state.Resources["box-b"] = &game.Resource{ID: "box-b", Position: game.Position{X: 0.2, Y: 0}}
	state.Resources["box-a"] = &game.Resource{ID: "box-a", Position: game.Position{X: 0, Y: 0.2}}

	for i := 0; i < 10; i++ {
		action := farm.Decide(state)
		require.NotNil(t, action)
		assert.Equal(t, "box-a", action.Meta.TargetResourceID)
	}
}

func TestFarmSelectsTargetByPriorityList(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{
		HuntNpcs:    true,
		NpcPriority: []string{"weak_npc", "medium_npc"},
	}, zap.NewNop())
	state := newFarmState()
	state.Npcs["npc-medium"] = &game.Npc{ID: "npc-medium", Type: "medium_npc"}
	state.Npcs["npc-weak"] = &game.Npc{ID: "npc-weak", Type: "weak_npc"}

	action := farm.Decide(state)

	// Selection is a side effect, not an action.
	assert.Nil(t, action)
	assert.Equal(t, "npc-weak", state.CurrentTargetID)
	assert.True(t, state.InCombat)
	assert.Zero(t, state.TicksWithCurrentTarget)
}

func TestFarmUnlistedTypesRankLast(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{
		HuntNpcs:    true,
		NpcPriority: []string{"weak_npc"},
	}, zap.NewNop())
	state := newFarmState()
	state.Npcs["npc-x"] = &game.Npc{ID: "npc-x", Type: "boss_npc"}
	state.Npcs["npc-y"] = &game.Npc{ID: "npc-y", Type: "alien_npc"}

	farm.Decide(state)

	// Both types are unlisted; the tie resolves by id order.
	assert.Equal(t, "npc-x", state.CurrentTargetID)
}

func TestFarmDefersWhenTargetHeld(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{HuntNpcs: true, NpcPriority: []string{"weak_npc"}}, zap.NewNop())
	state := newFarmState()
	state.Npcs["npc-1"] = &game.Npc{ID: "npc-1", Type: "weak_npc"}
	state.Npcs["npc-2"] = &game.Npc{ID: "npc-2", Type: "weak_npc"}
	state.SetTarget("npc-2")

	action := farm.Decide(state)

	assert.Nil(t, action)
	assert.Equal(t, "npc-2", state.CurrentTargetID, "farm must not reselect")
}

func TestFarmDisabledBehaviors(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{}, zap.NewNop())
	state := newFarmState()
	state.Resources["box-1"] = &game.Resource{ID: "box-1", Position: game.Position{X: 0.1}}
	state.Npcs["npc-1"] = &game.Npc{ID: "npc-1", Type: "weak_npc"}

	action := farm.Decide(state)

	assert.Nil(t, action)
	assert.Empty(t, state.CurrentTargetID)
}

func TestFarmResourcesTakePrecedenceOverHunting(t *testing.T) {
	farm := NewBasicFarm(FarmConfig{CollectBoxes: true, HuntNpcs: true}, zap.NewNop())
	state := newFarmState()
	state.Resources["box-1"] = &game.Resource{ID: "box-1", Position: game.Position{X: 0.3}}
	state.Npcs["npc-1"] = &game.Npc{ID: "npc-1", Type: "weak_npc"}

	action := farm.Decide(state)

	require.NotNil(t, action)
	assert.Equal(t, game.ActionMove, action.Type)
	assert.Empty(t, state.CurrentTargetID, "no target selection while collecting")
}

func TestDummyFarmAlternates(t *testing.T) {
	farm := &DummyFarm{}
	state := newFarmState()

	assert.Nil(t, farm.Decide(state))
	action := farm.Decide(state)
	require.NotNil(t, action)
	assert.Equal(t, game.ActionIdle, action.Type)
	assert.Nil(t, farm.Decide(state))
}
