// File: internal/browser/driver_test.go
package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/config"
	"github.com/xkilldash9x/spacebot/internal/game"
)

func TestChromeDriverExecuteBeforeStart(t *testing.T) {
	d := NewChromeDriver(config.GameConfig{ActionRate: 3}, zap.NewNop())
	err := d.Execute(context.Background(), &game.Action{Type: game.ActionMove}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestChromeDriverStartWithoutURL(t *testing.T) {
	d := NewChromeDriver(config.GameConfig{ActionRate: 3}, zap.NewNop())
	err := d.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is not configured")
}

func TestChromeDriverStopBeforeStart(t *testing.T) {
	d := NewChromeDriver(config.GameConfig{ActionRate: 3}, zap.NewNop())
	assert.NoError(t, d.Stop(context.Background()), "stop must be safe without a browser")
}

func TestLogDriverAcceptsEveryActionType(t *testing.T) {
	d := NewLogDriver(zap.NewNop())
	ship := &game.Ship{ID: "player-1", HP: 100, MaxHP: 100}
	state := game.NewState(ship, "1-1")

	for _, at := range []game.ActionType{
		game.ActionIdle, game.ActionMove, game.ActionAttack, game.ActionCollect,
		game.ActionJump, game.ActionRepair, game.ActionEscape, "made_up",
	} {
		action := &game.Action{
			Type:     at,
			TargetID: "npc-1",
			Meta:     game.Meta{RelX: game.Float64(0.5), RelY: game.Float64(0.5), Reason: "test"},
		}
		assert.NoError(t, d.Execute(context.Background(), action, state), "type %s", at)
	}
}
