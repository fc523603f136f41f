// File: internal/bot/factory.go
// Description: Builds the module set from configuration. Each capability has
// variant implementations selected by name; unknown names are configuration
// errors.

package bot

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/browser"
	"github.com/xkilldash9x/spacebot/internal/config"
	"github.com/xkilldash9x/spacebot/internal/strategy"
	"github.com/xkilldash9x/spacebot/internal/vision"
)

// BuildModules assembles the decision modules and ports named in the
// configuration.
func BuildModules(cfg *config.Config, logger *zap.Logger) (Modules, error) {
	var mods Modules

	switch cfg.Modules.Safety {
	case "basic", "":
		mods.Safety = strategy.NewBasicSafety(strategy.SafetyConfig{
			EscapeThreshold:       cfg.Safety.EscapeThreshold,
			WarnDistance:          cfg.Safety.WarnDistance,
			DangerDistance:        cfg.Safety.DangerDistance,
			StationaryWarnTicks:   cfg.Safety.StationaryWarnTicks,
			StationaryEscapeTicks: cfg.Safety.StationaryEscapeTicks,
		}, logger)
	case "dummy":
		mods.Safety = strategy.DummySafety{}
	default:
		return mods, fmt.Errorf("unknown safety module %q", cfg.Modules.Safety)
	}

	switch cfg.Modules.Farm {
	case "basic", "":
		mods.Farm = strategy.NewBasicFarm(strategy.FarmConfig{
			CollectBoxes: cfg.Farm.CollectBoxes,
			HuntNpcs:     cfg.Farm.HuntNpcs,
			NpcPriority:  cfg.Combat.NpcPriority,
		}, logger)
	case "dummy":
		mods.Farm = &strategy.DummyFarm{}
	default:
		return mods, fmt.Errorf("unknown farm module %q", cfg.Modules.Farm)
	}

	switch cfg.Modules.Combat {
	case "basic", "":
		mods.Combat = strategy.NewBasicCombat(strategy.CombatConfig{
			Enabled:           cfg.Combat.Enabled,
			MaxTargetDistance: cfg.Combat.MaxTargetDistance,
			DisengageDistance: cfg.Combat.DisengageDistance,
			MaxTargetTicks:    cfg.Combat.MaxTargetTicks(),
		}, logger)
	case "dummy":
		mods.Combat = strategy.DummyCombat{}
	default:
		return mods, fmt.Errorf("unknown combat module %q", cfg.Modules.Combat)
	}

	mods.Navigation = strategy.NewPatrolNavigation(cfg.Navigation.TickInterval, nil, logger)

	switch cfg.Modules.Vision {
	case "websocket":
		mods.Vision = vision.NewFeed(cfg.Vision.Endpoint, logger)
	case "dummy", "":
		mods.Vision = vision.NewDummy(logger)
	default:
		return mods, fmt.Errorf("unknown vision module %q", cfg.Modules.Vision)
	}

	switch cfg.Modules.Driver {
	case "chromedp":
		mods.Driver = browser.NewChromeDriver(cfg.Game, logger)
	case "log", "":
		mods.Driver = browser.NewLogDriver(logger)
	default:
		return mods, fmt.Errorf("unknown driver %q", cfg.Modules.Driver)
	}

	return mods, nil
}
