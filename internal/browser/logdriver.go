// File: internal/browser/logdriver.go
package browser

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// LogDriver is an actuator stub that records actions instead of executing
// them. It is the default driver, used for dry runs and tests.
type LogDriver struct {
	logger *zap.Logger
}

// NewLogDriver creates the stub.
func NewLogDriver(logger *zap.Logger) *LogDriver {
	return &LogDriver{logger: logger.Named("driver")}
}

func (d *LogDriver) Execute(_ context.Context, action *game.Action, state *game.State) error {
	fields := []zap.Field{
		zap.String("type", string(action.Type)),
		zap.Int("tick", state.TickCounter),
	}
	if action.TargetID != "" {
		fields = append(fields, zap.String("target_id", action.TargetID))
	}
	if action.Meta.HasRel() {
		fields = append(fields,
			zap.Float64("rel_x", *action.Meta.RelX),
			zap.Float64("rel_y", *action.Meta.RelY),
		)
	}
	if action.Meta.Reason != "" {
		fields = append(fields, zap.String("reason", action.Meta.Reason))
	}
	d.logger.Info("Would execute action.", fields...)
	return nil
}
