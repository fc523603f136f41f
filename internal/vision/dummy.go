// File: internal/vision/dummy.go
package vision

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// Dummy is a perception stub for dry runs: it observes nothing and leaves the
// world model untouched.
type Dummy struct {
	logger *zap.Logger
}

// NewDummy creates the stub.
func NewDummy(logger *zap.Logger) *Dummy {
	return &Dummy{logger: logger.Named("vision")}
}

func (d *Dummy) UpdateState(ctx context.Context, state *game.State) error {
	d.logger.Debug("Dummy vision: nothing observed.", zap.Int("tick", state.TickCounter))
	return nil
}

func (d *Dummy) Snapshot(context.Context) ([]byte, error) { return nil, nil }
