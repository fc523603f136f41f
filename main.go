// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/spacebot/cmd"
	"github.com/xkilldash9x/spacebot/internal/observability"
)

func main() {
	defer observability.Sync()

	// SIGINT/SIGTERM cancel the run context; the loop notices between ticks
	// and exits through the shutdown path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
