// File: cmd/run.go
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/bot"
	"github.com/xkilldash9x/spacebot/internal/game"
	"github.com/xkilldash9x/spacebot/internal/observability"
	"github.com/xkilldash9x/spacebot/internal/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		maxTicks   int
		maxSeconds float64
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot and play until a stop condition is reached.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			logger := observability.GetLogger()
			defer observability.Sync()

			if cmd.Flags().Changed("max-ticks") {
				cfg.Runtime.MaxTicks = maxTicks
			}
			if cmd.Flags().Changed("max-seconds") {
				cfg.Runtime.MaxSeconds = maxSeconds
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ship := &game.Ship{
				ID:        "player-1",
				HP:        100,
				MaxHP:     100,
				Shield:    50,
				MaxShield: 50,
				Speed:     1.0,
			}
			state := game.NewState(ship, cfg.Game.StartMap)

			mods, err := bot.BuildModules(cfg, logger)
			if err != nil {
				return err
			}

			var recorder bot.Recorder
			if cfg.Telemetry.Enabled {
				rec, err := telemetry.Open(cfg.Telemetry.DBPath, logger)
				if err != nil {
					return err
				}
				defer rec.Close()
				recorder = rec
			}

			runner, err := bot.NewRunner(cfg, logger, state, mods, recorder)
			if err != nil {
				return err
			}

			result, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			logger.Info("Run complete.",
				zap.String("stop_reason", result.StopReason),
				zap.Int("total_ticks", result.Ticks),
			)
			return nil
		},
	}

	runCmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "override runtime.max_ticks")
	runCmd.Flags().Float64Var(&maxSeconds, "max-seconds", 0, "override runtime.max_seconds (0 disables)")
	return runCmd
}
