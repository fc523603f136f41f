// File: internal/bot/runner.go
// Description: The tick-driven decision loop. Each tick it refreshes the
// world model through the perception port, queries the decision modules in
// strict priority order (safety > farm > combat > navigation), dispatches at
// most one action to the actuator, and advances the tick bookkeeping.

package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/config"
	"github.com/xkilldash9x/spacebot/internal/game"
	"github.com/xkilldash9x/spacebot/internal/strategy"
)

// Stop reasons recorded on Result.
const (
	StopNormal     = "normal"
	StopMaxTicks   = "max_ticks reached"
	StopMaxSeconds = "max_seconds reached"
	StopCancelled  = "cancelled"
	StopInternal   = "internal error"
)

// Recorder receives run telemetry. Implementations must never fail the run;
// they log their own errors.
type Recorder interface {
	RecordAction(tick int, source string, action *game.Action)
	RecordFinish(stopReason string, totalTicks int)
}

// Result describes how a run ended.
type Result struct {
	StopReason string
	Ticks      int
}

// Runner owns the decision loop and the world model it operates on.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
	state  *game.State

	vision     strategy.Vision
	safety     strategy.Safety
	farm       strategy.Farm
	combat     strategy.Combat
	navigation strategy.Navigation
	driver     strategy.Driver

	// modeSwitcher is the navigation module's optional capability, resolved
	// once at construction.
	modeSwitcher strategy.ModeSwitcher

	recorder Recorder // optional, nil = disabled

	rng *rand.Rand
	// sleep and now are injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// Modules bundles the collaborators a Runner needs.
type Modules struct {
	Vision     strategy.Vision
	Safety     strategy.Safety
	Farm       strategy.Farm
	Combat     strategy.Combat
	Navigation strategy.Navigation
	Driver     strategy.Driver
}

// NewRunner creates a Runner around an existing world model. All module
// dependencies are required; the recorder may be nil.
func NewRunner(cfg *config.Config, logger *zap.Logger, state *game.State, mods Modules, recorder Recorder) (*Runner, error) {
	if cfg == nil || logger == nil || state == nil {
		return nil, errors.New("cannot initialize runner with nil config, logger or state")
	}
	if mods.Vision == nil || mods.Safety == nil || mods.Farm == nil ||
		mods.Combat == nil || mods.Navigation == nil || mods.Driver == nil {
		return nil, errors.New("cannot initialize runner with nil modules")
	}

	r := &Runner{
		cfg:        cfg,
		logger:     logger.Named("runner"),
		state:      state,
		vision:     mods.Vision,
		safety:     mods.Safety,
		farm:       mods.Farm,
		combat:     mods.Combat,
		navigation: mods.Navigation,
		driver:     mods.Driver,
		recorder:   recorder,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      sleepCtx,
		now:        time.Now,
	}
	if ms, ok := mods.Navigation.(strategy.ModeSwitcher); ok {
		r.modeSwitcher = ms
	}
	return r, nil
}

// Run performs the bootstrap sequence and then the main loop. It returns an
// error only for fatal pre-loop conditions (bootstrap or configuration
// failures); everything inside the loop is recovered and reflected in the
// Result instead. Actuator shutdown is attempted on every exit path.
func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	defer r.shutdown()

	if err := r.bootstrap(ctx); err != nil {
		return Result{StopReason: "bootstrap failed"}, err
	}

	r.logger.Info("Starting main loop.",
		zap.Int("max_ticks", r.cfg.Runtime.MaxTicks),
		zap.Float64("max_seconds", r.cfg.Runtime.MaxSeconds),
		zap.String("map", r.state.CurrentMap),
	)

	start := r.now()
	stopReason := StopNormal

	for ticks := 0; ; ticks++ {
		if ticks >= r.cfg.Runtime.MaxTicks {
			stopReason = StopMaxTicks
			break
		}
		if r.cfg.Runtime.MaxSeconds > 0 && r.now().Sub(start).Seconds() >= r.cfg.Runtime.MaxSeconds {
			stopReason = StopMaxSeconds
			break
		}
		if ctx.Err() != nil {
			stopReason = StopCancelled
			break
		}

		if err := r.runTick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				stopReason = StopCancelled
			} else {
				// Unexpected failure in the loop's own bookkeeping: treat
				// as a request to stop, not a crash.
				r.logger.Error("Tick bookkeeping failed, stopping run.", zap.Error(err))
				stopReason = StopInternal
			}
			break
		}
	}

	res = Result{StopReason: stopReason, Ticks: r.state.TickCounter}
	r.logger.Info("Main loop finished.",
		zap.String("reason", res.StopReason),
		zap.Int("total_ticks", res.Ticks),
	)
	if r.recorder != nil {
		r.recorder.RecordFinish(res.StopReason, res.Ticks)
	}
	return res, nil
}

// runTick executes one full tick. The returned error is reserved for the
// loop's own plumbing; module and port failures are recovered inside.
func (r *Runner) runTick(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during tick bookkeeping: %v", rec)
		}
	}()

	tick := r.state.TickCounter
	r.logger.Debug("Tick starting.", zap.Int("tick", tick))

	// 1. Perception refresh. A failure means no observation this tick.
	if visErr := r.updateVision(ctx); visErr != nil {
		r.logger.Warn("Perception update failed; continuing with stale state.",
			zap.Int("tick", tick), zap.Error(visErr))
	}

	// 2. Danger assessment, logged periodically.
	danger := r.assessSafety()
	if tick%10 == 0 {
		r.logger.Info("Safety assessment.", zap.Int("tick", tick), zap.Int("danger", danger))
	}

	// 3. Safety has the highest priority; when it fires, everything below is
	// skipped for this tick.
	if action := r.decide("safety", r.safety.Decide); action != nil {
		if r.modeSwitcher != nil {
			r.modeSwitcher.EnterEscapeMode()
		}
		r.dispatch(ctx, "safety", action)
		return r.finishTick(ctx)
	}

	// 4. Safe: make sure navigation is back to patrolling.
	if r.modeSwitcher != nil {
		r.modeSwitcher.EnterPatrolMode()
	}

	if action := r.decide("farm", r.farm.Decide); action != nil {
		r.dispatch(ctx, "farm", action)
		return r.finishTick(ctx)
	}

	if action := r.decide("combat", r.combat.Decide); action != nil {
		r.dispatch(ctx, "combat", action)
		return r.finishTick(ctx)
	}

	// Navigation is the fallback; its action does not short-circuit the
	// common tick advance.
	if action := r.decide("navigation", func(s *game.State) *game.Action { return r.navigation.Tick(s) }); action != nil {
		r.dispatch(ctx, "navigation", action)
	}
	return r.finishTick(ctx)
}

// finishTick advances the shared bookkeeping and performs the randomized
// inter-tick delay. The delay is the loop's only intentional suspension point
// and honors context cancellation.
func (r *Runner) finishTick(ctx context.Context) error {
	r.state.AdvanceTick()

	min, max := r.cfg.Runtime.MinTickDelay(), r.cfg.Runtime.MaxTickDelay()
	delay := min
	if max > min {
		delay = min + time.Duration(r.rng.Int63n(int64(max-min)))
	}
	return r.sleep(ctx, delay)
}

// updateVision calls the perception port with panic isolation.
func (r *Runner) updateVision(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in perception port: %v", rec)
		}
	}()
	return r.vision.UpdateState(ctx, r.state)
}

// assessSafety calls Safety.Assess with panic isolation; a panicking module
// reports zero danger for the tick.
func (r *Runner) assessSafety() (danger int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic recovered in safety assessment.", zap.Any("panic_value", rec))
			danger = 0
		}
	}()
	return r.safety.Assess(r.state)
}

// decide invokes one module's Decide with panic isolation. A panicking module
// contributes no action this tick; the loop continues.
func (r *Runner) decide(name string, fn func(*game.State) *game.Action) (action *game.Action) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic recovered in decision module.",
				zap.String("module", name),
				zap.Any("panic_value", rec),
			)
			action = nil
		}
	}()
	return fn(r.state)
}

// dispatch hands the tick's single action to the actuator. Failures are
// logged and swallowed; the action simply did not happen.
func (r *Runner) dispatch(ctx context.Context, source string, action *game.Action) {
	r.logger.Info("Dispatching action.",
		zap.String("module", source),
		zap.String("type", string(action.Type)),
		zap.String("target_id", action.TargetID),
		zap.String("reason", action.Meta.Reason),
	)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic recovered in actuator.",
				zap.String("module", source), zap.Any("panic_value", rec))
		}
	}()

	if err := r.driver.Execute(ctx, action, r.state); err != nil {
		r.logger.Warn("Actuator failed to execute action.",
			zap.String("module", source),
			zap.String("type", string(action.Type)),
			zap.Error(err),
		)
		return
	}

	if r.recorder != nil {
		r.recorder.RecordAction(r.state.TickCounter, source, action)
	}
}

// bootstrap runs the optional start/login/enter-game sequence on the
// actuator. Any failure here aborts the run before the first tick.
func (r *Runner) bootstrap(ctx context.Context) error {
	if starter, ok := r.driver.(strategy.Starter); ok {
		r.logger.Info("Starting driver.")
		if err := starter.Start(ctx); err != nil {
			return fmt.Errorf("driver start failed: %w", err)
		}
	}

	loggedIn := false
	if auth, ok := r.driver.(strategy.Authenticator); ok {
		username, password := r.cfg.Game.Username, r.cfg.Game.Password
		if username == "" || password == "" {
			return errors.New("username or password missing in configuration; cannot perform login")
		}
		r.logger.Info("Attempting login.", zap.String("username", username))
		ok, err := auth.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if !ok {
			return errors.New("login rejected")
		}
		loggedIn = true
		r.logger.Info("Login successful.", zap.String("map", r.state.CurrentMap))
	}

	if enterer, ok := r.driver.(strategy.GameEnterer); ok {
		if !loggedIn {
			r.logger.Info("Driver supports entering the game but no login was performed; skipping.")
			return nil
		}
		r.logger.Info("Entering game view.")
		ok, err := enterer.EnterGame(ctx)
		if err != nil {
			return fmt.Errorf("enter game failed: %w", err)
		}
		if !ok {
			return errors.New("enter game rejected")
		}
	}
	return nil
}

// shutdown gives the actuator its best-effort stop signal. Failures are
// logged, never re-raised; this runs on every exit path.
func (r *Runner) shutdown() {
	stopper, ok := r.driver.(strategy.Stopper)
	if !ok {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic recovered during driver shutdown.", zap.Any("panic_value", rec))
		}
	}()

	// Use a fresh context: the run context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r.logger.Info("Stopping driver.")
	if err := stopper.Stop(ctx); err != nil {
		r.logger.Error("Error while stopping driver.", zap.Error(err))
	}
}

// sleepCtx is a cancellable sleep.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
