// File: internal/bot/runner_test.go
package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/config"
	"github.com/xkilldash9x/spacebot/internal/game"
	"github.com/xkilldash9x/spacebot/internal/strategy"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- Hand-written module stubs ---

type stubVision struct {
	calls int
	err   error
}

func (v *stubVision) UpdateState(_ context.Context, _ *game.State) error {
	v.calls++
	return v.err
}

func (v *stubVision) Snapshot(_ context.Context) ([]byte, error) { return nil, nil }

type stubSafety struct {
	danger      int
	action      *game.Action
	panicDecide bool

	assessCalls int
	decideCalls int
}

func (s *stubSafety) Assess(_ *game.State) int {
	s.assessCalls++
	return s.danger
}

func (s *stubSafety) Decide(_ *game.State) *game.Action {
	s.decideCalls++
	if s.panicDecide {
		panic("safety module exploded")
	}
	return s.action
}

type stubFarm struct {
	action *game.Action
	calls  int
}

func (f *stubFarm) Decide(_ *game.State) *game.Action {
	f.calls++
	return f.action
}

type stubCombat struct {
	action *game.Action
	calls  int
}

func (c *stubCombat) Decide(_ *game.State) *game.Action {
	c.calls++
	return c.action
}

type stubNavigation struct {
	action *game.Action

	ticks       int
	patrolCalls int
	escapeCalls int
}

func (n *stubNavigation) SetDestination(_ game.Position) {}

func (n *stubNavigation) Tick(_ *game.State) *game.Action {
	n.ticks++
	return n.action
}

func (n *stubNavigation) EnterPatrolMode() { n.patrolCalls++ }
func (n *stubNavigation) EnterEscapeMode() { n.escapeCalls++ }

type executed struct {
	source string
	action *game.Action
}

type stubDriver struct {
	execErr  error
	executes []*game.Action
}

func (d *stubDriver) Execute(_ context.Context, action *game.Action, _ *game.State) error {
	d.executes = append(d.executes, action)
	return d.execErr
}

// stoppableDriver adds the optional lifecycle capabilities on top of the
// plain actuator.
type stoppableDriver struct {
	stubDriver

	startErr   error
	loginOK    bool
	loginErr   error
	enterOK    bool
	enterErr   error
	stopCalls  int
	startCalls int
	loginCalls int
	enterCalls int
}

func (d *stoppableDriver) Start(_ context.Context) error {
	d.startCalls++
	return d.startErr
}

func (d *stoppableDriver) Login(_ context.Context, _, _ string) (bool, error) {
	d.loginCalls++
	return d.loginOK, d.loginErr
}

func (d *stoppableDriver) EnterGame(_ context.Context) (bool, error) {
	d.enterCalls++
	return d.enterOK, d.enterErr
}

func (d *stoppableDriver) Stop(_ context.Context) error {
	d.stopCalls++
	return nil
}

type recordedFinish struct {
	reason string
	ticks  int
}

type stubRecorder struct {
	actions  []executed
	finishes []recordedFinish
}

func (r *stubRecorder) RecordAction(_ int, source string, action *game.Action) {
	r.actions = append(r.actions, executed{source: source, action: action})
}

func (r *stubRecorder) RecordFinish(stopReason string, totalTicks int) {
	r.finishes = append(r.finishes, recordedFinish{reason: stopReason, ticks: totalTicks})
}

// --- Harness ---

type harness struct {
	cfg    *config.Config
	state  *game.State
	vision *stubVision
	safety *stubSafety
	farm   *stubFarm
	combat *stubCombat
	nav    *stubNavigation
}

func newHarness(maxTicks int) *harness {
	cfg := config.NewDefault()
	cfg.Runtime.MaxTicks = maxTicks
	cfg.Runtime.MinTickDelayMs = 0
	cfg.Runtime.MaxTickDelayMs = 0

	ship := &game.Ship{ID: "player-1", HP: 100, MaxHP: 100}
	return &harness{
		cfg:    cfg,
		state:  game.NewState(ship, "1-1"),
		vision: &stubVision{},
		safety: &stubSafety{},
		farm:   &stubFarm{},
		combat: &stubCombat{},
		nav:    &stubNavigation{},
	}
}

func (h *harness) runner(t *testing.T, driver strategy.Driver, recorder Recorder) *Runner {
	t.Helper()
	r, err := NewRunner(h.cfg, zap.NewNop(), h.state, Modules{
		Vision:     h.vision,
		Safety:     h.safety,
		Farm:       h.farm,
		Combat:     h.combat,
		Navigation: h.nav,
		Driver:     driver,
	}, recorder)
	require.NoError(t, err)
	r.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return r
}

func moveAction(reason string) *game.Action {
	return &game.Action{
		Type: game.ActionMove,
		Meta: game.Meta{RelX: game.Float64(0.5), RelY: game.Float64(0.5), Reason: reason},
	}
}

// --- Tests ---

func TestNewRunnerRejectsNilModules(t *testing.T) {
	h := newHarness(1)

	_, err := NewRunner(nil, zap.NewNop(), h.state, Modules{}, nil)
	assert.Error(t, err)

	_, err = NewRunner(h.cfg, zap.NewNop(), h.state, Modules{
		Vision: h.vision, Safety: h.safety, Farm: h.farm,
		Combat: h.combat, Navigation: h.nav, // Driver missing
	}, nil)
	assert.Error(t, err)
}

func TestRunStopsAtMaxTicks(t *testing.T) {
	h := newHarness(5)
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StopMaxTicks, res.StopReason)
	assert.Equal(t, 5, res.Ticks)
	assert.Equal(t, 5, h.state.TickCounter, "tick counter advances exactly once per loop pass")
	assert.Equal(t, 5, h.vision.calls)
	assert.Equal(t, 5, h.safety.assessCalls)
}

func TestRunStopsAtMaxSeconds(t *testing.T) {
	h := newHarness(1000)
	h.cfg.Runtime.MaxSeconds = 10
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	// Each call to now() advances the fake clock by four seconds, so the
	// deadline passes inside the third loop iteration.
	base := time.Now()
	calls := 0
	r.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * 4 * time.Second)
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxSeconds, res.StopReason)
	assert.Less(t, res.Ticks, 1000)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	h := newHarness(1000)
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCancelled, res.StopReason)
	assert.Equal(t, 0, res.Ticks)
}

func TestSafetyPreemptsEverything(t *testing.T) {
	h := newHarness(3)
	h.safety.danger = 95
	h.safety.action = moveAction("danger_escape")
	h.farm.action = moveAction("collect_resource")
	h.combat.action = moveAction("never_reached")
	h.nav.action = moveAction("never_reached")
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxTicks, res.StopReason)

	assert.Equal(t, 3, h.safety.decideCalls)
	assert.Zero(t, h.farm.calls, "farm must not be consulted while safety fires")
	assert.Zero(t, h.combat.calls, "combat must not be consulted while safety fires")
	assert.Zero(t, h.nav.ticks, "navigation must not be consulted while safety fires")
	assert.Equal(t, 3, h.nav.escapeCalls)
	assert.Zero(t, h.nav.patrolCalls)
	assert.Len(t, driver.executes, 3, "exactly one action per tick")
}

func TestFarmPreemptsCombatAndNavigation(t *testing.T) {
	h := newHarness(2)
	h.farm.action = moveAction("collect_resource")
	h.combat.action = moveAction("never_reached")
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, h.farm.calls)
	assert.Zero(t, h.combat.calls)
	assert.Zero(t, h.nav.ticks)
	assert.Equal(t, 2, h.nav.patrolCalls)
	assert.Len(t, driver.executes, 2)
}

func TestNavigationIsFallback(t *testing.T) {
	h := newHarness(2)
	h.nav.action = moveAction("patrol_waypoint")
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, h.farm.calls)
	assert.Equal(t, 2, h.combat.calls)
	assert.Equal(t, 2, h.nav.ticks)
	assert.Len(t, driver.executes, 2)
}

func TestIdleTickDispatchesNothing(t *testing.T) {
	h := newHarness(4)
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Ticks, "tick still advances when no module acts")
	assert.Empty(t, driver.executes)
}

func TestPanickingModuleIsIsolated(t *testing.T) {
	h := newHarness(3)
	h.safety.panicDecide = true
	h.nav.action = moveAction("patrol_waypoint")
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxTicks, res.StopReason, "a panicking module must not end the run")
	assert.Equal(t, 3, h.safety.decideCalls)
	assert.Len(t, driver.executes, 3, "the remaining modules keep running")
}

func TestVisionErrorIsTolerated(t *testing.T) {
	h := newHarness(3)
	h.vision.err = errors.New("feed down")
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxTicks, res.StopReason)
	assert.Equal(t, 3, res.Ticks)
}

func TestActuatorErrorIsTolerated(t *testing.T) {
	h := newHarness(2)
	h.nav.action = moveAction("patrol_waypoint")
	driver := &stubDriver{execErr: errors.New("click lost")}
	recorder := &stubRecorder{}
	r := h.runner(t, driver, recorder)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxTicks, res.StopReason)
	assert.Empty(t, recorder.actions, "failed dispatches are not recorded")
	require.Len(t, recorder.finishes, 1)
	assert.Equal(t, StopMaxTicks, recorder.finishes[0].reason)
}

func TestBookkeepingPanicStopsRunInternally(t *testing.T) {
	h := newHarness(10)
	driver := &stubDriver{}
	r := h.runner(t, driver, nil)
	r.sleep = func(_ context.Context, _ time.Duration) error {
		panic("timer subsystem broke")
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopInternal, res.StopReason)
	assert.Equal(t, 1, res.Ticks)
}

func TestRecorderSeesDispatchedActions(t *testing.T) {
	h := newHarness(3)
	h.farm.action = moveAction("collect_resource")
	driver := &stubDriver{}
	recorder := &stubRecorder{}
	r := h.runner(t, driver, recorder)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, recorder.actions, 3)
	for _, rec := range recorder.actions {
		assert.Equal(t, "farm", rec.source)
		assert.Equal(t, "collect_resource", rec.action.Meta.Reason)
	}
	require.Len(t, recorder.finishes, 1)
	assert.Equal(t, recordedFinish{reason: res.StopReason, ticks: res.Ticks}, recorder.finishes[0])
}

func TestBootstrapSequenceRunsInOrder(t *testing.T) {
	h := newHarness(1)
	h.cfg.Game.Username = "pilot"
	h.cfg.Game.Password = "secret"
	driver := &stoppableDriver{loginOK: true, enterOK: true}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxTicks, res.StopReason)
	assert.Equal(t, 1, driver.startCalls)
	assert.Equal(t, 1, driver.loginCalls)
	assert.Equal(t, 1, driver.enterCalls)
	assert.Equal(t, 1, driver.stopCalls)
}

func TestBootstrapRequiresCredentials(t *testing.T) {
	h := newHarness(1)
	driver := &stoppableDriver{loginOK: true}
	r := h.runner(t, driver, nil)

	res, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "bootstrap failed", res.StopReason)
	assert.Zero(t, driver.loginCalls, "login must not be attempted without credentials")
	assert.Equal(t, 1, driver.stopCalls, "shutdown runs even when bootstrap fails")
}

func TestBootstrapFailsOnRejectedLogin(t *testing.T) {
	h := newHarness(1)
	h.cfg.Game.Username = "pilot"
	h.cfg.Game.Password = "wrong"
	driver := &stoppableDriver{loginOK: false}
	r := h.runner(t, driver, nil)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login rejected")
	assert.Zero(t, driver.enterCalls)
	assert.Equal(t, 1, driver.stopCalls)
}

func TestBootstrapFailsOnStartError(t *testing.T) {
	h := newHarness(1)
	driver := &stoppableDriver{startErr: errors.New("no browser")}
	r := h.runner(t, driver, nil)

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver start failed")
	assert.Equal(t, 1, driver.stopCalls)
}

func TestShutdownRunsAfterNormalExit(t *testing.T) {
	h := newHarness(2)
	driver := &stoppableDriver{}
	r := h.runner(t, driver, nil)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, driver.stopCalls)
}
