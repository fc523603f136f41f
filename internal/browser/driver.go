// File: internal/browser/driver.go
// Description: The actuator port over a live Chrome instance. Translates
// high-level bot actions into viewport interactions via CDP.

package browser

import (
	"context"
	"fmt"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/spacebot/internal/config"
	"github.com/xkilldash9x/spacebot/internal/game"
)

// Selectors into the game's DOM. The game client is a canvas app with a thin
// HTML shell around login and map entry.
const (
	selUsername   = `input[name="username"]`
	selPassword   = `input[name="password"]`
	selLoginBtn   = `button[type="submit"]`
	selPlayBtn    = `#play-button`
	selGameCanvas = `#game-canvas`
	// attackKey is the in-game hotkey that fires on the selected target.
	attackKey = " " // space
)

const (
	startTimeout  = 30 * time.Second
	loginTimeout  = 45 * time.Second
	actionTimeout = 10 * time.Second
)

// ChromeDriver executes bot actions against the game running in a headless
// (or headful) Chrome. It also implements the optional bootstrap capabilities
// (Start, Login, EnterGame, Stop) the decision loop discovers via type
// assertions.
type ChromeDriver struct {
	cfg    config.GameConfig
	logger *zap.Logger

	// limiter caps dispatch frequency so the bot does not hammer the client
	// faster than a human plausibly could.
	limiter *rate.Limiter

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	viewportW   int64
	viewportH   int64
}

// NewChromeDriver creates the driver. Start must be called before Execute.
func NewChromeDriver(cfg config.GameConfig, logger *zap.Logger) *ChromeDriver {
	return &ChromeDriver{
		cfg:     cfg,
		logger:  logger.Named("driver"),
		limiter: rate.NewLimiter(rate.Limit(cfg.ActionRate), 1),
	}
}

// Start launches the browser process and navigates to the game URL.
func (d *ChromeDriver) Start(ctx context.Context) error {
	if d.cfg.URL == "" {
		return fmt.Errorf("game url is not configured")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.cfg.Headless),
		chromedp.Flag("disable-gpu", d.cfg.Headless),
		chromedp.WindowSize(1280, 800),
	)
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	d.browserCtx, d.browserStop = chromedp.NewContext(d.allocCtx)

	startCtx, cancel := context.WithTimeout(d.browserCtx, startTimeout)
	defer cancel()

	if err := chromedp.Run(startCtx, chromedp.Navigate(d.cfg.URL)); err != nil {
		d.teardown()
		return fmt.Errorf("browser failed to open %s: %w", d.cfg.URL, err)
	}

	if err := chromedp.Run(startCtx,
		chromedp.Evaluate(`window.innerWidth`, &d.viewportW),
		chromedp.Evaluate(`window.innerHeight`, &d.viewportH),
	); err != nil {
		d.teardown()
		return fmt.Errorf("failed to read viewport size: %w", err)
	}

	d.logger.Info("Browser started.",
		zap.String("url", d.cfg.URL),
		zap.Int64("viewport_w", d.viewportW),
		zap.Int64("viewport_h", d.viewportH),
	)
	return nil
}

// Login fills the credential form and submits it. A false return means the
// game rejected the credentials (the login form is still visible).
func (d *ChromeDriver) Login(ctx context.Context, username, password string) (bool, error) {
	loginCtx, cancel := context.WithTimeout(d.browserCtx, loginTimeout)
	defer cancel()

	err := chromedp.Run(loginCtx,
		chromedp.WaitVisible(selUsername, chromedp.ByQuery),
		chromedp.SendKeys(selUsername, username, chromedp.ByQuery),
		chromedp.SendKeys(selPassword, password, chromedp.ByQuery),
		chromedp.Click(selLoginBtn, chromedp.ByQuery),
	)
	if err != nil {
		return false, fmt.Errorf("login interaction failed: %w", err)
	}

	// The play button appearing is the success signal; the form sticking
	// around means rejection.
	var loggedIn bool
	err = chromedp.Run(loginCtx,
		chromedp.Evaluate(fmt.Sprintf(
			`new Promise(resolve => {
				const deadline = Date.now() + 15000;
				const poll = () => {
					if (document.querySelector(%q)) return resolve(true);
					if (Date.now() > deadline) return resolve(false);
					setTimeout(poll, 250);
				};
				poll();
			})`, selPlayBtn),
			&loggedIn,
			func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
				return p.WithAwaitPromise(true)
			},
		),
	)
	if err != nil {
		return false, fmt.Errorf("login verification failed: %w", err)
	}
	return loggedIn, nil
}

// EnterGame clicks the play button and waits for the game canvas.
func (d *ChromeDriver) EnterGame(ctx context.Context) (bool, error) {
	enterCtx, cancel := context.WithTimeout(d.browserCtx, loginTimeout)
	defer cancel()

	err := chromedp.Run(enterCtx,
		chromedp.Click(selPlayBtn, chromedp.ByQuery),
		chromedp.WaitVisible(selGameCanvas, chromedp.ByQuery),
	)
	if err != nil {
		if enterCtx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("entering game failed: %w", err)
	}
	return true, nil
}

// Execute translates one action into a viewport interaction. Unrecognized or
// unimplemented action types are logged no-ops, never errors.
func (d *ChromeDriver) Execute(ctx context.Context, action *game.Action, state *game.State) error {
	if d.browserCtx == nil {
		return fmt.Errorf("driver not started")
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	switch action.Type {
	case game.ActionMove, game.ActionEscape, game.ActionCollect:
		return d.clickAction(ctx, action, state)
	case game.ActionAttack:
		return d.attack(ctx, action)
	default:
		// IDLE, JUMP, REPAIR have no client interaction yet.
		d.logger.Info("Ignoring unsupported action type.",
			zap.String("type", string(action.Type)),
			zap.String("reason", action.Meta.Reason),
		)
		return nil
	}
}

// clickAction clicks at the action's normalized coordinates. Without a rel
// target it falls back to a direction nudge from the viewport center, and
// with neither it is a no-op.
func (d *ChromeDriver) clickAction(ctx context.Context, action *game.Action, state *game.State) error {
	var x, y float64
	switch {
	case action.Meta.HasRel():
		x = *action.Meta.RelX * float64(d.viewportW)
		y = *action.Meta.RelY * float64(d.viewportH)
	case action.Meta.DirX != nil && action.Meta.DirY != nil:
		// Direction vectors steer from the center of the screen.
		const nudge = 0.25
		x = (0.5 + *action.Meta.DirX*nudge) * float64(d.viewportW)
		y = (0.5 + *action.Meta.DirY*nudge) * float64(d.viewportH)
	default:
		d.logger.Info("Move action without coordinates; skipping.",
			zap.String("reason", action.Meta.Reason))
		return nil
	}

	opCtx, cancel := context.WithTimeout(d.browserCtx, actionTimeout)
	defer cancel()

	d.logger.Debug("Clicking viewport.",
		zap.Float64("x", x), zap.Float64("y", y),
		zap.Bool("escape", action.Meta.Escape),
	)
	return chromedp.Run(opCtx, chromedp.MouseClickXY(x, y))
}

// attack selects the target entity on the canvas and fires the attack hotkey.
// The canvas exposes entity screen positions through the client's debug API.
func (d *ChromeDriver) attack(ctx context.Context, action *game.Action) error {
	opCtx, cancel := context.WithTimeout(d.browserCtx, actionTimeout)
	defer cancel()

	script := fmt.Sprintf(`(() => {
		if (window.game && typeof window.game.selectEntity === 'function') {
			return window.game.selectEntity(%q);
		}
		return false;
	})()`, action.TargetID)

	var selected bool
	if err := chromedp.Run(opCtx, chromedp.Evaluate(script, &selected)); err != nil {
		return fmt.Errorf("target selection failed: %w", err)
	}
	if !selected {
		d.logger.Warn("Client could not select attack target.",
			zap.String("target_id", action.TargetID))
		return nil
	}
	return chromedp.Run(opCtx, chromedp.KeyEvent(attackKey))
}

// Stop tears the browser down. Safe to call even when Start failed.
func (d *ChromeDriver) Stop(ctx context.Context) error {
	d.logger.Info("Stopping browser.")
	d.teardown()
	return nil
}

func (d *ChromeDriver) teardown() {
	if d.browserStop != nil {
		d.browserStop()
		d.browserStop = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.browserCtx = nil
	d.allocCtx = nil
}
