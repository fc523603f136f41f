// File: internal/strategy/interfaces.go
// Description: Contracts between the decision loop and its collaborators.
// One interface per capability; variant implementations (basic/dummy) are
// selected at construction time via configuration.

package strategy

import (
	"context"

	"github.com/xkilldash9x/spacebot/internal/game"
)

// Safety assesses danger and decides whether to flee. Decide must fire
// exactly when Assess on the same state reaches the escape threshold.
type Safety interface {
	// Assess returns a danger score in [0,100].
	Assess(state *game.State) int
	// Decide returns an escape action, or nil when the situation is safe.
	Decide(state *game.State) *game.Action
}

// Farm owns target selection and resource collection. Selecting a combat
// target is a side effect on the state; the combat module acts on it next.
type Farm interface {
	Decide(state *game.State) *game.Action
}

// Combat manages engagement with whatever target is already held. It never
// selects a new target.
type Combat interface {
	Decide(state *game.State) *game.Action
}

// Navigation produces idle-time movement. Implementations may additionally
// satisfy ModeSwitcher.
type Navigation interface {
	// SetDestination stores an absolute goal for future use.
	SetDestination(pos game.Position)
	// Tick produces a movement action for the current tick, or nil.
	Tick(state *game.State) *game.Action
}

// ModeSwitcher is an optional capability of Navigation implementations. The
// decision loop discovers it with a type assertion.
type ModeSwitcher interface {
	EnterPatrolMode()
	EnterEscapeMode()
}

// Vision is the perception port: it refreshes the world model from live
// observations. Implementations may be slow (network, browser I/O); errors
// mean "no observation this tick", never a crash.
type Vision interface {
	UpdateState(ctx context.Context, state *game.State) error
	// Snapshot returns a raw frame for diagnostics; nil is a valid answer.
	Snapshot(ctx context.Context) ([]byte, error)
}

// Driver is the actuator port: it executes one high-level action against the
// live environment. Unrecognized action types must be logged no-ops.
type Driver interface {
	Execute(ctx context.Context, action *game.Action, state *game.State) error
}

// Optional driver capabilities, discovered via type assertions the same way
// the loop discovers ModeSwitcher.

// Starter brings the underlying environment up before the run.
type Starter interface {
	Start(ctx context.Context) error
}

// Authenticator performs the login step. A false return without an error
// means the credentials were rejected.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (bool, error)
}

// GameEnterer moves from the logged-in landing page into the live game view.
type GameEnterer interface {
	EnterGame(ctx context.Context) (bool, error)
}

// Stopper tears the environment down. The loop calls it on every exit path.
type Stopper interface {
	Stop(ctx context.Context) error
}
