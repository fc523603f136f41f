// File: internal/vision/feed.go
// Description: Perception over the game's websocket state stream. The feed
// keeps the latest entity snapshot and copies it into the world model when
// the decision loop asks for an update.

package vision

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/spacebot/internal/game"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	dialTimeout = 10 * time.Second
	readTimeout = 5 * time.Second
	// maxFrameSize bounds a single state frame.
	maxFrameSize = 1 << 20
)

// stateFrame is the wire format of one snapshot from the game's state stream.
// Collections the server omits are treated as empty.
type stateFrame struct {
	Map  string `json:"map"`
	Ship *struct {
		ID     string  `json:"id"`
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		HP     int     `json:"hp"`
		MaxHP  int     `json:"max_hp"`
		Shield int     `json:"shield"`
		MaxSh  int     `json:"max_shield"`
		Speed  float64 `json:"speed"`
	} `json:"ship"`
	Npcs []struct {
		ID    string  `json:"id"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		Type  string  `json:"type"`
		HP    int     `json:"hp"`
		MaxHP int     `json:"max_hp"`
	} `json:"npcs"`
	Resources []struct {
		ID   string  `json:"id"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Kind string  `json:"kind"`
	} `json:"resources"`
	Enemies []struct {
		ID   string  `json:"id"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Name string  `json:"name"`
	} `json:"enemies"`
	Portals []struct {
		ID   string  `json:"id"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		Dest string  `json:"destination"`
	} `json:"portals"`
}

// Feed implements the perception port over a websocket connection. It dials
// lazily and reconnects after read failures; a failed update surfaces as an
// error, which the decision loop treats as "no observation this tick".
type Feed struct {
	endpoint string
	logger   *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewFeed creates a websocket state feed for the given endpoint.
func NewFeed(endpoint string, logger *zap.Logger) *Feed {
	return &Feed{endpoint: endpoint, logger: logger.Named("vision")}
}

// UpdateState reads the next state frame and replaces the world model's
// entity collections wholesale. Ship stats are only written here and by tick
// bookkeeping, never by decision modules.
func (f *Feed) UpdateState(ctx context.Context, state *game.State) error {
	frame, err := f.readFrame(ctx)
	if err != nil {
		return err
	}
	applyFrame(state, frame)
	return nil
}

// Snapshot returns the raw bytes of the next frame for diagnostics.
func (f *Feed) Snapshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conn, err := f.connLocked(ctx)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		f.dropLocked()
		return nil, fmt.Errorf("state stream read: %w", err)
	}
	return raw, nil
}

// Close tears down the connection.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}

func (f *Feed) readFrame(ctx context.Context) (*stateFrame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	conn, err := f.connLocked(ctx)
	if err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		// Drop the connection so the next update redials.
		f.dropLocked()
		return nil, fmt.Errorf("state stream read: %w", err)
	}

	var frame stateFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("state frame decode: %w", err)
	}
	return &frame, nil
}

func (f *Feed) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if f.conn != nil {
		return f.conn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("state stream dial %s: %w", f.endpoint, err)
	}
	conn.SetReadLimit(maxFrameSize)
	f.logger.Info("Connected to state stream.", zap.String("endpoint", f.endpoint))
	f.conn = conn
	return conn, nil
}

func (f *Feed) dropLocked() {
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
}

// applyFrame copies a decoded frame into the world model. Entity maps are
// replaced, not merged; collections absent from the frame become empty maps.
func applyFrame(state *game.State, frame *stateFrame) {
	if frame.Map != "" {
		state.CurrentMap = frame.Map
	}
	if frame.Ship != nil && state.Ship != nil {
		state.Ship.ID = frame.Ship.ID
		state.Ship.Position = game.Position{X: frame.Ship.X, Y: frame.Ship.Y}
		state.Ship.HP = frame.Ship.HP
		state.Ship.MaxHP = frame.Ship.MaxHP
		state.Ship.Shield = frame.Ship.Shield
		state.Ship.MaxShield = frame.Ship.MaxSh
		state.Ship.Speed = frame.Ship.Speed
	}

	npcs := make(map[string]*game.Npc, len(frame.Npcs))
	for _, n := range frame.Npcs {
		npcs[n.ID] = &game.Npc{
			ID:       n.ID,
			Position: game.Position{X: n.X, Y: n.Y},
			Type:     n.Type,
			HP:       n.HP,
			MaxHP:    n.MaxHP,
		}
	}
	state.Npcs = npcs

	resources := make(map[string]*game.Resource, len(frame.Resources))
	for _, res := range frame.Resources {
		resources[res.ID] = &game.Resource{
			ID:       res.ID,
			Position: game.Position{X: res.X, Y: res.Y},
			Kind:     res.Kind,
		}
	}
	state.Resources = resources

	enemies := make(map[string]*game.EnemyPlayer, len(frame.Enemies))
	for _, e := range frame.Enemies {
		enemies[e.ID] = &game.EnemyPlayer{
			ID:       e.ID,
			Position: game.Position{X: e.X, Y: e.Y},
			Name:     e.Name,
		}
	}
	state.Enemies = enemies

	portals := make(map[string]*game.MapPortal, len(frame.Portals))
	for _, p := range frame.Portals {
		portals[p.ID] = &game.MapPortal{
			ID:          p.ID,
			Position:    game.Position{X: p.X, Y: p.Y},
			Destination: p.Dest,
		}
	}
	state.Portals = portals
}
