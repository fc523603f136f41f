// File: internal/game/state.go
// Description: The shared world model. Pure data plus bookkeeping methods;
// decision modules read and conditionally mutate it, the perception layer
// replaces the entity maps wholesale each tick.

package game

import "math"

// Position is a point in 2D space. Depending on the producer the coordinates
// are either normalized map-relative values in [0,1] or world coordinates;
// action metadata disambiguates for consumers.
type Position struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance between p and other.
func (p Position) Dist(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Ship is the player vessel. It is owned exclusively by State; only the
// perception layer writes its stats.
type Ship struct {
	ID        string
	Position  Position
	HP        int
	MaxHP     int
	Shield    int
	MaxShield int
	Speed     float64
}

// HPRatio returns hp/max_hp, or 0 when max_hp is not known yet.
func (s *Ship) HPRatio() float64 {
	if s == nil || s.MaxHP <= 0 {
		return 0
	}
	return float64(s.HP) / float64(s.MaxHP)
}

// Npc is an observed non-player entity. Npcs are ephemeral: the perception
// layer replaces the whole collection on every update, nothing is merged
// across ticks.
type Npc struct {
	ID       string
	Position Position
	// Type is a free-form tag ("weak_npc", "boss_npc", ...) used for
	// priority lookups by the farm module.
	Type  string
	HP    int
	MaxHP int
}

// Resource is a collectible observed on the map.
type Resource struct {
	ID       string
	Position Position
	Kind     string
	// Value is reserved for future pricing of collectibles; perception
	// currently always reports zero.
	Value int
}

// EnemyPlayer is a hostile player ship. No perception implementation
// populates these yet; the collection exists so modules can start reading it
// the day one does.
type EnemyPlayer struct {
	ID       string
	Position Position
	Name     string
}

// MapPortal is a jump gate to another map. Same forward-compatibility story
// as EnemyPlayer.
type MapPortal struct {
	ID          string
	Position    Position
	Destination string
}

// State aggregates everything the bot knows about the world. It is created
// once at process start and mutated in place for the life of the run.
//
// Access is strictly sequential: the decision loop invokes perception and the
// modules one after another within a tick, so State needs no locking.
type State struct {
	Ship       *Ship
	CurrentMap string

	// TickCounter increases by exactly 1 per completed loop tick.
	TickCounter int

	// CurrentTargetID is a weak reference into Npcs ("" = no target).
	// AdvanceTick self-heals the reference if the Npc disappears.
	CurrentTargetID        string
	InCombat               bool
	TicksWithCurrentTarget int

	Npcs      map[string]*Npc
	Resources map[string]*Resource
	Enemies   map[string]*EnemyPlayer
	Portals   map[string]*MapPortal
}

// NewState constructs a fresh world model around the given ship. All entity
// maps are allocated empty so perception and modules can use them without nil
// checks.
func NewState(ship *Ship, currentMap string) *State {
	return &State{
		Ship:       ship,
		CurrentMap: currentMap,
		Npcs:       make(map[string]*Npc),
		Resources:  make(map[string]*Resource),
		Enemies:    make(map[string]*EnemyPlayer),
		Portals:    make(map[string]*MapPortal),
	}
}

// AdvanceTick performs the end-of-tick bookkeeping: the counter increment and
// the dangling-target self-heal. The decision loop calls it exactly once per
// completed tick.
func (s *State) AdvanceTick() {
	s.TickCounter++

	if s.CurrentTargetID != "" {
		if _, ok := s.Npcs[s.CurrentTargetID]; !ok {
			s.ClearTarget()
		}
	}
}

// SetTarget selects an Npc for engagement and resets the per-target counter.
func (s *State) SetTarget(id string) {
	s.CurrentTargetID = id
	s.InCombat = true
	s.TicksWithCurrentTarget = 0
}

// ClearTarget drops the current target and forces the combat flag off.
func (s *State) ClearTarget() {
	s.CurrentTargetID = ""
	s.InCombat = false
	s.TicksWithCurrentTarget = 0
}

// TargetNpc resolves the current target id against the Npc collection.
// Returns nil when no target is held or the reference is dangling.
func (s *State) TargetNpc() *Npc {
	if s.CurrentTargetID == "" {
		return nil
	}
	return s.Npcs[s.CurrentTargetID]
}
