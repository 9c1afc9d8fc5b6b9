package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/campaignforge/dmengine/pkg/conversation"
	"github.com/campaignforge/dmengine/pkg/world"
)

// GameSession is the state of one campaign. It owns its location graph
// and conversation log; components receive them from the session rather
// than from package-level state. Play is strictly turn-based, so a
// session is never mutated concurrently.
type GameSession struct {
	ID        uuid.UUID         `json:"id"`
	Module    string            `json:"module"` // Module file name, e.g. "greenhollow.json"
	Location  string            `json:"location,omitempty"`
	Flags     map[string]bool   `json:"flags,omitempty"`
	Inventory []string          `json:"inventory,omitempty"`
	Log       *conversation.Log `json:"log"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// graph is derived from world data and rebuilt per load, never
	// persisted with the session.
	graph *world.Graph
}

// New creates a session for the named module.
func New(module string) *GameSession {
	now := time.Now().UTC()
	return &GameSession{
		ID:        uuid.New(),
		Module:    module,
		Log:       conversation.NewLog(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LoadWorld builds the session's location graph from world data. Called
// on session start and again whenever world data changes (a new area
// unlocked mid-campaign); the graph is rebuilt wholesale, since partial
// patching risks stale adjacency.
func (s *GameSession) LoadWorld(w *world.World, logger *slog.Logger) error {
	g, err := world.BuildGraph(w, logger)
	if err != nil {
		return fmt.Errorf("failed to build location graph: %w", err)
	}
	s.graph = g

	if s.Location == "" {
		return nil
	}
	if !g.Contains(s.Location) {
		return fmt.Errorf("session location %q is not in module %q: %w", s.Location, s.Module, world.ErrLocationNotFound)
	}
	return nil
}

// Graph returns the session's location graph, or nil before LoadWorld.
func (s *GameSession) Graph() *world.Graph {
	return s.graph
}

// MoveAlong commits a validated travel path: the party's location
// becomes the final hop and the conversation log gains a transition
// marker closing the current segment.
func (s *GameSession) MoveAlong(path []string) error {
	if len(path) == 0 {
		return fmt.Errorf("cannot move along an empty path")
	}
	if s.graph == nil {
		return fmt.Errorf("world not loaded")
	}
	destination := path[len(path)-1]
	if !s.graph.Contains(destination) {
		return fmt.Errorf("%w: %s", world.ErrLocationNotFound, destination)
	}
	if destination == s.Location {
		return nil
	}

	from := s.Location
	s.Location = destination
	s.Log.MarkTransition(from, destination)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetFlag records a plot flag on the session.
func (s *GameSession) SetFlag(name string, value bool) {
	if s.Flags == nil {
		s.Flags = make(map[string]bool)
	}
	s.Flags[name] = value
	s.UpdatedAt = time.Now().UTC()
}
