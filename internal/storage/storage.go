package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/world"
)

// Storage defines a unified interface for all storage operations.
// Sessions live in Redis; world modules are static JSON loaded from
// the filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed)
	SaveSession(ctx context.Context, id uuid.UUID, gs *session.GameSession) error
	LoadSession(ctx context.Context, id uuid.UUID) (*session.GameSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// World operations (filesystem-backed)
	LoadWorld(ctx context.Context, module string) (*world.World, error)
	ListModules(ctx context.Context) (map[string]string, error)
}
