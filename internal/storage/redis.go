package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/campaignforge/dmengine/pkg/session"
	"github.com/campaignforge/dmengine/pkg/world"
)

// sessionTTL is how long an idle session survives in Redis.
const sessionTTL = 24 * time.Hour

// RedisStorage implements the Storage interface using Redis for sessions
// and the filesystem for static world modules.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Session operations (Redis-backed)

func (r *RedisStorage) SaveSession(ctx context.Context, id uuid.UUID, gs *session.GameSession) error {
	gs.UpdatedAt = time.Now()

	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal session", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := "session:" + id.String()
	cmd := r.client.Set(ctx, key, string(data), sessionTTL)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save session", "uuid", id, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*session.GameSession, error) {
	key := "session:" + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Session not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load session", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("Session not found", "uuid", id)
		return nil, nil
	}

	var gs session.GameSession
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		r.logger.Error("Failed to unmarshal session", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &gs, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	key := "session:" + id.String()
	cmd := r.client.Del(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete session", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// World operations (filesystem-backed)

func (r *RedisStorage) LoadWorld(ctx context.Context, module string) (*world.World, error) {
	path := filepath.Join(r.dataDir, "worlds", module+".json")
	r.logger.Debug("Loading world module", "module", module, "full_path", path, "dataDir", r.dataDir)

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Error("World module not found", "path", path, "error", err)
			return nil, fmt.Errorf("world module not found: %s", module)
		}
		return nil, fmt.Errorf("failed to read world module: %w", err)
	}

	var w world.World
	if err := json.Unmarshal(file, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal world module: %w", err)
	}

	return &w, nil
}

func (r *RedisStorage) ListModules(ctx context.Context) (map[string]string, error) {
	worldsDir := filepath.Join(r.dataDir, "worlds")
	modules := make(map[string]string)

	entries, err := os.ReadDir(worldsDir)
	if err != nil {
		r.logger.Error("Failed to read worlds directory", "error", err)
		return nil, fmt.Errorf("failed to list world modules: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		file, err := os.ReadFile(filepath.Join(worldsDir, entry.Name()))
		if err != nil {
			r.logger.Warn("Failed to read world module file", "file", entry.Name(), "error", err)
			continue
		}

		var w world.World
		if err := json.Unmarshal(file, &w); err != nil {
			r.logger.Warn("Failed to unmarshal world module file", "file", entry.Name(), "error", err)
			continue
		}

		module := entry.Name()[:len(entry.Name())-len(".json")]
		modules[module] = w.Name
	}

	return modules, nil
}
