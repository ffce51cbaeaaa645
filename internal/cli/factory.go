package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/config"
	"github.com/aretw0/cardflow/pkg/adapters/file"
	loamAdapter "github.com/aretw0/cardflow/pkg/adapters/loam"
	"github.com/aretw0/cardflow/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/cardflow/pkg/adapters/redis"
	"github.com/aretw0/cardflow/pkg/adapters/sqlite"
	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/aretw0/cardflow/pkg/ports"
)

// Backend is an opened slot store. Archive is nil for backends that cannot keep scripts.
type Backend struct {
	Slots   ports.SlotStore
	Archive ports.ScriptArchive
	close   func() error
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenBackend creates the slot store selected by cfg, encrypting slot values when
// an encryption key is configured.
func OpenBackend(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	b, err := openStore(ctx, cfg)
	if err != nil || cfg.EncryptionKey == "" {
		return b, err
	}

	keys, err := middleware.ParseKeys(cfg.EncryptionKey, cfg.FallbackKeys...)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	mw, err := middleware.NewEncryptionMiddleware(keys)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Slots = middleware.Chain(b.Slots, mw)
	return b, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return &Backend{Slots: memory.NewStore()}, nil

	case config.BackendFile, "":
		return &Backend{Slots: file.New(cfg.Dir)}, nil

	case config.BackendRedis:
		var opts []redisAdapter.Option
		if cfg.RedisPrefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.RedisPrefix))
		}
		s := redisAdapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		return &Backend{Slots: s, close: s.Close}, nil

	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Slots: s, close: s.Close}, nil

	case config.BackendLoam:
		s, err := loamAdapter.Open(cfg.LoamPath)
		if err != nil {
			return nil, err
		}
		return &Backend{Slots: s, Archive: s}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewEditor opens the configured backend and builds an editor on top of it.
// The caller closes both the editor and the backend.
func NewEditor(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...cardflow.Option) (*cardflow.Editor, *Backend, error) {
	backend, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	editorOpts := []cardflow.Option{
		cardflow.WithStore(backend.Slots),
		cardflow.WithLogger(logger),
	}
	if backend.Archive != nil {
		editorOpts = append(editorOpts, cardflow.WithArchive(backend.Archive))
	}
	editorOpts = append(editorOpts, opts...)

	logger.Debug("store opened", "backend", cfg.Store.Backend)
	return cardflow.New(editorOpts...), backend, nil
}
