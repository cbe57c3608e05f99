// Package credentials persists the bearer token in a single named slot.
//
// The session manager is the only writer. Load returns an empty string, not
// an error, when the slot is empty.
package credentials

import (
	"context"
	"fmt"
	"strings"

	"github.com/mediascan/console/internal/config"
)

// Store is a single key-value slot holding the bearer token across restarts.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Closer is implemented by stores that hold a connection.
type Closer interface {
	Close() error
}

// Backend names accepted by New
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// New builds the store selected by the configuration.
func New(cfg config.CredentialsConfig) (Store, error) {
	switch backend := strings.ToLower(cfg.GetCredentialsBackend()); backend {
	case BackendFile, "":
		if key := cfg.GetCredentialsKey(); key != "" {
			return NewSealedFileStore(cfg.GetCredentialsPath(), key), nil
		}
		return NewFileStore(cfg.GetCredentialsPath()), nil
	case BackendSQLite:
		return NewSQLiteStore(SQLiteStoreConfig{
			DatabasePath: cfg.GetCredentialsPath() + ".db",
			Slot:         cfg.GetCredentialsSlot(),
		})
	case BackendRedis:
		return NewRedisStore(RedisStoreConfig{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
			Slot:     cfg.GetCredentialsSlot(),
		}), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", backend)
	}
}
