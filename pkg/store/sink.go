package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/target"
)

// Sink accepts finished scan outcomes.
type Sink interface {
	Save(ctx context.Context, scanID, owner string, t *target.Target, outcome finding.Outcome) error
}

// Reader lists stored records.
type Reader interface {
	Records(ctx context.Context, owner string) ([]Record, error)
}

// Store is a Sink that can also be read back and closed.
type Store interface {
	Sink
	Reader
	io.Closer
}

// Config selects and configures a store.
type Config struct {
	// Kind is "jsonl", "mysql" or "sqlite".
	Kind string

	// Path is the JSONL file or SQLite database path.
	Path string

	// DSN is the MySQL data source name.
	DSN string

	Logger *slog.Logger
}

// Open returns the store described by cfg.
func Open(cfg Config) (Store, error) {
	switch cfg.Kind {
	case "jsonl":
		return OpenJSONL(cfg.Path)
	case "mysql":
		return OpenGorm(MySQL(cfg.DSN), cfg.Logger)
	case "sqlite":
		return OpenGorm(SQLite(cfg.Path), cfg.Logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// Discard is a Sink that drops everything.
type Discard struct{}

// Save implements Sink.
func (Discard) Save(context.Context, string, string, *target.Target, finding.Outcome) error {
	return nil
}
