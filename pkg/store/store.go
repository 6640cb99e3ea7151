// Package store keeps versioned snapshots of valid schemas.
//
// Every [Store.Save] validates the schema first; invalid schemas are never
// stored. That makes the latest snapshot of a name a safe fallback when a
// newer candidate fails validation, which is what [Guard] does.
//
// Two implementations are provided: [MemoryStore] for tests and
// single-process servers, and [MongoStore] for durable, shared storage.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/gridlookout/pkg/cache"
	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	pkgio "github.com/matzehuels/gridlookout/pkg/io"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Snapshot is one stored version of a named schema.
type Snapshot struct {
	ID        string
	Name      string
	Hash      string // SHA-256 of the canonical JSON document
	CreatedAt time.Time
	Schema    *schema.Schema
}

// Store persists schema snapshots. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save validates s and stores it as the newest snapshot of name.
	// Validation failures are returned unchanged and nothing is stored.
	// With [IfLatest], Save fails with CONFLICT when another snapshot was
	// stored since the caller read its parent.
	Save(ctx context.Context, name string, s *schema.Schema, opts ...SaveOption) (Snapshot, error)
	// Latest returns the newest snapshot of name, or a NOT_FOUND error.
	Latest(ctx context.Context, name string) (Snapshot, error)
	// Get returns the snapshot with the given id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (Snapshot, error)
	// List returns up to limit snapshots of name, newest first.
	List(ctx context.Context, name string, limit int) ([]Snapshot, error)
	Close(ctx context.Context) error
}

// SaveOption configures a single [Store.Save].
type SaveOption func(*saveConfig)

type saveConfig struct {
	parent  *string
	resolve []layout.Option
}

func newSaveConfig(opts []SaveOption) saveConfig {
	var cfg saveConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// IfLatest makes Save conditional: it succeeds only while id is still the
// newest snapshot of the name. An empty id requires that none exists yet.
func IfLatest(id string) SaveOption {
	return func(c *saveConfig) { c.parent = &id }
}

// WithResolveOptions validates with opts instead of the defaults, so a
// schema accepted under a custom tolerance is also accepted on save.
func WithResolveOptions(opts ...layout.Option) SaveOption {
	return func(c *saveConfig) { c.resolve = opts }
}

// checkParent reports a conflict when latest is not the expected parent.
func (c saveConfig) checkParent(name, latest string) error {
	if c.parent == nil || *c.parent == latest {
		return nil
	}
	return conflict(name)
}

func conflict(name string) error {
	return glerr.New(glerr.ErrCodeConflict, "schema %q was updated concurrently", name)
}

// newSnapshot validates s and prepares the snapshot and its canonical
// document for storage.
func newSnapshot(name string, s *schema.Schema, now time.Time, cfg saveConfig) (Snapshot, []byte, error) {
	if err := glerr.ValidateName("schema", name); err != nil {
		return Snapshot{}, nil, err
	}
	if err := layout.ValidateWith(s, cfg.resolve...); err != nil {
		return Snapshot{}, nil, err
	}
	doc, err := pkgio.MarshalSchema(s)
	if err != nil {
		return Snapshot{}, nil, glerr.Wrap(glerr.ErrCodeInternal, err, "encode schema %q", name)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Snapshot{}, nil, glerr.Wrap(glerr.ErrCodeInternal, err, "generate snapshot id")
	}
	return Snapshot{
		ID:        id.String(),
		Name:      name,
		Hash:      cache.Hash(doc),
		CreatedAt: now.UTC(),
		Schema:    s,
	}, doc, nil
}

func decodeSchema(doc []byte) (*schema.Schema, error) {
	return pkgio.UnmarshalSchema(doc, pkgio.FormatJSON)
}

func notFound(format string, args ...any) error {
	return glerr.New(glerr.ErrCodeNotFound, format, args...)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
