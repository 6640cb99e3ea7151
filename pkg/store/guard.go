package store

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	glerr "github.com/matzehuels/gridlookout/pkg/errors"
	"github.com/matzehuels/gridlookout/pkg/layout"
	"github.com/matzehuels/gridlookout/pkg/schema"
)

// Guard resolves candidate schemas and keeps the last valid version of each
// name in a Store. When a candidate fails validation the Guard resolves the
// stored snapshot instead, so hosts keep showing a usable layout while the
// error is surfaced.
type Guard struct {
	Store   Store
	Options []layout.Option
	Logger  *log.Logger
}

// GuardResult is the outcome of [Guard.Resolve].
type GuardResult struct {
	Layout   layout.Layout
	Snapshot Snapshot
	// FellBack is true when Layout comes from a stored snapshot rather than
	// the candidate.
	FellBack bool
}

// NewGuard creates a guard over st. A nil logger discards log output.
func NewGuard(st Store, logger *log.Logger, opts ...layout.Option) *Guard {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Guard{Store: st, Options: opts, Logger: logger}
}

// Resolve resolves candidate. On success the candidate is saved as the
// newest snapshot of name and returned with a nil error.
//
// When the candidate is invalid, Resolve returns the layout of the latest
// stored snapshot together with the candidate's validation error; check
// GuardResult.FellBack. If no snapshot exists either, only the validation
// error is returned.
func (g *Guard) Resolve(ctx context.Context, name string, candidate *schema.Schema) (GuardResult, error) {
	res, err := g.Check(ctx, name, candidate)
	if err != nil {
		return res, err
	}
	snap, err := g.Store.Save(ctx, name, candidate, WithResolveOptions(g.Options...))
	if err != nil {
		return GuardResult{}, fmt.Errorf("save snapshot: %w", err)
	}
	res.Snapshot = snap
	return res, nil
}

// Check is Resolve without saving: a valid candidate is resolved and
// returned with an empty Snapshot, an invalid one falls back to the latest
// stored snapshot. Hosts that edit interactively call Check on every change
// and Resolve once the user commits.
func (g *Guard) Check(ctx context.Context, name string, candidate *schema.Schema) (GuardResult, error) {
	l, err := layout.Resolve(candidate, g.Options...)
	if err == nil {
		return GuardResult{Layout: l}, nil
	}
	if !isValidation(err) {
		return GuardResult{}, err
	}

	snap, lerr := g.Store.Latest(ctx, name)
	if lerr != nil {
		if !glerr.Is(lerr, glerr.ErrCodeNotFound) {
			g.Logger.Warn("snapshot lookup failed", "schema", name, "error", lerr)
		}
		return GuardResult{}, err
	}

	fallback, ferr := layout.Resolve(snap.Schema, g.Options...)
	if ferr != nil {
		// Stored snapshots were valid when saved; a failure here means
		// the resolve options changed.
		return GuardResult{}, err
	}
	g.Logger.Warn("candidate schema invalid, using last valid snapshot",
		"schema", name,
		"snapshot", snap.ID,
		"errors", len(glerr.Flatten(err)))
	return GuardResult{Layout: fallback, Snapshot: snap, FellBack: true}, err
}

func isValidation(err error) bool {
	for _, e := range glerr.Flatten(err) {
		switch e.Code {
		case glerr.ErrCodeSchemaStructure, glerr.ErrCodeViewport, glerr.ErrCodeCellBounds:
			return true
		}
	}
	return false
}
