// Package seed embeds the fixed communications fixture and loads it into a
// freshly opened store.
package seed

import (
	"context"
	_ "embed"

	"github.com/harborlane/guestcomms/internal/comms/storage/sqlite"
)

//go:embed seed.sql
var script string

// Script returns the seed SQL. Exposed for callers that load stores through
// other means, such as tests building partial fixtures.
func Script() string {
	return script
}

// Load populates the store from the embedded seed and verifies cross-table
// invariants. Any failure is fatal for store construction: a seed that
// violates referential integrity must never produce a queryable store.
func Load(ctx context.Context, store *sqlite.Store) error {
	if err := store.LoadScript(ctx, script); err != nil {
		return err
	}
	return store.VerifyIntegrity(ctx)
}
