package credit

import "context"

// StateProvider is the persistence contract the ledger depends on.
//
// Implementations are lenient about malformed stored data (substituting an
// empty state rather than failing) but propagate genuine I/O failures.
// A missing backing store loads as an empty state, not an error.
type StateProvider interface {
	// LoadState loads the persisted ledger.
	LoadState(ctx context.Context) (State, error)

	// SaveState persists the full ledger.
	SaveState(ctx context.Context, state State) error

	// StateExists reports whether a backing store is present.
	StateExists() bool
}
