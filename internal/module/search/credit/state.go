// Package credit owns the per-engine usage ledger: monthly quota
// accounting with calendar-month resets, and the pluggable persistence
// contract the ledger is saved through.
package credit

import (
	"time"

	"github.com/searchmux/server/internal/module/search/engine"
)

// Record is the persisted usage record for one engine.
type Record struct {
	Used      int       `json:"used"`
	LastReset time.Time `json:"lastReset"`
}

// State is the full persisted ledger, keyed by engine id. Keys unknown to
// the current configuration are preserved verbatim across load/save cycles
// so engines removed from (or not yet added to) the config keep their
// usage history.
type State map[string]Record

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Snapshot is a point-in-time, read-only view of one engine's credit
// state. It is derived on demand and never persisted.
type Snapshot struct {
	EngineID  engine.ID `json:"engine_id"`
	Quota     int       `json:"quota"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	Exhausted bool      `json:"exhausted"`
}

// newSnapshot derives a snapshot from quota and usage. Remaining is
// floored at zero and Exhausted is a pure function of the two inputs.
func newSnapshot(id engine.ID, quota, used int) Snapshot {
	remaining := quota - used
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		EngineID:  id,
		Quota:     quota,
		Used:      used,
		Remaining: remaining,
		Exhausted: remaining <= 0,
	}
}

// sameMonth reports whether two timestamps fall in the same calendar month.
func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
