package credit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStateProvider persists the ledger as a pretty-printed JSON document
// at a caller-supplied path. Last write wins; there is no atomicity beyond
// that.
type FileStateProvider struct {
	path string
}

// NewFileStateProvider creates a file-backed state provider.
func NewFileStateProvider(path string) *FileStateProvider {
	return &FileStateProvider{path: path}
}

// LoadState loads the ledger from disk. A missing file yields an empty
// state, and so does unparsable content; only genuine I/O failures
// (e.g. permission errors) propagate.
func (p *FileStateProvider) LoadState(ctx context.Context) (State, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupted state is treated as empty rather than fatal.
		return State{}, nil
	}
	if state == nil {
		state = State{}
	}
	return state, nil
}

// SaveState writes the ledger to disk, creating directories as needed.
func (p *FileStateProvider) SaveState(ctx context.Context, state State) error {
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// StateExists reports whether a regular file exists at the path.
func (p *FileStateProvider) StateExists() bool {
	info, err := os.Stat(p.path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
