package credit

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStateProviderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credits.json")
	p := NewFileStateProvider(path)
	ctx := context.Background()

	reset := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	state := State{
		"google":        {Used: 42, LastReset: reset},
		"søk-норвежск":  {Used: 1, LastReset: reset},
		"engine+plus/x": {Used: 3, LastReset: reset},
	}

	require.NoError(t, p.SaveState(ctx, state))
	loaded, err := p.LoadState(ctx)
	require.NoError(t, err)

	assert.Equal(t, state, loaded)
}

func TestFileStateProviderManyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credits.json")
	p := NewFileStateProvider(path)
	ctx := context.Background()

	state := State{}
	reset := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 120; i++ {
		state[string(rune('a'+i%26))+string(rune('0'+i%10))+"-engine"] = Record{Used: i, LastReset: reset}
	}

	require.NoError(t, p.SaveState(ctx, state))
	loaded, err := p.LoadState(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, len(state))
}

func TestFileStateProviderMissingFile(t *testing.T) {
	p := NewFileStateProvider(filepath.Join(t.TempDir(), "nope.json"))

	loaded, err := p.LoadState(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
	assert.False(t, p.StateExists())
}

func TestFileStateProviderCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credits.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p := NewFileStateProvider(path)
	loaded, err := p.LoadState(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStateProviderCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "credits.json")
	p := NewFileStateProvider(path)

	require.NoError(t, p.SaveState(context.Background(), State{}))
	assert.True(t, p.StateExists())
}

func TestFileStateProviderStateExistsIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	p := NewFileStateProvider(dir)
	assert.False(t, p.StateExists())
}

func TestFileStateProviderWritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credits.json")
	p := NewFileStateProvider(path)

	require.NoError(t, p.SaveState(context.Background(), State{
		"google": {Used: 1, LastReset: time.Now().UTC()},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"google\"")
}
