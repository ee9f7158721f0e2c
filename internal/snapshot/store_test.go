package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgerhart/aegisrange/internal/model"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path, nil)

	snap := model.Snapshot{
		Level:  3,
		Score:  7200,
		Uptime: 86.5,
		Rules: []model.Rule{
			{ID: "r1", ConditionType: model.EventLoginFail, Threshold: 5, Enabled: true, CreatedAt: time.Unix(1700000000, 0).UTC()},
			{ID: "r2", ConditionType: model.EventDNSQuery, Pattern: ".xyz", Enabled: true, CreatedAt: time.Unix(1700000100, 0).UTC()},
		},
		LevelProgress: 1200,
	}

	require.NoError(t, store.Save(snap))

	loaded, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, snap, loaded)
}

func TestStore_UnknownKeysDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	payload := `{
		"level": 2,
		"score": 500,
		"uptime": 99.0,
		"rules": [],
		"level_progress": 500,
		"events": [{"id": "should-not-survive"}],
		"pending_malicious_events": [{}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	store := NewStore(path, nil)
	loaded, ok := store.Load()

	require.True(t, ok)
	assert.Equal(t, 2, loaded.Level)
	assert.Equal(t, 500, loaded.Score)

	// Re-saving writes only the allow-listed fields.
	require.NoError(t, store.Save(loaded))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should-not-survive")
	assert.NotContains(t, string(data), "pending_malicious_events")
}

func TestStore_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"), nil)

	_, ok := store.Load()
	assert.False(t, ok)
}

func TestStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path, nil)
	_, ok := store.Load()
	assert.False(t, ok)
}

func TestStore_EmptyPathDisablesPersistence(t *testing.T) {
	store := NewStore("", nil)

	assert.NoError(t, store.Save(model.Snapshot{Score: 100}))
	_, ok := store.Load()
	assert.False(t, ok)
}
