package playlistfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gazer/internal/settings"
	"gazer/internal/statestore"
	"gazer/internal/viewstate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0644))
	return path
}

func makeImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = touch(t, filepath.Join(dir, n))
	}
	return paths
}

func stateFor(seed float64) viewstate.ViewState {
	return viewstate.ViewState{
		Scale:   viewstate.Vec2{X: seed, Y: seed + 0.5},
		BasePan: viewstate.Vec2{X: seed * 10, Y: -seed * 3},
		Effects: viewstate.EffectsConfig{
			EnableShake:     true,
			ShakeAmount:     seed + 1,
			ShakeFrequency:  seed + 2,
			EnablePulse:     seed > 1,
			PulseInterval:   seed + 3,
			PulseRandomness: seed + 4,
			PulseDamping:    seed + 5,
			PulsePowerX:     seed + 6,
			PulsePowerY:     seed + 7,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, filepath.Join(dir, "pics"), "a.jpg", "b.png", "a.jpg")
	items[2] = items[0] // same file at two positions

	store := statestore.New()
	store.Save(statestore.Key{Path: items[0], Index: 0}, stateFor(1))
	store.Save(statestore.Key{Path: items[2], Index: 2}, stateFor(2))

	playback := settings.Playback{
		AutoPlayEnabled:    true,
		AutoPlayInterval:   4.5,
		AutoPlayRandomness: 20,
		RandomPlayback:     true,
		AutoSizeWindow:     false,
	}
	live := stateFor(3)
	live.Runtime.ShakeClock = 7 // not persisted

	listPath := filepath.Join(dir, "session.gzpl")
	require.NoError(t, Save(listPath, Source{Items: items, CurrentIndex: 1, Current: live}, store, playback, SaveOptions{}))

	res, err := Load(listPath)
	require.NoError(t, err)
	assert.Equal(t, items, res.Items)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, "session", res.Name)
	assert.Equal(t, FormatVersion, res.Version)
	assert.Equal(t, playback, res.Playback)

	got, ok := res.Store.Restore(statestore.Key{Path: items[0], Index: 0})
	require.True(t, ok)
	assert.Equal(t, stateFor(1), got)

	got, ok = res.Store.Restore(statestore.Key{Path: items[2], Index: 2})
	require.True(t, ok)
	assert.Equal(t, stateFor(2), got)

	got, ok = res.Store.Restore(statestore.Key{Path: items[1], Index: 1})
	require.True(t, ok, "current slot falls back to the live state")
	assert.Equal(t, stateFor(3), got)
	assert.Equal(t, viewstate.EffectsRuntime{}, got.Runtime)

	for _, r := range res.Resolutions {
		assert.Equal(t, RuleAbsolute, r.Rule)
	}
}

func TestSaveWritesDefaultStateForUnvisitedSlots(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, dir, "1.jpg", "2.jpg", "3.jpg")
	listPath := filepath.Join(dir, "list.gzpl")
	live := stateFor(5)
	live.Runtime = viewstate.EffectsRuntime{}

	require.NoError(t, Save(listPath, Source{Items: items, CurrentIndex: 0, Current: live},
		statestore.New(), settings.DefaultPlayback(), SaveOptions{}))

	raw, err := os.ReadFile(listPath)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	for i, e := range generic["Items"].([]any) {
		assert.Contains(t, e.(map[string]any), "State", "item %d", i)
	}

	res, err := Load(listPath)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Store.Len())
	got, ok := res.Store.Restore(statestore.Key{Path: items[0], Index: 0})
	require.True(t, ok)
	assert.Equal(t, live, got)
	for i := 1; i < 3; i++ {
		got, ok := res.Store.Restore(statestore.Key{Path: items[i], Index: i})
		require.True(t, ok)
		assert.Equal(t, viewstate.Default(), got)
	}
	for _, r := range res.Resolutions {
		assert.True(t, r.HasState)
	}
}

func TestSaveCreatesReadablePlaylist(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, dir, "1.jpg")
	listPath := filepath.Join(dir, "perm.gzpl")
	require.NoError(t, Save(listPath, Source{Items: items, CurrentIndex: -1}, nil, settings.DefaultPlayback(), SaveOptions{}))

	info, err := os.Stat(listPath)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	}

	require.NoError(t, os.Chmod(listPath, 0600))
	require.NoError(t, Save(listPath, Source{Items: items, CurrentIndex: -1}, nil, settings.DefaultPlayback(), SaveOptions{}))
	info, err = os.Stat(listPath)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "re-saving keeps the existing mode")
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files are left behind")
}

func TestSaveWritesExpectedDocument(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, filepath.Join(dir, "sub"), "x.jpg")
	listPath := filepath.Join(dir, "doc.gzpl")
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, Save(listPath, Source{Items: items, Current: viewstate.Default()}, nil,
		settings.DefaultPlayback(), SaveOptions{Now: func() time.Time { return fixed }}))

	raw, err := os.ReadFile(listPath)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))

	assert.Equal(t, "doc", generic["Name"])
	assert.Equal(t, "1.0", generic["Version"])
	assert.Equal(t, "2024-05-01T12:00:00Z", generic["CreatedDate"])

	entries := generic["Items"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, items[0], entry["FilePath"])
	assert.Equal(t, "sub/x.jpg", entry["RelativePath"])

	st := entry["State"].(map[string]any)
	assert.Len(t, st, 15)
	assert.Equal(t, 1.0, st["ScaleX"])

	set := generic["Settings"].(map[string]any)
	assert.Equal(t, true, set["AutoSizeWindow"])
	assert.Equal(t, 3.0, set["AutoPlayInterval"])
}

func TestSaveAbsolutePathsOnly(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, dir, "x.jpg")
	listPath := filepath.Join(dir, "abs.gzpl")

	require.NoError(t, Save(listPath, Source{Items: items}, nil, settings.DefaultPlayback(),
		SaveOptions{AbsolutePathsOnly: true}))

	raw, err := os.ReadFile(listPath)
	require.NoError(t, err)
	var doc document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "", doc.Items[0].RelativePath)
}

func TestSavePreservesCreatedDate(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, dir, "x.jpg")
	listPath := filepath.Join(dir, "keep.gzpl")
	created := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, Save(listPath, Source{Items: items, Created: created}, nil, settings.DefaultPlayback(), SaveOptions{}))
	res, err := Load(listPath)
	require.NoError(t, err)
	assert.True(t, created.Equal(res.Created))
	assert.True(t, res.Modified.After(created))
}

func TestLoadRelativeAfterMove(t *testing.T) {
	oldRoot := t.TempDir()
	items := makeImages(t, filepath.Join(oldRoot, "album"), "one.jpg", "two.jpg")
	store := statestore.New()
	store.Save(statestore.Key{Path: items[1], Index: 1}, stateFor(4))
	require.NoError(t, Save(filepath.Join(oldRoot, "trip.gzpl"), Source{Items: items, CurrentIndex: 1}, store,
		settings.DefaultPlayback(), SaveOptions{}))

	newRoot := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, os.Rename(oldRoot, newRoot))

	res, err := Load(filepath.Join(newRoot, "trip.gzpl"))
	require.NoError(t, err)

	want := []string{
		filepath.Join(newRoot, "album", "one.jpg"),
		filepath.Join(newRoot, "album", "two.jpg"),
	}
	assert.Equal(t, want, res.Items)
	assert.Empty(t, res.Skipped)
	for _, r := range res.Resolutions {
		assert.Equal(t, RuleRelative, r.Rule)
	}

	got, ok := res.Store.Restore(statestore.Key{Path: want[1], Index: 1})
	require.True(t, ok)
	assert.Equal(t, stateFor(4), got)
}

func TestLoadFilenameFallback(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "lonely.jpg"))
	doc := `{"Items":[{"FilePath":"C:\\Users\\someone\\Pictures\\lonely.jpg","RelativePath":"..\\Pictures\\lonely.jpg"}]}`
	listPath := filepath.Join(dir, "win.gzpl")
	require.NoError(t, os.WriteFile(listPath, []byte(doc), 0644))

	res, err := Load(listPath)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "lonely.jpg")}, res.Items)
	assert.Equal(t, RuleFilename, res.Resolutions[0].Rule)
	assert.Equal(t, "win", res.Name)
	assert.Equal(t, 0, res.Store.Len())
}

func TestLoadPartialFailure(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, filepath.Join(dir, "set"), "1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg")
	store := statestore.New()
	for i, p := range items {
		store.Save(statestore.Key{Path: p, Index: i}, stateFor(float64(i+1)))
	}
	listPath := filepath.Join(dir, "five.gzpl")
	require.NoError(t, Save(listPath, Source{Items: items}, store, settings.DefaultPlayback(), SaveOptions{}))

	require.NoError(t, os.Remove(items[1]))
	require.NoError(t, os.Remove(items[3]))

	res, err := Load(listPath)
	require.NoError(t, err)
	assert.Equal(t, []string{items[0], items[2], items[4]}, res.Items)
	assert.Equal(t, []string{items[1], items[3]}, res.Skipped)

	// surviving states are re-keyed to their new positions
	got, ok := res.Store.Restore(statestore.Key{Path: items[2], Index: 1})
	require.True(t, ok)
	assert.Equal(t, stateFor(3), got)
	got, ok = res.Store.Restore(statestore.Key{Path: items[4], Index: 2})
	require.True(t, ok)
	assert.Equal(t, stateFor(5), got)
	assert.Equal(t, 3, res.Store.Len())
}

func TestLoadAllMissingFails(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, filepath.Join(dir, "set"), "1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg")
	listPath := filepath.Join(dir, "gone.gzpl")
	require.NoError(t, Save(listPath, Source{Items: items}, nil, settings.DefaultPlayback(), SaveOptions{}))
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "set")))

	res, err := Load(listPath)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedPlaylist))
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.gzpl"))
	assert.True(t, errors.Is(err, ErrFileNotFound))

	bad := filepath.Join(dir, "bad.gzpl")
	require.NoError(t, os.WriteFile(bad, []byte("{ not json"), 0644))
	_, err = Load(bad)
	assert.True(t, errors.Is(err, ErrMalformedPlaylist))

	empty := filepath.Join(dir, "empty.gzpl")
	require.NoError(t, os.WriteFile(empty, []byte(`{"Name":"x","Items":[]}`), 0644))
	_, err = Load(empty)
	assert.True(t, errors.Is(err, ErrMalformedPlaylist))

	_, err = Load(dir)
	assert.True(t, errors.Is(err, ErrIOFailure))
}

func TestLoadToleratesUnknownAndMissingFields(t *testing.T) {
	dir := t.TempDir()
	img := touch(t, filepath.Join(dir, "p.jpg"))
	doc := map[string]any{
		"Name":        "legacy",
		"CreatedDate": "2023-11-05T08:15:30.1234567",
		"Future":      []int{1, 2, 3},
		"Items": []any{
			map[string]any{
				"FilePath": img,
				"Extra":    "ignored",
				"State":    map[string]any{"ScaleX": 2.0, "TranslateX": 5.0, "EnablePulse": true},
			},
		},
		"Settings": map[string]any{"AutoPlayInterval": 0.01},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	listPath := filepath.Join(dir, "legacy.gzpl")
	require.NoError(t, os.WriteFile(listPath, raw, 0644))

	res, err := Load(listPath)
	require.NoError(t, err)
	assert.Equal(t, "legacy", res.Name)
	assert.Equal(t, 2023, res.Created.Year())
	assert.True(t, res.Modified.IsZero())

	got, ok := res.Store.Restore(statestore.Key{Path: img, Index: 0})
	require.True(t, ok)
	want := viewstate.Default()
	want.Scale = viewstate.Vec2{X: 2, Y: 1}
	want.BasePan = viewstate.Vec2{X: 5}
	want.Effects.EnablePulse = true
	assert.Equal(t, want, got)

	wantPlayback := settings.DefaultPlayback()
	wantPlayback.AutoPlayInterval = 0.1
	assert.Equal(t, wantPlayback, res.Playback)
}

func TestFailedSaveKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	items := makeImages(t, dir, "x.jpg")
	listPath := filepath.Join(dir, "keep.gzpl")
	require.NoError(t, Save(listPath, Source{Items: items}, nil, settings.DefaultPlayback(), SaveOptions{}))
	before, err := os.ReadFile(listPath)
	require.NoError(t, err)

	err = Save(filepath.Join(dir, "missing-dir", "new.gzpl"), Source{Items: items}, nil, settings.DefaultPlayback(), SaveOptions{})
	assert.True(t, errors.Is(err, ErrIOFailure))

	after, err := os.ReadFile(listPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIsPlaylistFile(t *testing.T) {
	assert.True(t, IsPlaylistFile("/x/y.gzpl"))
	assert.True(t, IsPlaylistFile("Y.GZPL"))
	assert.False(t, IsPlaylistFile("y.jpg"))
}
