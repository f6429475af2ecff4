package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gazer/internal/playlistfile"
	"gazer/internal/service"
	"gazer/internal/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGetService(dbPath string, logger settings.LoggerFunc) (*service.Service, error) {
	store, err := settings.NewStore(dbPath, logger)
	if err != nil {
		return nil, err
	}
	return service.NewService(store, logger), nil
}

// executeCommandC executes a fresh root command and captures its output.
func executeCommandC(args ...string) (string, string, error) {
	// Reset global flags that might be sticky from other tests.
	dbPathFlag = ""
	outputFlag = ""
	absoluteFlag = false
	autoPlayFlag = false
	intervalFlag = 3
	randomFlag = false
	autoSizeFlag = true
	forgetFlag = ""
	showStateFlag = false

	root := NewRootCmd(testGetService)
	actualStdout := new(bytes.Buffer)
	actualStderr := new(bytes.Buffer)
	root.SetOut(actualStdout)
	root.SetErr(actualStderr)
	root.SetArgs(args)

	err := root.Execute()

	return actualStdout.String(), actualStderr.String(), err
}

func writePNG(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 6))))
	return path
}

func TestRootHelp(t *testing.T) {
	stdout, stderr, err := executeCommandC("--help")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "gazer-cli [command]")
}

func TestCreateShowAndRecent(t *testing.T) {
	dbDir := t.TempDir()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "imgs", "b.png"))
	writePNG(t, filepath.Join(dir, "imgs", "a.png"))
	out := filepath.Join(dir, "mine")

	stdout, stderr, err := executeCommandC("--dbpath", dbDir, "create", out, filepath.Join(dir, "imgs"), "--autoplay", "--interval", "5")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "with 2 images")

	res, err := playlistfile.Load(out + ".gzpl")
	require.NoError(t, err)
	assert.True(t, res.Playback.AutoPlayEnabled)
	assert.InDelta(t, 5, res.Playback.AutoPlayInterval, 1e-9)
	assert.True(t, res.Playback.AutoSizeWindow)

	stdout, stderr, err = executeCommandC("--dbpath", dbDir, "show", "--state", out+".gzpl")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Name:     mine")
	assert.Contains(t, stdout, "2 loaded, 0 missing")
	assert.Contains(t, stdout, "[absolute] "+filepath.Join(dir, "imgs", "a.png"))
	assert.Contains(t, stdout, "scale=1.000 pan=(0.0,0.0)")
	assert.NotContains(t, stdout, "(fit to window)")

	bare := filepath.Join(dir, "bare.gzpl")
	doc := `{"Items":[{"FilePath":"` + filepath.ToSlash(filepath.Join(dir, "imgs", "a.png")) + `"}]}`
	require.NoError(t, os.WriteFile(bare, []byte(doc), 0644))
	stdout, stderr, err = executeCommandC("--dbpath", dbDir, "show", "--state", bare)
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "(fit to window)")

	stdout, _, err = executeCommandC("--dbpath", dbDir, "recent")
	require.NoError(t, err)
	assert.Contains(t, stdout, " 1. "+out+".gzpl")

	stdout, _, err = executeCommandC("--dbpath", dbDir, "recent", "--forget", out+".gzpl")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No recent playlists.")
}

func TestShowMissingPlaylist(t *testing.T) {
	_, _, err := executeCommandC("--dbpath", t.TempDir(), "show", filepath.Join(t.TempDir(), "nope.gzpl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, playlistfile.ErrFileNotFound)
}

func TestRelinkCommand(t *testing.T) {
	dbDir := t.TempDir()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "set", "x.png"))
	gone := writePNG(t, filepath.Join(root, "set", "y.png"))
	list := filepath.Join(root, "list.gzpl")

	_, _, err := executeCommandC("--dbpath", dbDir, "create", list, filepath.Join(root, "set"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(gone))

	moved := filepath.Join(t.TempDir(), "moved")
	require.NoError(t, os.Rename(root, moved))
	fixed := filepath.Join(moved, "fixed.gzpl")

	stdout, stderr, err := executeCommandC("--dbpath", dbDir, "relink", filepath.Join(moved, "list.gzpl"), "-o", fixed)
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "1 items, 1 relinked, 1 dropped")
	assert.Contains(t, stdout, "dropped "+gone)

	res, err := playlistfile.Load(fixed)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(moved, "set", "x.png")}, res.Items)
}

func TestInfoCommand(t *testing.T) {
	img := writePNG(t, filepath.Join(t.TempDir(), "pic.png"))
	stdout, stderr, err := executeCommandC("--dbpath", t.TempDir(), "info", img)
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "pic.png: 8x6 png")
}

func TestPresetCommands(t *testing.T) {
	dbDir := t.TempDir()

	stdout, _, err := executeCommandC("--dbpath", dbDir, "preset", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No presets stored.")

	stdout, stderr, err := executeCommandC("--dbpath", dbDir, "preset", "save", "2")
	require.NoError(t, err, "stdout: %s, stderr: %s", stdout, stderr)
	assert.Contains(t, stdout, "Saved preset 2 (Preset 2).")

	stdout, _, err = executeCommandC("--dbpath", dbDir, "preset", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "2. Preset 2: shake=true(20.0@1.5)")

	stdout, _, err = executeCommandC("--dbpath", dbDir, "preset", "apply", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Applied preset 2 (Preset 2).")

	_, _, err = executeCommandC("--dbpath", dbDir, "preset", "apply", "1")
	assert.ErrorIs(t, err, service.ErrPresetNotFound)

	_, _, err = executeCommandC("--dbpath", dbDir, "preset", "save", "9")
	assert.Error(t, err)
}

func TestNewRootCmdSubcommands(t *testing.T) {
	a := NewRootCmd(testGetService)
	b := NewRootCmd(testGetService)
	assert.NotSame(t, a, b)
	var names []string
	for _, c := range a.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"show", "create", "relink", "info", "preset", "recent"})
}
