package playlist

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gazer/internal/playlistfile"
)

// ErrNothingToSave is returned by SavePlaylist when no image is displayed.
var ErrNothingToSave = errors.New("no images to save")

// SavePlaylist writes the playlist to path. Outside playlist mode the
// displayed image is saved as a one-entry playlist. The displayed slot's
// live state is captured before writing.
func (e *Engine) SavePlaylist(path string, opts playlistfile.SaveOptions) error {
	items := e.items
	index := e.index
	if e.mode != Playlist {
		if e.currentPath == "" {
			return ErrNothingToSave
		}
		items = []string{e.currentPath}
		index = 0
	}
	if len(items) == 0 {
		return ErrNothingToSave
	}

	e.saveCurrent()
	if !e.shown {
		index = -1
	}
	src := playlistfile.Source{
		Items:        items,
		CurrentIndex: index,
		Current:      e.current,
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if abs != e.playlistPath || e.playlistCreated.IsZero() {
		src.Created = time.Now()
	} else {
		src.Created = e.playlistCreated
	}

	if err := playlistfile.Save(path, src, e.store, e.playback, opts); err != nil {
		e.notifyf("Failed to save playlist")
		return fmt.Errorf("saving playlist %s: %w", path, err)
	}
	e.playlistPath = abs
	e.playlistCreated = src.Created
	e.notifyf("Saved playlist %s (%d images)", filepath.Base(path), len(items))
	return nil
}

// LoadPlaylist reads path and, once it resolves, replaces the current
// playlist with it. A failed load leaves the engine untouched.
func (e *Engine) LoadPlaylist(ctx context.Context, path string) (*playlistfile.LoadResult, error) {
	res, err := playlistfile.Load(path)
	if err != nil {
		e.notifyf("Failed to load playlist %s", filepath.Base(path))
		return nil, err
	}
	if err := e.ApplyLoaded(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}
