package playlist

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gazer/internal/playlistfile"
)

// ErrEmptyPlaylist is returned when a loaded playlist carries no items.
var ErrEmptyPlaylist = errors.New("playlist has no items")

// EnterPlaylistMode switches to playlist mode. From single mode the list is
// rebuilt with seedPath (the displayed image, may be "") at position 0
// followed by newItems; in playlist mode newItems are appended. Every path
// in newItems is marked as never shown. The current position is unchanged.
func (e *Engine) EnterPlaylistMode(seedPath string, newItems []string) {
	if e.mode != Playlist {
		e.items = e.items[:0]
		e.index = 0
		if seedPath != "" {
			e.items = append(e.items, seedPath)
		}
		e.mode = Playlist
	}
	for _, p := range newItems {
		e.items = append(e.items, p)
		e.pending[p] = struct{}{}
	}
	e.syncAutoPlay()
}

// ExitPlaylistMode returns to single mode, forgetting the playlist and every
// saved state. The displayed image stays on screen.
func (e *Engine) ExitPlaylistMode() {
	if e.mode != Playlist {
		return
	}
	e.resetPlaylist()
	if e.currentPath != "" {
		e.loadDirectory(e.currentPath)
	}
	e.notifyf("Exited playlist mode")
}

func (e *Engine) resetPlaylist() {
	e.stopAutoPlay()
	e.mode = Single
	e.items = nil
	e.index = 0
	e.store.Clear()
	clear(e.pending)
	e.playlistPath = ""
	e.playlistCreated = time.Time{}
}

// OpenSingle displays path on its own, leaving any playlist, and makes its
// directory the browsing list.
func (e *Engine) OpenSingle(ctx context.Context, path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if e.mode == Playlist {
		e.resetPlaylist()
	}
	e.store.Clear()
	e.loadDirectory(path)
	return e.showFitted(ctx, path)
}

// DropFiles handles images dropped onto the viewer.
//
// With nothing displayed the first image opens; dropping several builds a
// fresh playlist from them. With a single image displayed that image becomes
// position 0, the drop is appended and the first dropped image is shown. In
// playlist mode the displayed slot is saved, the drop is appended and the
// viewer jumps to the last occurrence of the first dropped path.
func (e *Engine) DropFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	switch {
	case e.currentPath == "":
		if len(paths) == 1 {
			return e.OpenSingle(ctx, paths[0])
		}
		e.store.Clear()
		clear(e.pending)
		e.mode = Playlist
		e.items = append([]string(nil), paths...)
		e.index = 0
		e.dirImages = nil
		e.notifyf("Created playlist (%d images)", len(e.items))
		e.syncAutoPlay()
		return e.LoadCurrent(ctx)

	case e.mode != Playlist:
		seed := e.currentPath
		e.EnterPlaylistMode(seed, paths)
		e.saveCurrent()
		e.index = 1
		return e.LoadCurrent(ctx)

	default:
		e.saveCurrent()
		e.EnterPlaylistMode("", paths)
		e.index = lastIndexOf(e.items, paths[0])
		return e.LoadCurrent(ctx)
	}
}

// ReAddCurrent drops the displayed image into the playlist again, giving the
// new entry a state of its own.
func (e *Engine) ReAddCurrent(ctx context.Context) error {
	if e.currentPath == "" {
		return nil
	}
	return e.DropFiles(ctx, []string{e.currentPath})
}

// ApplyLoaded replaces the playlist with a loaded one and shows its first
// entry. The engine keeps its own copy of res.Store. Nothing changes when res
// is nil or empty.
func (e *Engine) ApplyLoaded(ctx context.Context, res *playlistfile.LoadResult) error {
	if res == nil || len(res.Items) == 0 || res.Store == nil {
		return ErrEmptyPlaylist
	}
	e.stopAutoPlay()
	clear(e.pending)
	e.mode = Playlist
	e.items = append([]string(nil), res.Items...)
	e.index = 0
	e.store = res.Store.Clone()
	e.dirImages = nil
	e.playlistPath = res.Path
	e.playlistCreated = res.Created
	e.playback = res.Playback.Normalize()
	e.configureAutoPlay()

	msg := fmt.Sprintf("Loaded playlist %s (%d images)", res.Name, len(e.items))
	if n := len(res.Skipped); n > 0 {
		msg += fmt.Sprintf(", %d missing", n)
		for _, p := range res.Skipped {
			e.logMessage("Playlist %s: missing image %s", res.Name, p)
		}
	}
	e.notifyf("%s", msg)

	err := e.LoadCurrent(ctx)
	e.syncAutoPlay()
	return err
}

func lastIndexOf(items []string, path string) int {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] == path {
			return i
		}
	}
	return 0
}

func (e *Engine) configureAutoPlay() {
	if e.autoplay == nil {
		return
	}
	interval := time.Duration(e.playback.AutoPlayInterval * float64(time.Second))
	e.autoplay.Configure(interval, e.playback.AutoPlayRandomness)
}

// syncAutoPlay starts auto-play when it is enabled and there is more than
// one entry to cycle through, and stops it otherwise.
func (e *Engine) syncAutoPlay() {
	if e.autoplay == nil {
		return
	}
	want := e.playback.AutoPlayEnabled && e.mode == Playlist && len(e.items) > 1
	switch {
	case want && !e.autoplay.Running():
		e.autoplay.Start(func() {
			e.dispatch(func() {
				if err := e.AutoAdvance(context.Background()); err != nil {
					e.logMessage("Auto-play: %v", err)
				}
			})
		})
	case !want && e.autoplay.Running():
		e.autoplay.Stop()
	}
}

func (e *Engine) stopAutoPlay() {
	if e.autoplay != nil && e.autoplay.Running() {
		e.autoplay.Stop()
	}
}

// ToggleAutoPlay flips the auto-play option and reports the new value.
func (e *Engine) ToggleAutoPlay() bool {
	e.playback.AutoPlayEnabled = !e.playback.AutoPlayEnabled
	e.syncAutoPlay()
	if e.playback.AutoPlayEnabled {
		e.notifyf("Auto-play on")
	} else {
		e.notifyf("Auto-play off")
	}
	return e.playback.AutoPlayEnabled
}
