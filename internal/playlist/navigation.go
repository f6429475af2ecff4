package playlist

import (
	"context"
	"fmt"
	"path/filepath"

	"gazer/internal/scan"
	"gazer/internal/statestore"
	"gazer/internal/viewstate"
)

// Next moves to the following playlist entry, wrapping to the first.
// Outside playlist mode, or with an empty playlist, it does nothing.
func (e *Engine) Next(ctx context.Context) error {
	if e.mode != Playlist || len(e.items) == 0 {
		return nil
	}
	return e.moveTo(ctx, (e.index+1)%len(e.items))
}

// Previous moves to the preceding playlist entry, wrapping to the last.
// Outside playlist mode, or with an empty playlist, it does nothing.
func (e *Engine) Previous(ctx context.Context) error {
	if e.mode != Playlist || len(e.items) == 0 {
		return nil
	}
	n := len(e.items)
	return e.moveTo(ctx, (e.index-1+n)%n)
}

// GoTo jumps to playlist position index. Out-of-range positions are ignored.
func (e *Engine) GoTo(ctx context.Context, index int) error {
	if e.mode != Playlist || index < 0 || index >= len(e.items) {
		return nil
	}
	return e.moveTo(ctx, index)
}

// Step is the arrow-key handler: it walks the playlist in playlist mode and
// the displayed image's directory otherwise. delta is +1 or -1.
func (e *Engine) Step(ctx context.Context, delta int) error {
	if e.mode == Playlist {
		if delta < 0 {
			return e.Previous(ctx)
		}
		return e.Next(ctx)
	}
	return e.browse(ctx, delta)
}

// AutoAdvance is the auto-play tick. It saves the displayed slot like Next
// and moves sequentially or to a random other entry.
func (e *Engine) AutoAdvance(ctx context.Context) error {
	if e.mode != Playlist || len(e.items) < 2 {
		return nil
	}
	next := (e.index + 1) % len(e.items)
	if e.autoplay != nil {
		next = e.autoplay.NextIndex(e.index, len(e.items), e.playback.RandomPlayback)
	}
	return e.moveTo(ctx, next)
}

func (e *Engine) moveTo(ctx context.Context, index int) error {
	e.saveCurrent()
	e.index = index
	return e.LoadCurrent(ctx)
}

// saveCurrent snapshots the displayed slot into the store. Auto-size mode
// refits every image on display, so nothing is kept there. A slot whose image
// failed to load is skipped so its stored state survives.
func (e *Engine) saveCurrent() {
	if e.mode != Playlist || e.playback.AutoSizeWindow || !e.shown {
		return
	}
	if e.index < 0 || e.index >= len(e.items) {
		return
	}
	e.store.Save(e.currentKey(), e.current)
}

func (e *Engine) currentKey() statestore.Key {
	return statestore.Key{Path: e.items[e.index], Index: e.index}
}

// LoadCurrent displays the playlist entry at the current position.
//
// Once the image and the canvas size are available the transform and
// animation progress are reset. Then, in order: an entry that was never
// shown is fitted and loses its pending mark; an entry with a saved state for
// (path, position) gets that state back unchanged; anything else is fitted.
// In auto-size mode every entry is fitted.
func (e *Engine) LoadCurrent(ctx context.Context) error {
	if e.mode != Playlist || e.index < 0 || e.index >= len(e.items) {
		return nil
	}
	path := e.items[e.index]

	imgSize, canvas, err := e.prepare(ctx, path)
	if err != nil {
		return err
	}
	e.resetTransform()

	key := e.currentKey()
	_, isNew := e.pending[path]
	label := ""
	switch {
	case e.playback.AutoSizeWindow:
		delete(e.pending, path)
		e.current.Fit(imgSize, canvas)
	case isNew:
		delete(e.pending, path)
		e.current.Fit(imgSize, canvas)
		label = " (new)"
	default:
		if saved, ok := e.store.Restore(key); ok {
			e.current = saved
		} else {
			e.current.Fit(imgSize, canvas)
		}
	}
	e.viewport.ApplyTransform(e.current.Scale, e.current.BasePan)
	e.shown = true

	if e.autoplay == nil || !e.autoplay.Running() {
		e.notifyf("Playlist: %d/%d%s", e.index+1, len(e.items), label)
	}
	return nil
}

// resetTransform returns the live state to identity with no animation
// progress. Effect parameters carry over to the next image.
func (e *Engine) resetTransform() {
	e.current.Scale = viewstate.Vec2{X: 1, Y: 1}
	e.current.BasePan = viewstate.Vec2{}
	e.current.ResetRuntime()
}

// browse shows the image delta steps away in the current directory listing.
func (e *Engine) browse(ctx context.Context, delta int) error {
	n := len(e.dirImages)
	if n == 0 {
		return nil
	}
	i := e.dirIndex
	if i < 0 {
		i = 0
		if delta > 0 {
			delta--
		}
	}
	e.dirIndex = ((i+delta)%n + n) % n
	return e.showFitted(ctx, e.dirImages[e.dirIndex])
}

// showFitted displays path outside the playlist, always fitted.
func (e *Engine) showFitted(ctx context.Context, path string) error {
	imgSize, canvas, err := e.prepare(ctx, path)
	if err != nil {
		return err
	}
	e.resetTransform()
	e.current.Fit(imgSize, canvas)
	e.viewport.ApplyTransform(e.current.Scale, e.current.BasePan)
	e.shown = true
	return nil
}

// prepare hands path to the viewport and waits for the canvas size. The live
// state is left alone; on failure it no longer belongs to any slot.
func (e *Engine) prepare(ctx context.Context, path string) (imgSize, canvas viewstate.Size, err error) {
	e.shown = false
	e.currentPath = path

	imgSize, err = e.viewport.ShowImage(path)
	if err != nil {
		e.imageSize = viewstate.Size{}
		e.notifyf("Cannot open %s", filepath.Base(path))
		return imgSize, canvas, fmt.Errorf("failed to show %s: %w", path, err)
	}
	e.imageSize = imgSize

	canvas, err = e.viewport.CanvasSize(ctx)
	if err != nil {
		return imgSize, canvas, fmt.Errorf("waiting for layout: %w", err)
	}
	return imgSize, canvas, nil
}

// loadDirectory lists the images next to path for single-mode browsing.
func (e *Engine) loadDirectory(path string) {
	e.dirImages = nil
	e.dirIndex = -1
	images, err := scan.ListDirectory(filepath.Dir(path))
	if err != nil {
		e.logMessage("Warning: could not list directory of %s: %v", path, err)
		return
	}
	e.dirImages = images
	for i, p := range images {
		if p == path {
			e.dirIndex = i
			break
		}
	}
}
