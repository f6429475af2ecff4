// Package playlist is the viewer's navigation core. It tracks the displayed
// image, the ordered playlist, which entries have never been shown, and the
// saved view state of every playlist slot.
//
// An Engine is owned by a single goroutine (the UI thread). Auto-play ticks
// arrive on timer goroutines and are handed back to the owner through
// Options.Dispatch before they touch any engine state.
package playlist

import (
	"context"
	"fmt"
	"log"
	"time"

	"gazer/internal/effects"
	"gazer/internal/settings"
	"gazer/internal/statestore"
	"gazer/internal/viewstate"
)

// Mode is the navigation mode of the engine.
type Mode int

const (
	// Single browses the directory of the displayed image.
	Single Mode = iota
	// Playlist cycles through an explicit, ordered image list.
	Playlist
)

func (m Mode) String() string {
	if m == Playlist {
		return "playlist"
	}
	return "single"
}

// Viewport is the surface images are drawn on.
type Viewport interface {
	// ShowImage loads path onto the surface and returns its pixel size.
	ShowImage(path string) (viewstate.Size, error)
	// CanvasSize blocks until the surface has been laid out, then returns its size.
	CanvasSize(ctx context.Context) (viewstate.Size, error)
	// ApplyTransform positions the displayed image.
	ApplyTransform(scale, pan viewstate.Vec2)
}

// AutoPlayer schedules automatic advancing. slideshow.SlideshowManager
// satisfies it.
type AutoPlayer interface {
	Start(onTick func())
	Stop()
	Running() bool
	Configure(interval time.Duration, randomness float64)
	NextIndex(current, n int, random bool) int
}

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Notifier receives short user-facing messages about navigation, saving,
// loading and mode changes.
type Notifier func(message string)

// Options configure a new Engine. Zero values get working defaults.
type Options struct {
	Playback settings.Playback
	// Effects are applied to the first image shown; fitted images afterwards
	// keep whatever effects the previous image had.
	Effects  viewstate.EffectsConfig
	AutoPlay AutoPlayer
	Animator *effects.Animator
	// Dispatch runs fn on the engine's owner goroutine. Defaults to calling fn directly.
	Dispatch func(fn func())
	Logger   LoggerFunc
	Notify   Notifier
}

// Engine holds the playlist, its per-slot saved states and the live state
// of the displayed image.
type Engine struct {
	mode    Mode
	items   []string
	index   int
	pending map[string]struct{}
	store   *statestore.Store

	current     viewstate.ViewState
	currentPath string
	imageSize   viewstate.Size
	// shown is set while current holds the state of the displayed slot.
	shown bool

	// single-mode directory listing
	dirImages []string
	dirIndex  int

	playlistPath    string
	playlistCreated time.Time

	playback settings.Playback
	viewport Viewport
	autoplay AutoPlayer
	animator *effects.Animator
	dispatch func(fn func())
	logger   LoggerFunc
	notify   Notifier
}

// New creates an Engine drawing onto viewport.
func New(viewport Viewport, opts Options) *Engine {
	fx := opts.Effects
	if fx == (viewstate.EffectsConfig{}) {
		fx = viewstate.DefaultEffects()
	}
	playback := opts.Playback
	if playback == (settings.Playback{}) {
		playback = settings.DefaultPlayback()
	}
	animator := opts.Animator
	if animator == nil {
		animator = effects.NewAnimator()
	}
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	e := &Engine{
		mode:     Single,
		pending:  make(map[string]struct{}),
		store:    statestore.New(),
		current:  viewstate.New(fx),
		playback: playback.Normalize(),
		viewport: viewport,
		autoplay: opts.AutoPlay,
		animator: animator,
		dispatch: dispatch,
		logger:   opts.Logger,
		notify:   opts.Notify,
	}
	e.configureAutoPlay()
	return e
}

func (e *Engine) logMessage(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if e.logger != nil {
		e.logger(msg)
	} else {
		log.Println(msg)
	}
}

func (e *Engine) notifyf(format string, args ...interface{}) {
	if e.notify != nil {
		e.notify(fmt.Sprintf(format, args...))
	}
}

// Mode returns the current navigation mode.
func (e *Engine) Mode() Mode { return e.mode }

// Items returns a copy of the playlist.
func (e *Engine) Items() []string {
	out := make([]string, len(e.items))
	copy(out, e.items)
	return out
}

// Index returns the current playlist position.
func (e *Engine) Index() int { return e.index }

// Position returns the 1-based position and the item count for on-screen
// display. Outside playlist mode it reports the directory position instead.
func (e *Engine) Position() (pos, count int) {
	if e.mode == Playlist {
		if len(e.items) == 0 {
			return 0, 0
		}
		return e.index + 1, len(e.items)
	}
	if e.dirIndex < 0 || len(e.dirImages) == 0 {
		return 0, 0
	}
	return e.dirIndex + 1, len(e.dirImages)
}

// CurrentPath returns the displayed image, or "" when nothing is loaded.
func (e *Engine) CurrentPath() string { return e.currentPath }

// Current returns the live state of the displayed image.
func (e *Engine) Current() viewstate.ViewState { return e.current }

// ImageSize returns the pixel size of the displayed image.
func (e *Engine) ImageSize() viewstate.Size { return e.imageSize }

// Store returns the saved per-slot states.
func (e *Engine) Store() *statestore.Store { return e.store }

// IsPending reports whether path was added and has not been shown yet.
func (e *Engine) IsPending(path string) bool {
	_, ok := e.pending[path]
	return ok
}

// Playback returns the active playback options.
func (e *Engine) Playback() settings.Playback { return e.playback }

// PlaylistPath returns the file the playlist was last saved to or loaded from.
func (e *Engine) PlaylistPath() string { return e.playlistPath }

// SetPlayback replaces the playback options, restarting or stopping
// auto-play to match.
func (e *Engine) SetPlayback(p settings.Playback) {
	e.playback = p.Normalize()
	e.configureAutoPlay()
	e.syncAutoPlay()
}

// UpdateCurrent edits the live state (pan, zoom, effect parameters) and
// pushes the result to the viewport.
func (e *Engine) UpdateCurrent(fn func(vs *viewstate.ViewState)) {
	if e.currentPath == "" {
		return
	}
	fn(&e.current)
	e.viewport.ApplyTransform(e.current.Scale, e.current.BasePan)
}

// SetEffects replaces the displayed image's effect parameters and restarts
// their animation.
func (e *Engine) SetEffects(cfg viewstate.EffectsConfig) {
	e.current.Effects = cfg
	e.current.ResetRuntime()
}

// Frame advances the effects animation by dt seconds and draws the frame.
func (e *Engine) Frame(dt float64) {
	if e.currentPath == "" {
		return
	}
	offset := e.animator.Step(dt, e.current.Effects, &e.current.Runtime)
	e.viewport.ApplyTransform(e.current.Scale, e.current.RenderedPan(offset))
}

// TriggerPulse fires a pulse on the displayed image immediately.
func (e *Engine) TriggerPulse() {
	if e.currentPath == "" {
		return
	}
	e.animator.TriggerPulse(e.current.Effects, &e.current.Runtime)
}

// FitCurrent refits the displayed image to the canvas.
func (e *Engine) FitCurrent(ctx context.Context) error {
	if e.currentPath == "" {
		return nil
	}
	canvas, err := e.viewport.CanvasSize(ctx)
	if err != nil {
		return fmt.Errorf("waiting for layout: %w", err)
	}
	e.current.Fit(e.imageSize, canvas)
	e.viewport.ApplyTransform(e.current.Scale, e.current.BasePan)
	return nil
}
