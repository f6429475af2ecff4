// Package slideshow drives automatic playlist advancing.
package slideshow

import (
	"math/rand"
	"sync"
	"time"
)

const (
	defaultSlideshowInterval = 3 * time.Second
	// MinInterval is the shortest delay between two automatic advances.
	MinInterval = 100 * time.Millisecond
)

// SlideshowManager schedules auto-play ticks. Each delay is the base interval
// jittered by up to ±randomness percent, rolled again for every tick.
// The tick callback runs on the timer goroutine; callers that touch UI or
// playlist state must marshal back onto their own thread.
type SlideshowManager struct {
	mu                 sync.Mutex
	isPaused           bool
	wasPlayingBeforeOp bool // Tracks if slideshow was playing before a temp pause
	running            bool
	interval           time.Duration
	randomness         float64 // percent, 0-100
	rng                *rand.Rand
	timer              *time.Timer
	generation         int // bumped on Start/Stop so stale timers do nothing
	onTick             func()
}

// NewSlideshowManager creates a new SlideshowManager.
// Interval is the base time between automatic transitions.
func NewSlideshowManager(interval time.Duration, randomness float64) *SlideshowManager {
	return NewSlideshowManagerWithSource(interval, randomness, rand.NewSource(time.Now().UnixNano()))
}

// NewSlideshowManagerWithSource is NewSlideshowManager with a caller-supplied random source.
func NewSlideshowManagerWithSource(interval time.Duration, randomness float64, src rand.Source) *SlideshowManager {
	if interval <= 0 {
		interval = defaultSlideshowInterval // Default interval if invalid
	}
	return &SlideshowManager{
		interval:   interval,
		randomness: clampPercent(randomness),
		rng:        rand.New(src),
	}
}

// Configure replaces the base interval and randomness. A running slideshow
// picks them up from its next tick.
func (sm *SlideshowManager) Configure(interval time.Duration, randomness float64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if interval > 0 {
		sm.interval = interval
	}
	sm.randomness = clampPercent(randomness)
}

// Start begins calling onTick after every interval until Stop is called.
// Starting an already running slideshow restarts its timer with the new callback.
func (sm *SlideshowManager) Start(onTick func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stopLocked()
	sm.running = true
	sm.isPaused = false
	sm.wasPlayingBeforeOp = false
	sm.onTick = onTick
	sm.scheduleLocked()
}

// Stop halts the slideshow. It is safe to call when not running.
func (sm *SlideshowManager) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stopLocked()
	sm.running = false
	sm.onTick = nil
}

// Running reports whether the slideshow has been started and not stopped.
func (sm *SlideshowManager) Running() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.running
}

// TogglePlayPause toggles the play/pause state.
func (sm *SlideshowManager) TogglePlayPause() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.isPaused = !sm.isPaused
	sm.wasPlayingBeforeOp = false // User toggle overrides any operation-specific state
}

// Pause forces the slideshow to pause.
// If forOperation is true, it remembers if the slideshow was playing.
func (sm *SlideshowManager) Pause(forOperation bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if forOperation {
		sm.wasPlayingBeforeOp = sm.running && !sm.isPaused
	}
	sm.isPaused = true
}

// ResumeAfterOperation resumes the slideshow only if it was playing before Pause(true) was called.
func (sm *SlideshowManager) ResumeAfterOperation() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.wasPlayingBeforeOp {
		sm.isPaused = false
	}
	sm.wasPlayingBeforeOp = false // Reset the flag
}

// IsPaused returns true if the slideshow is currently paused.
func (sm *SlideshowManager) IsPaused() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.isPaused
}

// Interval returns the configured base interval.
func (sm *SlideshowManager) Interval() time.Duration {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.interval
}

// NextInterval rolls the delay before the next tick.
func (sm *SlideshowManager) NextInterval() time.Duration {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.nextIntervalLocked()
}

// NextIndex picks the playlist position to advance to from current in a list
// of n items. Random playback never picks current itself when n > 1.
func (sm *SlideshowManager) NextIndex(current, n int, random bool) int {
	if n <= 0 {
		return 0
	}
	if n == 1 {
		return 0
	}
	if !random {
		return (current + 1) % n
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	// draw from the n-1 other positions
	next := sm.rng.Intn(n - 1)
	if current >= 0 && current < n && next >= current {
		next++
	}
	return next
}

func (sm *SlideshowManager) nextIntervalLocked() time.Duration {
	factor := 1 + (sm.rng.Float64()*2-1)*(sm.randomness/100)
	d := time.Duration(float64(sm.interval) * factor)
	if d < MinInterval {
		d = MinInterval
	}
	return d
}

func (sm *SlideshowManager) scheduleLocked() {
	gen := sm.generation
	sm.timer = time.AfterFunc(sm.nextIntervalLocked(), func() { sm.fire(gen) })
}

func (sm *SlideshowManager) stopLocked() {
	sm.generation++
	if sm.timer != nil {
		sm.timer.Stop()
		sm.timer = nil
	}
}

func (sm *SlideshowManager) fire(gen int) {
	sm.mu.Lock()
	if gen != sm.generation || !sm.running {
		sm.mu.Unlock()
		return
	}
	paused := sm.isPaused
	tick := sm.onTick
	sm.scheduleLocked()
	sm.mu.Unlock()

	if !paused && tick != nil {
		tick()
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
