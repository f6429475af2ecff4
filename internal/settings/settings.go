// Package settings defines the viewer preferences, effect presets and the
// bbolt-backed store that persists them between sessions.
package settings

import (
	"fmt"

	"gazer/internal/viewstate"
)

const (
	// PresetSlots is the number of effect preset slots.
	PresetSlots = 4

	minAutoPlayInterval = 0.1 // seconds
)

// Playback holds the auto-play and window options that travel with a playlist file.
type Playback struct {
	AutoPlayEnabled    bool    `json:"auto_play_enabled"`
	AutoPlayInterval   float64 `json:"auto_play_interval"`   // seconds
	AutoPlayRandomness float64 `json:"auto_play_randomness"` // 0-100, percent jitter on the interval
	RandomPlayback     bool    `json:"random_playback"`
	AutoSizeWindow     bool    `json:"auto_size_window"`
}

// DefaultPlayback returns the playback options used when nothing is configured.
func DefaultPlayback() Playback {
	return Playback{
		AutoPlayEnabled:    false,
		AutoPlayInterval:   3.0,
		AutoPlayRandomness: 0,
		RandomPlayback:     false,
		AutoSizeWindow:     true,
	}
}

// Normalize clamps out-of-range values back into their valid ranges.
func (p Playback) Normalize() Playback {
	if p.AutoPlayInterval < minAutoPlayInterval {
		p.AutoPlayInterval = minAutoPlayInterval
	}
	if p.AutoPlayRandomness < 0 {
		p.AutoPlayRandomness = 0
	} else if p.AutoPlayRandomness > 100 {
		p.AutoPlayRandomness = 100
	}
	return p
}

// Color is an opaque RGB background color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// AppSettings are the persisted viewer preferences.
type AppSettings struct {
	ShowNotifications bool                    `json:"show_notifications"`
	AutoBorderless    bool                    `json:"auto_borderless"`
	UseAbsolutePaths  bool                    `json:"use_absolute_paths"`
	Background        Color                   `json:"background"`
	Playback          Playback                `json:"playback"`
	Effects           viewstate.EffectsConfig `json:"effects"` // effects applied to freshly opened images
}

// Default returns the settings of a fresh installation.
func Default() AppSettings {
	return AppSettings{
		ShowNotifications: false,
		AutoBorderless:    true,
		UseAbsolutePaths:  false,
		Background:        Color{R: 240, G: 240, B: 240},
		Playback:          DefaultPlayback(),
		Effects: viewstate.EffectsConfig{
			EnableShake:     true,
			ShakeAmount:     20,
			ShakeFrequency:  1.5,
			EnablePulse:     false,
			PulseInterval:   0.5,
			PulseRandomness: 30,
			PulseDamping:    10,
			PulsePowerX:     100,
			PulsePowerY:     100,
		},
	}
}

// Preset is a named snapshot of effect parameters stored in one of the preset slots.
type Preset struct {
	Slot    int                     `json:"slot"`
	Name    string                  `json:"name"`
	Effects viewstate.EffectsConfig `json:"effects"`
}

// DefaultPresetName is the name given to a preset saved without one.
func DefaultPresetName(slot int) string {
	return fmt.Sprintf("Preset %d", slot+1)
}

// ValidSlot reports whether slot addresses one of the preset slots.
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < PresetSlots
}
