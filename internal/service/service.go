package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gazer/internal/history"
	"gazer/internal/playlistfile"
	"gazer/internal/scan"
	"gazer/internal/settings"
	"gazer/internal/viewstate"
)

// ErrPresetNotFound is returned when applying an empty preset slot.
var ErrPresetNotFound = errors.New("preset not found")

// SettingsStore abstracts the settings DB for easier testing and decoupling.
type SettingsStore interface {
	LoadSettings() (settings.AppSettings, error)
	SaveSettings(cfg settings.AppSettings) error
	SavePreset(p settings.Preset) error
	Preset(slot int) (settings.Preset, bool, error)
	Presets() ([]settings.Preset, error)
	DeletePreset(slot int) error
	LoadRecent() ([]string, error)
	SaveRecent(paths []string) error
	Close() error
}

// Service is the main entry point for business logic shared by the GUI and CLI.
type Service struct {
	Store  SettingsStore
	Images *ImageService
	Logger func(string)
}

// NewService constructs a new Service.
func NewService(store SettingsStore, logger func(string)) *Service {
	if logger == nil {
		logger = func(string) {}
	}
	return &Service{
		Store:  store,
		Images: NewImageService(),
		Logger: logger,
	}
}

// InspectPlaylist loads and resolves a playlist without displaying it.
func (s *Service) InspectPlaylist(path string) (*playlistfile.LoadResult, error) {
	res, err := playlistfile.Load(path)
	if err != nil {
		return nil, err
	}
	for _, skipped := range res.Skipped {
		s.Logger(fmt.Sprintf("Missing image in %s: %s", filepath.Base(path), skipped))
	}
	return res, nil
}

// CreatePlaylist writes a new playlist from images and directories (walked
// recursively). Every entry starts from the default state. It returns the
// number of images written.
func (s *Service) CreatePlaylist(out string, inputs []string, playback settings.Playback, absolutePathsOnly bool) (int, error) {
	images, err := scan.ExpandArgs(inputs)
	if err != nil {
		return 0, err
	}
	if len(images) == 0 {
		return 0, errors.New("no images found in the given paths")
	}
	src := playlistfile.Source{Items: images, CurrentIndex: -1}
	opts := playlistfile.SaveOptions{AbsolutePathsOnly: absolutePathsOnly}
	if err := playlistfile.Save(out, src, nil, playback, opts); err != nil {
		return 0, err
	}
	s.Logger(fmt.Sprintf("Created playlist %s with %d images", out, len(images)))
	if err := s.RecordRecent(out); err != nil {
		s.Logger(fmt.Sprintf("Warning: could not update recent playlists: %v", err))
	}
	return len(images), nil
}

// RelinkPlaylist resolves moved images in the playlist at in and writes the
// result to out (in itself when out is empty). Missing images are dropped.
func (s *Service) RelinkPlaylist(in, out string) (*playlistfile.LoadResult, error) {
	res, err := s.InspectPlaylist(in)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = in
	}
	src := playlistfile.Source{Items: res.Items, CurrentIndex: -1, Created: res.Created}
	if err := playlistfile.Save(out, src, res.Store, res.Playback, playlistfile.SaveOptions{}); err != nil {
		return nil, err
	}
	s.Logger(fmt.Sprintf("Relinked %s: %d kept, %d dropped", filepath.Base(in), len(res.Items), len(res.Skipped)))
	return res, nil
}

// RecordRecent moves path to the front of the recent playlist list.
func (s *Service) RecordRecent(path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	paths, err := s.Store.LoadRecent()
	if err != nil {
		return err
	}
	rl := history.NewRecentList(history.DefaultCapacity, paths)
	rl.Record(path)
	return s.Store.SaveRecent(rl.Items())
}

// ForgetRecent removes path from the recent playlist list.
func (s *Service) ForgetRecent(path string) error {
	paths, err := s.Store.LoadRecent()
	if err != nil {
		return err
	}
	rl := history.NewRecentList(history.DefaultCapacity, paths)
	if !rl.Remove(path) {
		return nil
	}
	return s.Store.SaveRecent(rl.Items())
}

// RecentPlaylists returns the recent playlists, most recent first.
func (s *Service) RecentPlaylists() ([]string, error) {
	return s.Store.LoadRecent()
}

// SavePreset stores fx in slot. An empty name gets the slot's default name.
func (s *Service) SavePreset(slot int, name string, fx viewstate.EffectsConfig) (settings.Preset, error) {
	p := settings.Preset{Slot: slot, Name: name, Effects: fx}
	if err := s.Store.SavePreset(p); err != nil {
		return settings.Preset{}, err
	}
	if p.Name == "" {
		p.Name = settings.DefaultPresetName(slot)
	}
	s.Logger(fmt.Sprintf("Saved preset %d (%s)", slot+1, p.Name))
	return p, nil
}

// ApplyPreset returns the effects stored in slot.
func (s *Service) ApplyPreset(slot int) (settings.Preset, error) {
	p, ok, err := s.Store.Preset(slot)
	if err != nil {
		return settings.Preset{}, err
	}
	if !ok {
		return settings.Preset{}, fmt.Errorf("%w: slot %d", ErrPresetNotFound, slot+1)
	}
	return p, nil
}

// ListPresets returns the filled preset slots in slot order.
func (s *Service) ListPresets() ([]settings.Preset, error) {
	return s.Store.Presets()
}

// LoadSettings returns the persisted viewer settings.
func (s *Service) LoadSettings() (settings.AppSettings, error) {
	return s.Store.LoadSettings()
}

// SaveSettings persists the viewer settings.
func (s *Service) SaveSettings(cfg settings.AppSettings) error {
	cfg.Playback = cfg.Playback.Normalize()
	return s.Store.SaveSettings(cfg)
}

// DescribeState renders a saved view state as a one-line summary.
func DescribeState(vs viewstate.ViewState) string {
	fx := ""
	if vs.Effects.EnableShake {
		fx += fmt.Sprintf(" shake=%.1f@%.1f", vs.Effects.ShakeAmount, vs.Effects.ShakeFrequency)
	}
	if vs.Effects.EnablePulse {
		fx += fmt.Sprintf(" pulse=%.0f/%.0f every %.2fs", vs.Effects.PulsePowerX, vs.Effects.PulsePowerY, vs.Effects.PulseInterval)
	}
	return fmt.Sprintf("scale=%.3f pan=(%.1f,%.1f)%s", vs.Scale.X, vs.BasePan.X, vs.BasePan.Y, fx)
}

// FormatTime formats a playlist date for display, or "-" when unknown.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
