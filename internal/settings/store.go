package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName     = "gazer.db"
	appName        = "gazer"
	SettingsBucket = "Settings" // Bucket holding the JSON-encoded AppSettings.
	PresetsBucket  = "Presets"  // Bucket of slot index -> JSON-encoded Preset.
	RecentBucket   = "Recent"   // Bucket holding the recent playlist list.

	settingsKey = "app"
	recentKey   = "playlists"
)

// ErrInvalidSlot is returned for preset slots outside [0, PresetSlots).
var ErrInvalidSlot = errors.New("invalid preset slot")

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Store persists settings, presets and the recent playlist list.
type Store struct {
	db     *bolt.DB
	logger LoggerFunc
	path   string
}

// NewStore creates or opens the settings database.
// dbDir is the directory holding the database file; when empty the user
// config directory is used.
func NewStore(dbDir string, logger LoggerFunc) (*Store, error) {
	if dbDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			log.Printf("Warning: Could not get user config dir: %v. Using current dir.", err)
			dbDir = "."
		} else {
			dbDir = filepath.Join(configDir, appName)
		}
	}
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create config directory %s: %w", dbDir, err)
	}

	dbPath := filepath.Join(dbDir, dbFileName)
	if logger != nil {
		logger(fmt.Sprintf("Using settings database at: %s", dbPath))
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{SettingsBucket, PresetsBucket, RecentBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger, path: dbPath}, nil
}

// Path returns the location of the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) logMessage(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadSettings returns the stored settings, or the defaults when none are
// stored yet or the stored value cannot be decoded.
func (s *Store) LoadSettings() (AppSettings, error) {
	cfg := Default()
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(SettingsBucket)).Get([]byte(settingsKey))
		if data == nil {
			return nil
		}
		loaded := Default()
		if err := json.Unmarshal(data, &loaded); err != nil {
			s.logMessage("Warning: stored settings are corrupt, using defaults: %v", err)
			return nil
		}
		cfg = loaded
		return nil
	})
	if err != nil {
		return Default(), fmt.Errorf("failed to read settings: %w", err)
	}
	cfg.Playback = cfg.Playback.Normalize()
	return cfg, nil
}

// SaveSettings stores cfg, replacing the previous value.
func (s *Store) SaveSettings(cfg AppSettings) error {
	cfg.Playback = cfg.Playback.Normalize()
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(SettingsBucket)).Put([]byte(settingsKey), data); err != nil {
			return fmt.Errorf("failed to store settings: %w", err)
		}
		return nil
	})
}

func slotKey(slot int) []byte {
	return []byte(strconv.Itoa(slot))
}

// SavePreset stores p in its slot. An empty name becomes "Preset N".
func (s *Store) SavePreset(p Preset) error {
	if !ValidSlot(p.Slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, p.Slot)
	}
	if p.Name == "" {
		p.Name = DefaultPresetName(p.Slot)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode preset %d: %w", p.Slot, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(PresetsBucket)).Put(slotKey(p.Slot), data); err != nil {
			return fmt.Errorf("failed to store preset %d: %w", p.Slot, err)
		}
		return nil
	})
}

// Preset returns the preset stored in slot, and false when the slot is empty.
func (s *Store) Preset(slot int) (Preset, bool, error) {
	if !ValidSlot(slot) {
		return Preset{}, false, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	var p Preset
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(PresetsBucket)).Get(slotKey(slot))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("failed to decode preset %d: %w", slot, err)
		}
		found = true
		return nil
	})
	return p, found, err
}

// Presets returns every stored preset ordered by slot.
func (s *Store) Presets() ([]Preset, error) {
	var presets []Preset
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PresetsBucket)).ForEach(func(k, v []byte) error {
			var p Preset
			if err := json.Unmarshal(v, &p); err != nil {
				s.logMessage("Error decoding preset '%s', skipping: %v", string(k), err)
				return nil
			}
			presets = append(presets, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Slot < presets[j].Slot })
	return presets, nil
}

// DeletePreset empties slot.
func (s *Store) DeletePreset(slot int) error {
	if !ValidSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(PresetsBucket)).Delete(slotKey(slot))
	})
}

// LoadRecent returns the stored recent playlist paths, most recent first.
func (s *Store) LoadRecent() ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(RecentBucket)).Get([]byte(recentKey))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &paths); err != nil {
			return fmt.Errorf("failed to decode recent playlists: %w", err)
		}
		return nil
	})
	if paths == nil {
		paths = []string{}
	}
	return paths, err
}

// SaveRecent replaces the stored recent playlist paths.
func (s *Store) SaveRecent(paths []string) error {
	data, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("failed to encode recent playlists: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(RecentBucket)).Put([]byte(recentKey), data)
	})
}
