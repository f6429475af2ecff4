// Package playlistfile reads and writes .gzpl playlist files: the ordered
// image list, each slot's saved view state and the playback options.
package playlistfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gazer/internal/settings"
	"gazer/internal/statestore"
	"gazer/internal/viewstate"

	"github.com/natefinch/atomic"
)

var (
	// ErrFileNotFound means the playlist file, or every image it lists, is missing.
	ErrFileNotFound = errors.New("file not found")
	// ErrMalformedPlaylist means the playlist could not be parsed or has no usable items.
	ErrMalformedPlaylist = errors.New("malformed playlist")
	// ErrIOFailure means reading or writing the playlist failed.
	ErrIOFailure = errors.New("playlist i/o failure")
)

// Source is the playlist content handed to Save.
type Source struct {
	Items        []string
	CurrentIndex int
	// Current is the live state of the displayed slot. It is written for
	// CurrentIndex when the store has nothing saved for that slot.
	Current viewstate.ViewState
	// Created is kept as the creation date when re-saving an existing playlist.
	Created time.Time
}

// SaveOptions tune how a playlist is written.
type SaveOptions struct {
	// AbsolutePathsOnly omits relative paths, pinning the playlist to the
	// current location of its images.
	AbsolutePathsOnly bool
	// Now overrides the clock used for the written dates.
	Now func() time.Time
}

// Save writes src to path. Each slot's state comes from store under
// (path, index). A slot with nothing saved gets src.Current when it is the
// current slot and the default state otherwise, so every item carries a
// state. The file is replaced atomically, so a failed save leaves any
// previous file intact.
func Save(path string, src Source, store *statestore.Store, playback settings.Playback, opts SaveOptions) error {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now()

	absPlaylist, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %v", ErrIOFailure, path, err)
	}
	baseDir := filepath.Dir(absPlaylist)

	created := src.Created
	if created.IsZero() {
		created = stamp
	}
	doc := document{
		Name:         strings.TrimSuffix(filepath.Base(absPlaylist), filepath.Ext(absPlaylist)),
		CreatedDate:  Timestamp{created},
		ModifiedDate: Timestamp{stamp},
		Version:      FormatVersion,
		Items:        make([]itemDoc, 0, len(src.Items)),
		Settings:     encodePlayback(playback),
	}

	for i, imagePath := range src.Items {
		item := itemDoc{
			FilePath:  absolutePath(imagePath),
			AddedDate: Timestamp{stamp},
		}
		if !opts.AbsolutePathsOnly {
			item.RelativePath = relativePath(baseDir, item.FilePath)
		}
		if store != nil {
			if state, ok := store.Restore(statestore.Key{Path: imagePath, Index: i}); ok {
				item.State = encodeState(state)
			}
		}
		if item.State == nil && i == src.CurrentIndex {
			item.State = encodeState(src.Current)
		}
		if item.State == nil {
			item.State = encodeState(viewstate.Default())
		}
		doc.Items = append(doc.Items, item)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding playlist: %v", ErrIOFailure, err)
	}
	if err := writeFileAtomic(absPlaylist, data); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	return nil
}

// Rule names which lookup located an item's image.
type Rule int

const (
	RuleMissing  Rule = iota // no rule matched
	RuleAbsolute             // the stored absolute path
	RuleRelative             // the relative path joined with the playlist directory
	RuleFilename             // the bare file name inside the playlist directory
)

func (r Rule) String() string {
	switch r {
	case RuleAbsolute:
		return "absolute"
	case RuleRelative:
		return "relative"
	case RuleFilename:
		return "filename"
	default:
		return "missing"
	}
}

// Resolution records how one stored item was resolved.
type Resolution struct {
	Stored   string // FilePath as written in the file
	Resolved string // empty when Rule is RuleMissing
	Rule     Rule
	HasState bool
}

// LoadResult is a fully resolved playlist ready to hand to the engine.
type LoadResult struct {
	Path     string
	Name     string
	Created  time.Time
	Modified time.Time
	Version  string

	// Items are the resolved image paths in file order with missing ones removed.
	Items []string
	// Store holds the saved states keyed by (resolved path, position in Items).
	Store    *statestore.Store
	Playback settings.Playback

	// Skipped lists the stored paths of items that could not be found.
	Skipped     []string
	Resolutions []Resolution
}

// Load reads and resolves the playlist at path. It fails when the file cannot
// be read or parsed, lists no items, or none of its items can be found. A
// partially resolvable playlist loads with the missing items in Skipped.
func Load(path string) (*LoadResult, error) {
	absPlaylist, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %v", ErrIOFailure, path, err)
	}

	data, err := os.ReadFile(absPlaylist)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrIOFailure, path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPlaylist, path, err)
	}
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("%w: %s contains no items", ErrMalformedPlaylist, path)
	}

	baseDir := filepath.Dir(absPlaylist)
	res := &LoadResult{
		Path:     absPlaylist,
		Name:     doc.Name,
		Created:  doc.CreatedDate.Time,
		Modified: doc.ModifiedDate.Time,
		Version:  doc.Version,
		Store:    statestore.New(),
		Playback: doc.Settings.decode(),
	}
	if res.Name == "" {
		res.Name = strings.TrimSuffix(filepath.Base(absPlaylist), filepath.Ext(absPlaylist))
	}

	for _, item := range doc.Items {
		resolved, rule := resolveImagePath(item, baseDir)
		res.Resolutions = append(res.Resolutions, Resolution{
			Stored:   item.FilePath,
			Resolved: resolved,
			Rule:     rule,
			HasState: item.State != nil,
		})
		if rule == RuleMissing {
			res.Skipped = append(res.Skipped, item.FilePath)
			continue
		}
		index := len(res.Items)
		res.Items = append(res.Items, resolved)
		if item.State != nil {
			res.Store.Save(statestore.Key{Path: resolved, Index: index}, item.State.decode())
		}
	}

	if len(res.Items) == 0 {
		return nil, fmt.Errorf("%w: %w: none of the %d items in %s exist",
			ErrMalformedPlaylist, ErrFileNotFound, len(doc.Items), path)
	}
	return res, nil
}

// IsPlaylistFile reports whether path has the playlist extension.
func IsPlaylistFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// resolveImagePath tries the stored absolute path, then the relative path
// under baseDir, then the bare file name under baseDir.
func resolveImagePath(item itemDoc, baseDir string) (string, Rule) {
	if item.FilePath != "" && fileExists(item.FilePath) {
		return item.FilePath, RuleAbsolute
	}
	if item.RelativePath != "" {
		rel := filepath.FromSlash(strings.ReplaceAll(item.RelativePath, `\`, "/"))
		candidate := rel
		if !filepath.IsAbs(rel) {
			candidate = filepath.Join(baseDir, rel)
		}
		if fileExists(candidate) {
			return filepath.Clean(candidate), RuleRelative
		}
	}
	if name := baseName(item.FilePath); name != "" {
		candidate := filepath.Join(baseDir, name)
		if fileExists(candidate) {
			return candidate, RuleFilename
		}
	}
	return "", RuleMissing
}

// baseName returns the last element of p, treating both slash styles as
// separators so paths written on another platform still yield a file name.
func baseName(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "." || p == ".." {
		return ""
	}
	return p
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func absolutePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// relativePath returns target relative to baseDir in slash form, or target
// itself when no relative path exists (different volume).
func relativePath(baseDir, target string) string {
	rel, err := filepath.Rel(baseDir, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

// writeFileAtomic replaces path with data in one step. New files are made
// readable by everyone like any other document.
func writeFileAtomic(path string, data []byte) error {
	_, statErr := os.Stat(path)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	if errors.Is(statErr, os.ErrNotExist) {
		if err := os.Chmod(path, 0644); err != nil {
			return fmt.Errorf("setting mode on %s: %w", path, err)
		}
	}
	return nil
}
