// Package scan finds viewable images on disk and sorts them the way a file
// browser would.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gazer/internal/playlistfile"

	"github.com/maruel/natural"
)

// IsImage checks if a file is an image
func IsImage(n string) bool {
	switch strings.ToLower(filepath.Ext(n)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	default:
		return false
	}
}

// SortNatural orders paths by file name the way people count, so "img2"
// comes before "img10". Case is ignored; ties fall back to the full path.
func SortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		a := strings.ToLower(filepath.Base(paths[i]))
		b := strings.ToLower(filepath.Base(paths[j]))
		if a != b {
			return natural.Less(a, b)
		}
		return natural.Less(paths[i], paths[j])
	})
}

// ListDirectory returns the images directly inside dir in natural order.
func ListDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	SortNatural(images)
	return images, nil
}

// Walk returns every non-empty image under root, recursing into
// subdirectories, in natural order.
func Walk(root string) ([]string, error) {
	var images []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImage(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && info.Size() > 0 {
			images = append(images, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	SortNatural(images)
	return images, nil
}

// Dropped is a set of dropped paths split by kind.
type Dropped struct {
	Images    []string
	Playlists []string
	Ignored   []string
}

// ClassifyDropped sorts dropped paths into images, playlist files and
// everything else, preserving drop order within each group.
func ClassifyDropped(paths []string) Dropped {
	var d Dropped
	for _, p := range paths {
		switch {
		case playlistfile.IsPlaylistFile(p):
			d.Playlists = append(d.Playlists, p)
		case IsImage(p):
			d.Images = append(d.Images, p)
		default:
			d.Ignored = append(d.Ignored, p)
		}
	}
	return d
}

// ExpandArgs turns a mix of image and directory paths into a flat image
// list. Directories are walked; files that are not images are skipped.
func ExpandArgs(args []string) ([]string, error) {
	var images []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", a, err)
		}
		if info.IsDir() {
			found, err := Walk(a)
			if err != nil {
				return nil, err
			}
			images = append(images, found...)
			continue
		}
		if IsImage(a) {
			images = append(images, a)
		}
	}
	return images, nil
}
