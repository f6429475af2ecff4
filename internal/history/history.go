// Package history keeps the most-recently-used list of playlist files.
package history

// DefaultCapacity is the number of recent playlists remembered by default.
const DefaultCapacity = 10

// RecentList is a bounded, de-duplicated list of paths, most recent first.
type RecentList struct {
	items    []string
	capacity int
}

// NewRecentList creates a RecentList seeded with items (most recent first).
// If capacity is 0, recording is disabled. Negative capacity is treated as 0.
func NewRecentList(capacity int, items []string) *RecentList {
	if capacity < 0 {
		capacity = 0
	}
	rl := &RecentList{
		items:    make([]string, 0, capacity),
		capacity: capacity,
	}
	for i := len(items) - 1; i >= 0; i-- {
		rl.Record(items[i])
	}
	return rl
}

// Record moves path to the front, inserting it if absent and trimming the
// oldest entries beyond capacity.
func (rl *RecentList) Record(path string) {
	if rl.capacity == 0 || path == "" {
		return
	}
	rl.remove(path)
	rl.items = append([]string{path}, rl.items...)
	if len(rl.items) > rl.capacity {
		rl.items = rl.items[:rl.capacity]
	}
}

// Remove drops path from the list. It reports whether anything was removed.
func (rl *RecentList) Remove(path string) bool {
	return rl.remove(path)
}

func (rl *RecentList) remove(path string) bool {
	kept := rl.items[:0]
	removed := false
	for _, p := range rl.items {
		if p == path {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	rl.items = kept
	return removed
}

// Items returns a copy of the list, most recent first.
func (rl *RecentList) Items() []string {
	out := make([]string, len(rl.items))
	copy(out, rl.items)
	return out
}

// Len returns the number of remembered paths.
func (rl *RecentList) Len() int {
	return len(rl.items)
}

// Clear forgets every path.
func (rl *RecentList) Clear() {
	rl.items = rl.items[:0]
}
