package datalake

import (
	"strings"
	"sync"
)

// Key joins row fields into a dedupe key. The unit separator keeps
// ("ab", "c") distinct from ("a", "bc").
func Key(fields ...string) string {
	return strings.Join(fields, "\x1f")
}

// Deduper remembers which row keys have been seen. It is safe for
// concurrent use by the decode goroutines.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduper makes an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]struct{})}
}

// FirstSeen records key and reports whether this call was the first to
// see it.
func (d *Deduper) FirstSeen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Size returns the number of distinct keys seen.
func (d *Deduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
