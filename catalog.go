package datalake

import "sync"

// SongRef locates a song and its artist in the song metadata.
type SongRef struct {
	SongID   string
	ArtistID string
}

// SongCatalog is the lookup side of the songplays join. Every song title
// maps to the refs of all metadata songs carrying that title, so a
// played title can fan out to more than one ref. Implementations must be
// safe for concurrent use.
type SongCatalog interface {
	Add(title string, ref SongRef) error
	Lookup(title string) ([]SongRef, error)
	Close() error
}

// MemCatalog is an in-memory SongCatalog. It's the default backend and
// comfortably holds the million-song dataset; the boltdb and leveldb
// backends exist for when the catalog should outlive the process.
type MemCatalog struct {
	mu     sync.RWMutex
	titles map[string][]SongRef
}

// NewMemCatalog makes an empty MemCatalog.
func NewMemCatalog() *MemCatalog {
	return &MemCatalog{titles: make(map[string][]SongRef)}
}

// Add records ref under title. Adding the same ref twice is a no-op, so
// replayed song files don't inflate the join.
func (c *MemCatalog) Add(title string, ref SongRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	refs := c.titles[title]
	for _, r := range refs {
		if r == ref {
			return nil
		}
	}
	c.titles[title] = append(refs, ref)
	return nil
}

// Lookup returns the refs for title, or nil when the title is unknown.
// Callers must not modify the returned slice.
func (c *MemCatalog) Lookup(title string) ([]SongRef, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.titles[title], nil
}

// Close implements SongCatalog.
func (c *MemCatalog) Close() error { return nil }

// Size returns the number of distinct titles.
func (c *MemCatalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.titles)
}
