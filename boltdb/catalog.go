// Package boltdb provides a datalake.SongCatalog implementation backed
// by boltdb, for keeping the title lookup around between runs (the log
// phase can then run on its own against a catalog built earlier).
package boltdb

import (
	"encoding/json"
	"time"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var titleBucket = []byte("titles")

// Catalog is a datalake.SongCatalog which stores the title to refs
// mapping in boltdb. Values are JSON-encoded ref slices keyed by title.
type Catalog struct {
	Db *bolt.DB
}

// NewCatalog opens (or creates) the catalog db at filename.
func NewCatalog(filename string) (c *Catalog, err error) {
	c = &Catalog{}
	c.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	c.Db.NoSync = true
	err = c.Db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(titleBucket)
		return errors.Wrap(err, "creating titles bucket")
	})
	if err != nil {
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return c, nil
}

// Add records ref under title. Adding the same ref twice is a no-op.
func (c *Catalog) Add(title string, ref datalake.SongRef) error {
	return c.Db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(titleBucket)
		var refs []datalake.SongRef
		if val := b.Get([]byte(title)); val != nil {
			if err := json.Unmarshal(val, &refs); err != nil {
				return errors.Wrapf(err, "unmarshaling refs for %q", title)
			}
		}
		for _, r := range refs {
			if r == ref {
				return nil
			}
		}
		refs = append(refs, ref)
		val, err := json.Marshal(refs)
		if err != nil {
			return errors.Wrap(err, "marshaling refs")
		}
		return errors.Wrap(b.Put([]byte(title), val), "putting refs")
	})
}

// Lookup returns the refs for title, or nil when the title is unknown.
func (c *Catalog) Lookup(title string) (refs []datalake.SongRef, err error) {
	err = c.Db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(titleBucket).Get([]byte(title))
		if val == nil {
			return nil
		}
		if err := json.Unmarshal(val, &refs); err != nil {
			return errors.Wrapf(err, "unmarshaling refs for %q", title)
		}
		return nil
	})
	return refs, err
}

// Close syncs and closes the underlying boltdb.
func (c *Catalog) Close() error {
	err := c.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return c.Db.Close()
}
