// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package leveldb provides a datalake.SongCatalog implementation using
// leveldb. It has better write performance than the boltdb backend when
// the catalog is built from scratch on every run.
package leveldb

import (
	"encoding/json"
	"sync"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ datalake.SongCatalog = &Catalog{}

// Catalog is a datalake.SongCatalog which stores the title to refs
// mapping in leveldb. leveldb has no transactions, so Add serializes
// its read-modify-write under a lock.
type Catalog struct {
	lock sync.Mutex
	db   *leveldb.DB
}

// NewCatalog opens (or creates) the catalog db in dirname.
func NewCatalog(dirname string) (*Catalog, error) {
	db, err := leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db at '%v'", dirname)
	}
	return &Catalog{db: db}, nil
}

// Add records ref under title. Adding the same ref twice is a no-op.
func (c *Catalog) Add(title string, ref datalake.SongRef) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	var refs []datalake.SongRef
	val, err := c.db.Get([]byte(title), &opt.ReadOptions{})
	if err != nil && err != leveldb.ErrNotFound {
		return errors.Wrapf(err, "getting refs for %q", title)
	}
	if err == nil {
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
	val, err = json.Marshal(refs)
	if err != nil {
		return errors.Wrap(err, "marshaling refs")
	}
	return errors.Wrap(c.db.Put([]byte(title), val, &opt.WriteOptions{}), "putting refs")
}

// Lookup returns the refs for title, or nil when the title is unknown.
func (c *Catalog) Lookup(title string) ([]datalake.SongRef, error) {
	val, err := c.db.Get([]byte(title), &opt.ReadOptions{})
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "getting refs for %q", title)
	}
	var refs []datalake.SongRef
	if err := json.Unmarshal(val, &refs); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling refs for %q", title)
	}
	return refs, nil
}

// Close closes the underlying leveldb.
func (c *Catalog) Close() error {
	return c.db.Close()
}
