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

package boltdb_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/aabid0193/spark-datalake-etl/boltdb"
)

func TestCatalog(t *testing.T) {
	dir, err := ioutil.TempDir("", "boltcatalog")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "catalog.bolt")

	c, err := boltdb.NewCatalog(path)
	if err != nil {
		t.Fatalf("getting catalog: %v", err)
	}

	refs, err := c.Lookup("nothing")
	if err != nil {
		t.Fatalf("looking up: %v", err)
	}
	if refs != nil {
		t.Fatalf("unknown title should return nil, got %v", refs)
	}

	if err := c.Add("Gold", datalake.SongRef{SongID: "SO1", ArtistID: "AR1"}); err != nil {
		t.Fatalf("adding: %v", err)
	}
	if err := c.Add("Gold", datalake.SongRef{SongID: "SO2", ArtistID: "AR2"}); err != nil {
		t.Fatalf("adding: %v", err)
	}
	if err := c.Add("Gold", datalake.SongRef{SongID: "SO1", ArtistID: "AR1"}); err != nil {
		t.Fatalf("re-adding: %v", err)
	}

	refs, err = c.Lookup("Gold")
	if err != nil {
		t.Fatalf("looking up: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %v", refs)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	// the catalog must survive reopening
	c, err = boltdb.NewCatalog(path)
	if err != nil {
		t.Fatalf("reopening catalog: %v", err)
	}
	defer c.Close()
	refs, err = c.Lookup("Gold")
	if err != nil {
		t.Fatalf("looking up after reopen: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs after reopen, got %v", refs)
	}
}
