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

package kafka

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	datalake "github.com/aabid0193/spark-datalake-etl"
)

func landRaw(t *testing.T, l *Lander, raw string) {
	e, err := datalake.DecodeEvent(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("decoding test event: %v", err)
	}
	if err := l.Land(e, json.RawMessage(raw)); err != nil {
		t.Fatalf("landing event: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestLanderDayFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "lander")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	l, err := NewLander(dir)
	if err != nil {
		t.Fatalf("getting lander: %v", err)
	}

	// 2018-11-01T12:00:00Z, 2018-11-01T12:01:00Z, then 2018-11-02T01:00:00Z.
	landRaw(t, l, `{"page":"NextSong","ts":1541073600000,"userId":44,"song":"Winter"}`)
	landRaw(t, l, `{"page":"Home","ts":1541073660000,"userId":"44"}`)
	landRaw(t, l, `{"page":"NextSong","ts":1541120400000,"userId":12,"song":"Holiday"}`)
	if err := l.Close(); err != nil {
		t.Fatalf("closing lander: %v", err)
	}

	day1 := filepath.Join(dir, "2018", "11", "2018-11-01-events.json")
	day2 := filepath.Join(dir, "2018", "11", "2018-11-02-events.json")

	lines := readLines(t, day1)
	if len(lines) != 2 {
		t.Fatalf("expected 2 events on day one, got %v", lines)
	}
	for _, line := range lines {
		e, err := datalake.DecodeEvent(json.RawMessage(line))
		if err != nil {
			t.Fatalf("landed line does not decode: %v", err)
		}
		if e.Start().Format("2006-01-02") != "2018-11-01" {
			t.Fatalf("event in the wrong day file: %+v", e)
		}
	}
	if lines := readLines(t, day2); len(lines) != 1 {
		t.Fatalf("expected 1 event on day two, got %v", lines)
	}

	// A fresh lander appends to the existing day file.
	l2, err := NewLander(dir)
	if err != nil {
		t.Fatalf("getting second lander: %v", err)
	}
	landRaw(t, l2, `{"page":"NextSong","ts":1541074000000,"userId":"7","song":"Crystal"}`)
	if err := l2.Close(); err != nil {
		t.Fatalf("closing second lander: %v", err)
	}
	if lines := readLines(t, day1); len(lines) != 3 {
		t.Fatalf("expected the day file to grow to 3 lines, got %v", lines)
	}
}

func TestLanderManyDays(t *testing.T) {
	dir, err := ioutil.TempDir("", "landerdays")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	l, err := NewLander(dir)
	if err != nil {
		t.Fatalf("getting lander: %v", err)
	}
	base := int64(1541073600000)
	for i := 0; i < 5; i++ {
		ts := base + int64(i)*24*60*60*1000
		landRaw(t, l, fmt.Sprintf(`{"page":"NextSong","ts":%d,"userId":1}`, ts))
	}
	if err := l.Close(); err != nil {
		t.Fatalf("closing lander: %v", err)
	}

	var files []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking landing dir: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("expected one file per day, got %v", files)
	}
}
