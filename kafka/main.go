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
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/pkg/errors"
)

// Main holds the options for landing play events from Kafka.
type Main struct {
	Hosts       []string `help:"Comma separated list of Kafka hosts and ports"`
	Topics      []string `help:"Comma separated list of Kafka topics"`
	Group       string   `help:"Kafka group"`
	RegistryURL string   `help:"URL of the confluent schema registry. Pass an empty string to use JSON instead of Avro."`
	Out         string   `help:"Directory the landed day files are written under, laid out like log_data."`
	MaxMsgs     int      `help:"Number of messages to consume before stopping. 0 means run until the consumer shuts down."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Hosts:  []string{"localhost:9092"},
		Topics: []string{"events"},
		Group:  "group0",
		Out:    "log_data",
	}
}

// Run consumes events and appends each one to the file for its day.
// Events that don't decode are logged and dropped.
func (m *Main) Run() error {
	var src datalake.Source
	if m.RegistryURL == "" {
		isrc := NewSource()
		isrc.Hosts = m.Hosts
		isrc.Topics = m.Topics
		isrc.Group = m.Group
		isrc.MaxMsgs = m.MaxMsgs
		if err := isrc.Open(); err != nil {
			return errors.Wrap(err, "opening kafka source")
		}
		defer isrc.Close()
		src = isrc
	} else {
		isrc := NewConfluentSource()
		isrc.Hosts = m.Hosts
		isrc.Topics = m.Topics
		isrc.Group = m.Group
		isrc.MaxMsgs = m.MaxMsgs
		isrc.RegistryURL = m.RegistryURL
		if err := isrc.Open(); err != nil {
			return errors.Wrap(err, "opening kafka source")
		}
		defer isrc.Close()
		src = isrc
	}

	lander, err := NewLander(m.Out)
	if err != nil {
		return errors.Wrap(err, "getting lander")
	}
	defer lander.Close()

	landed := 0
	for {
		rec, err := src.Record()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("skipping message: %v", err)
			continue
		}
		raw := rec.(json.RawMessage)
		e, err := datalake.DecodeEvent(raw)
		if err != nil {
			log.Printf("skipping event: %v", err)
			continue
		}
		if err := lander.Land(e, raw); err != nil {
			return errors.Wrap(err, "landing event")
		}
		landed++
	}
	log.Printf("landed %d events under %s", landed, m.Out)
	return nil
}

// Lander appends play events to day files laid out like the log_data
// dataset. Files open in append mode, so a restarted lander picks up
// the day file where it left off.
type Lander struct {
	dir string
	f   *os.File
	day time.Time
}

// NewLander gets a Lander writing under dir.
func NewLander(dir string) (*Lander, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "making landing dir")
	}
	return &Lander{dir: dir}, nil
}

// Land appends raw to the file for e's day, as one NDJSON line.
func (l *Lander) Land(e datalake.PlayEvent, raw json.RawMessage) error {
	day := e.Start().Truncate(24 * time.Hour)
	if l.f == nil || !day.Equal(l.day) {
		if err := l.roll(day); err != nil {
			return err
		}
	}
	if _, err := l.f.Write(raw); err != nil {
		return errors.Wrap(err, "appending event")
	}
	if _, err := l.f.Write([]byte{'\n'}); err != nil {
		return errors.Wrap(err, "appending newline")
	}
	return nil
}

func (l *Lander) roll(day time.Time) error {
	if l.f != nil {
		if err := l.f.Close(); err != nil {
			return errors.Wrap(err, "closing day file")
		}
		l.f = nil
	}
	path := filepath.Join(l.dir,
		strconv.Itoa(day.Year()), strconv.Itoa(int(day.Month())),
		day.Format("2006-01-02")+"-events.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "making day dirs")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	l.f = f
	l.day = day
	return nil
}

// Close closes the current day file.
func (l *Lander) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return errors.Wrap(err, "closing day file")
}
