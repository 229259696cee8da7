// Package json provides a Source which decodes streams of JSON objects.
// The raw datasets are newline-delimited JSON (the song files hold a
// single object), and encoding/json's Decoder handles both without
// caring about the line breaks.
package json

import (
	"encoding/json"
	"io"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/pkg/errors"
)

// Source is a datalake.Source which decodes JSON objects from a single
// reader. It is not safe for concurrent use; wrap a RawSource with
// NewSourceFromRawSource to get a concurrent-safe source over many
// objects.
type Source struct {
	dec *json.Decoder
}

// NewSource starts decoding records from r.
func NewSource(r io.Reader) *Source {
	return &Source{dec: json.NewDecoder(r)}
}

// Record returns the next object as a json.RawMessage. It returns io.EOF
// unwrapped when the stream ends so callers can terminate cleanly.
func (s *Source) Record() (interface{}, error) {
	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type record struct {
	data interface{}
	err  error
}

// RawJSONSource is a datalake.Source which decodes every object in every
// reader a RawSource hands out. A single goroutine pulls readers and
// feeds a channel, so Record is safe to call from many goroutines.
type RawJSONSource struct {
	rawSource datalake.RawSource
	records   chan record
}

// SrcOption is a functional option for RawJSONSource.
type SrcOption func(s *RawJSONSource) error

// OptSrcBufSize sets the record channel's buffer size.
func OptSrcBufSize(n int) SrcOption {
	return func(s *RawJSONSource) error {
		if n < 0 {
			return errors.Errorf("bufsize must be non-negative: %d", n)
		}
		s.records = make(chan record, n)
		return nil
	}
}

// NewSourceFromRawSource gets a RawJSONSource over rs. A decode error
// inside an object stream skips the rest of that object and moves on; a
// failure getting the next reader ends the source after reporting the
// error.
func NewSourceFromRawSource(rs datalake.RawSource, opts ...SrcOption) (*RawJSONSource, error) {
	s := &RawJSONSource{
		rawSource: rs,
		records:   make(chan record, 100),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	go s.run()
	return s, nil
}

func (s *RawJSONSource) run() {
	reader, err := s.rawSource.NextReader()
	for ; err == nil; reader, err = s.rawSource.NextReader() {
		src := NewSource(reader)
		for {
			r := record{}
			r.data, r.err = src.Record()
			if r.err == io.EOF {
				break
			}
			if r.err != nil {
				// The decoder can't resync after a syntax error, so
				// report it and drop the rest of this object.
				s.records <- record{err: errors.Wrapf(r.err, "decoding json from %s", reader.Name())}
				break
			}
			s.records <- r
		}
		reader.Close()
	}
	if err != io.EOF {
		s.records <- record{err: errors.Wrap(err, "getting next reader")}
	}
	close(s.records)
}

// Record implements datalake.Source, returning each decoded object as a
// json.RawMessage.
func (s *RawJSONSource) Record() (interface{}, error) {
	rec, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return rec.data, rec.err
}
