package datalake

import "io"

// Source is the interface for getting raw data one record at a time.
// Implementations of Source should be thread safe. Record returns io.EOF
// when no records remain.
type Source interface {
	Record() (interface{}, error)
}

// NamedReadCloser is an io.ReadCloser with a name saying where the bytes
// came from (a file path, an S3 key), used to tag per-object errors.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource hands out readers over whole data objects, one object at a
// time. NextReader returns io.EOF once every object has been handed out.
// Implementations must be safe for concurrent use.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}
