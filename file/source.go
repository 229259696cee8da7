// Package file provides a raw source over JSON datasets on local disk.
package file

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/pkg/errors"
)

// RawSource hands out the .json files under a directory tree, one at a
// time. The song and log datasets nest their files several directories
// deep (song_data/A/B/C/TRABCEI128F424C983.json), so the whole tree is
// walked up front.
type RawSource struct {
	files   []string
	fileIdx *uint64
}

// NewRawSource gets a RawSource for pathname. A single file is used
// as-is; a directory is walked recursively and only files ending in
// .json are kept, in walk order.
func NewRawSource(pathname string) (*RawSource, error) {
	fileIdx := uint64(0)
	s := &RawSource{
		fileIdx: &fileIdx,
	}
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		s.files = []string{pathname}
		return s, nil
	}
	err = filepath.Walk(pathname, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		s.files = append(s.files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking tree")
	}
	return s, nil
}

// NumFiles returns how many files the source will hand out.
func (s *RawSource) NumFiles() int { return len(s.files) }

type namedFile struct {
	*os.File
}

func (f *namedFile) Name() string {
	return f.File.Name()
}

// NextReader implements datalake.RawSource.
func (s *RawSource) NextReader() (datalake.NamedReadCloser, error) {
	idx := atomic.AddUint64(s.fileIdx, 1) - 1
	if int(idx) >= len(s.files) {
		return nil, io.EOF
	}

	file, err := os.Open(s.files[idx])
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", s.files[idx])
	}
	return &namedFile{file}, nil
}
