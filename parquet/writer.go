// Package parquet writes tables out as partitioned Parquet datasets.
// Each partition becomes a hive-style directory (year=2018/month=11)
// holding a single Snappy-compressed file, which is the layout Spark and
// friends expect to read back.
package parquet

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// Partitioned is implemented by rows which live in a hive-style
// partition directory. Partition returns the ordered path segments,
// e.g. ["year=2018", "month=11"]. Rows without the method land in a
// single file at the table root.
type Partitioned interface {
	Partition() []string
}

// WriterOption is a functional option for TableWriter.
type WriterOption func(w *TableWriter) error

// OptRowGroupSize sets the Parquet row group size in bytes.
func OptRowGroupSize(n int64) WriterOption {
	return func(w *TableWriter) error {
		if n <= 0 {
			return errors.Errorf("row group size must be positive: %d", n)
		}
		w.rowGroup = n
		return nil
	}
}

// OptParallel sets the number of marshaling goroutines per file.
func OptParallel(n int64) WriterOption {
	return func(w *TableWriter) error {
		if n <= 0 {
			return errors.Errorf("parallelism must be positive: %d", n)
		}
		w.parallel = n
		return nil
	}
}

// OptCompression sets the compression codec.
func OptCompression(codec parquet.CompressionCodec) WriterOption {
	return func(w *TableWriter) error {
		w.codec = codec
		return nil
	}
}

// TableWriter writes the rows of one table, routing each row to the
// Parquet file for its partition. Write is safe to call from many
// goroutines; rows in different partitions are marshaled without
// contending.
type TableWriter struct {
	root      string
	prototype interface{}
	rowGroup  int64
	parallel  int64
	codec     parquet.CompressionCodec

	mu    sync.Mutex
	parts map[string]*partWriter
}

type partWriter struct {
	mu   sync.Mutex
	fw   source.ParquetFile
	pw   *writer.ParquetWriter
	rows int64
}

// NewTableWriter creates a writer for the table rooted at root, clearing
// out whatever a previous run left there. prototype is a pointer to the
// row struct whose tags define the Parquet schema.
func NewTableWriter(root string, prototype interface{}, opts ...WriterOption) (*TableWriter, error) {
	w := &TableWriter{
		root:      root,
		prototype: prototype,
		rowGroup:  128 * 1024 * 1024,
		parallel:  2,
		codec:     parquet.CompressionCodec_SNAPPY,
		parts:     make(map[string]*partWriter),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	if err := os.RemoveAll(root); err != nil {
		return nil, errors.Wrap(err, "clearing table root")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "creating table root")
	}
	return w, nil
}

// Write routes row to the file for its partition, creating the file on
// first use.
func (w *TableWriter) Write(row interface{}) error {
	key := ""
	if p, ok := row.(Partitioned); ok {
		key = filepath.Join(p.Partition()...)
	}

	part, err := w.part(key)
	if err != nil {
		return err
	}

	part.mu.Lock()
	defer part.mu.Unlock()
	if err := part.pw.Write(row); err != nil {
		return errors.Wrapf(err, "writing row to %s", filepath.Join(w.root, key))
	}
	part.rows++
	return nil
}

func (w *TableWriter) part(key string) (*partWriter, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if part, ok := w.parts[key]; ok {
		return part, nil
	}

	dir := filepath.Join(w.root, key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating partition dir")
	}
	path := filepath.Join(dir, "part-00000.parquet")
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	pw, err := writer.NewParquetWriter(fw, w.prototype, w.parallel)
	if err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "creating parquet writer for %s", path)
	}
	pw.RowGroupSize = w.rowGroup
	pw.CompressionType = w.codec

	part := &partWriter{fw: fw, pw: pw}
	w.parts[key] = part
	return part, nil
}

// Close flushes and closes every partition file. The writer is done
// after Close; a table with zero rows ends up as an empty directory.
func (w *TableWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs errorList
	for key, part := range w.parts {
		if err := part.pw.WriteStop(); err != nil {
			errs = append(errs, errors.Wrapf(err, "finishing %s", key))
		}
		if err := part.fw.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "closing %s", key))
		}
	}
	if errs != nil {
		return errs
	}
	return nil
}

// Rows returns the number of rows written so far.
func (w *TableWriter) Rows() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var n int64
	for _, part := range w.parts {
		part.mu.Lock()
		n += part.rows
		part.mu.Unlock()
	}
	return n
}

// Partitions returns the number of partitions written so far.
func (w *TableWriter) Partitions() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.parts)
}

type errorList []error

func (e errorList) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Files returns the .parquet files under root, sorted by path.
func Files(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".parquet") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking dataset")
	}
	return files, nil
}

// NumRows sums the row counts of every file under root. prototype is a
// pointer to the row struct the dataset was written with.
func NumRows(root string, prototype interface{}) (int64, error) {
	files, err := Files(root)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, path := range files {
		fr, err := local.NewLocalFileReader(path)
		if err != nil {
			return n, errors.Wrapf(err, "opening %s", path)
		}
		pr, err := reader.NewParquetReader(fr, prototype, 1)
		if err != nil {
			fr.Close()
			return n, errors.Wrapf(err, "reading %s", path)
		}
		n += pr.GetNumRows()
		pr.ReadStop()
		fr.Close()
	}
	return n, nil
}
