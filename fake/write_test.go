package fake_test

import (
	"bufio"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/aabid0193/spark-datalake-etl/fake"
)

func TestWriteDataset(t *testing.T) {
	dir, err := ioutil.TempDir("", "fakedataset")
	if err != nil {
		t.Fatalf("getting temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	if err := fake.WriteDataset(dir, 40, 800, 0); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}

	var songFiles, logFiles []string
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		switch {
		case strings.Contains(path, "song_data"):
			songFiles = append(songFiles, path)
		case strings.Contains(path, "log_data"):
			logFiles = append(logFiles, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking dataset: %v", err)
	}

	if len(songFiles) != 40 {
		t.Fatalf("expected 40 song files, got %d", len(songFiles))
	}
	if len(logFiles) == 0 {
		t.Fatal("expected log files")
	}

	// song files nest three letters deep like the real tree
	rel, err := filepath.Rel(dir, songFiles[0])
	if err != nil {
		t.Fatalf("relativizing: %v", err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 5 || parts[0] != "song_data" {
		t.Fatalf("wrong song layout: %v", parts)
	}

	b, err := ioutil.ReadFile(songFiles[0])
	if err != nil {
		t.Fatalf("reading song file: %v", err)
	}
	if _, err := datalake.DecodeSong(b); err != nil {
		t.Fatalf("song file should decode: %v", err)
	}

	events := 0
	for _, path := range logFiles {
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("opening log file: %v", err)
		}
		scan := bufio.NewScanner(f)
		for scan.Scan() {
			if _, err := datalake.DecodeEvent(scan.Bytes()); err != nil {
				t.Fatalf("log line should decode: %v", err)
			}
			events++
		}
		if err := scan.Err(); err != nil {
			t.Fatalf("scanning log file: %v", err)
		}
		f.Close()
	}
	if events != 800 {
		t.Fatalf("expected 800 events, got %d", events)
	}
}
