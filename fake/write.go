package fake

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// WriteDataset writes a raw dataset tree under dir: one JSON file per
// song beneath song_data, and day-partitioned NDJSON logs beneath
// log_data, laid out the way the real datasets are.
func WriteDataset(dir string, songs, events int, seed int64) error {
	sg := NewSongGenerator(seed)
	ss := sg.Songs(songs)
	for _, s := range ss {
		track := "TR" + s.SongID[2:]
		path := filepath.Join(dir, "song_data",
			track[2:3], track[3:4], track[4:5], track+".json")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errors.Wrap(err, "making song dirs")
		}
		b, err := json.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "marshaling song")
		}
		if err := ioutil.WriteFile(path, b, 0644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}

	eg := NewEventGenerator(seed+1, ss)
	var curDay time.Time
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	flush := func() error {
		if buf.Len() == 0 {
			return nil
		}
		path := filepath.Join(dir, "log_data",
			strconv.Itoa(curDay.Year()), strconv.Itoa(int(curDay.Month())),
			curDay.Format("2006-01-02")+"-events.json")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return errors.Wrap(err, "making log dirs")
		}
		if err := ioutil.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		buf.Reset()
		return nil
	}

	for i := 0; i < events; i++ {
		ev := eg.Event()
		day := time.Unix(ev.TS/1000, 0).UTC().Truncate(24 * time.Hour)
		if !day.Equal(curDay) {
			if err := flush(); err != nil {
				return err
			}
			curDay = day
		}
		if err := enc.Encode(ev); err != nil {
			return errors.Wrap(err, "encoding event")
		}
	}
	return flush()
}
