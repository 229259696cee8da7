// Package etl runs the data lake job end to end: scan the raw JSON
// datasets, build the star schema, write the Parquet tables.
package etl

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	datalake "github.com/aabid0193/spark-datalake-etl"
	"github.com/aabid0193/spark-datalake-etl/aws/s3"
	"github.com/aabid0193/spark-datalake-etl/boltdb"
	"github.com/aabid0193/spark-datalake-etl/file"
	"github.com/aabid0193/spark-datalake-etl/geohash"
	pjson "github.com/aabid0193/spark-datalake-etl/json"
	"github.com/aabid0193/spark-datalake-etl/leveldb"
	"github.com/aabid0193/spark-datalake-etl/parquet"
	"github.com/aabid0193/spark-datalake-etl/termstat"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// Main holds the configuration for one run of the job.
type Main struct {
	Input            string `help:"Root of the raw datasets, holding song_data and log_data. Local directory or s3://bucket/prefix."`
	Output           string `help:"Where the star schema tables are written. Local directory or s3://bucket/prefix."`
	Region           string `help:"AWS region for S3 input and output."`
	CredsFile        string `help:"TOML file with aws-access-key-id and aws-secret-access-key, exported to the environment for the AWS SDK. A missing file is skipped; ambient credentials apply."`
	Concurrency      int    `help:"Number of goroutines decoding records and writing rows."`
	BufSize          int    `help:"Records to buffer between reading and decoding."`
	Catalog          string `help:"Song catalog backend for the songplays join: mem, bolt, or leveldb."`
	CatalogPath      string `help:"Path for the bolt or leveldb catalog."`
	GeohashPrecision int    `help:"If positive, artists get a location_geohash column with this many characters."`
	RowGroupSize     int64  `help:"Parquet row group size in bytes."`
	Stats            bool   `help:"Rewrite a counter line on stderr while the job runs."`
	Verbose          bool   `help:"Enable verbose logging. Per-record skips are logged at debug level."`

	Statter datalake.Statter `flag:"-"`

	log     datalake.Logger
	nexter  *datalake.Nexter
	catalog datalake.SongCatalog

	outDir  string
	staged  bool
	sink    *s3.Sink
	sinkKey string
}

// NewMain gets a Main with the default configuration, which points at
// the public datasets.
func NewMain() *Main {
	return &Main{
		Input:        "s3a://udacity-dend",
		Output:       "s3a://sparkify-lake/analytics",
		Region:       "us-west-2",
		CredsFile:    "dl.toml",
		Concurrency:  4,
		BufSize:      200,
		Catalog:      "mem",
		CatalogPath:  "song-catalog",
		RowGroupSize: 128 * 1024 * 1024,

		Statter: datalake.NopStatter{},
		log:     datalake.StdLogger{Logger: log.New(os.Stderr, "", log.LstdFlags)},
		nexter:  datalake.NewNexter(),
	}
}

// Run executes the whole job: song data first so the songplays join has
// a full catalog, then log data. Tables land under Output, replacing
// whatever a previous run left there.
func (m *Main) Run() error {
	start := time.Now()
	if err := m.setup(); err != nil {
		return errors.Wrap(err, "setting up")
	}
	defer m.cleanup()

	if err := m.ProcessSongData(); err != nil {
		return errors.Wrap(err, "processing song data")
	}
	if err := m.ProcessLogData(); err != nil {
		return errors.Wrap(err, "processing log data")
	}
	m.log.Printf("done in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

func (m *Main) setup() error {
	if m.log == nil {
		m.log = datalake.StdLogger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	}
	if m.Verbose {
		m.log = datalake.VerboseLogger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
	}
	if err := m.loadCreds(); err != nil {
		return err
	}
	if m.Statter == nil {
		m.Statter = datalake.NopStatter{}
	}
	if m.Stats {
		m.Statter = termstat.NewCollector(os.Stderr)
	}
	if m.nexter == nil {
		m.nexter = datalake.NewNexter()
	}

	switch m.Catalog {
	case "mem":
		m.catalog = datalake.NewMemCatalog()
	case "bolt":
		c, err := boltdb.NewCatalog(m.CatalogPath)
		if err != nil {
			return errors.Wrap(err, "opening bolt catalog")
		}
		m.catalog = c
	case "leveldb":
		c, err := leveldb.NewCatalog(m.CatalogPath)
		if err != nil {
			return errors.Wrap(err, "opening leveldb catalog")
		}
		m.catalog = c
	default:
		return errors.Errorf("unknown catalog backend %q", m.Catalog)
	}

	if bucket, prefix, ok := s3.ParseURI(m.Output); ok {
		sink, err := s3.NewSink(m.Region, bucket)
		if err != nil {
			return errors.Wrap(err, "getting s3 sink")
		}
		m.sink = sink
		m.sinkKey = prefix
		dir, err := ioutil.TempDir("", "datalake-staging")
		if err != nil {
			return errors.Wrap(err, "creating staging dir")
		}
		m.outDir = dir
		m.staged = true
	} else {
		m.outDir = m.Output
	}
	return nil
}

func (m *Main) cleanup() {
	if m.catalog != nil {
		if err := m.catalog.Close(); err != nil {
			m.log.Printf("closing catalog: %v", err)
		}
	}
	if m.staged {
		if err := os.RemoveAll(m.outDir); err != nil {
			m.log.Printf("removing staging dir: %v", err)
		}
	}
}

// loadCreds reads the AWS key pair from the creds file and exports it to
// the environment, where the SDK's default credential chain picks it up.
// A missing file is not an error; the job falls back to whatever
// credentials the environment already carries.
func (m *Main) loadCreds() error {
	if m.CredsFile == "" {
		return nil
	}
	if _, err := os.Stat(m.CredsFile); os.IsNotExist(err) {
		m.log.Debugf("no creds file at %s", m.CredsFile)
		return nil
	}
	v := viper.New()
	v.SetConfigFile(m.CredsFile)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "reading creds file %s", m.CredsFile)
	}
	creds := map[string]string{
		"aws-access-key-id":     "AWS_ACCESS_KEY_ID",
		"aws-secret-access-key": "AWS_SECRET_ACCESS_KEY",
	}
	for key, env := range creds {
		if val := v.GetString(key); val != "" {
			if err := os.Setenv(env, val); err != nil {
				return errors.Wrapf(err, "setting %s", env)
			}
		}
	}
	return nil
}

func (m *Main) rawSource(sub string) (datalake.RawSource, error) {
	if bucket, prefix, ok := s3.ParseURI(m.Input); ok {
		return s3.NewRawSource(m.Region, bucket, path.Join(prefix, sub))
	}
	return file.NewRawSource(filepath.Join(m.Input, sub))
}

func (m *Main) newTableWriter(table string, prototype interface{}) (*parquet.TableWriter, error) {
	return parquet.NewTableWriter(filepath.Join(m.outDir, table), prototype,
		parquet.OptRowGroupSize(m.RowGroupSize))
}

// publish pushes a finished table up to S3 when the output is a bucket.
// Local output needs nothing; the writer already put it in place.
func (m *Main) publish(table string) error {
	if !m.staged {
		return nil
	}
	key := path.Join(m.sinkKey, table)
	if err := m.sink.DeletePrefix(key); err != nil {
		return errors.Wrapf(err, "clearing %s", key)
	}
	if err := m.sink.UploadDir(filepath.Join(m.outDir, table), key); err != nil {
		return errors.Wrapf(err, "uploading %s", key)
	}
	return nil
}

func (m *Main) tableSize(table string) datalake.Bytes {
	var size int64
	_ = filepath.Walk(filepath.Join(m.outDir, table), func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return datalake.Bytes(size)
}

// pump feeds every record from src through process on Concurrency
// goroutines. Undecodable records are counted and logged, not fatal;
// the scan only stops early when process itself fails.
func (m *Main) pump(src datalake.Source, process func(raw json.RawMessage) error) error {
	g := errgroup.Group{}
	for i := 0; i < m.Concurrency; i++ {
		g.Go(func() error {
			for {
				rec, err := src.Record()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					m.Statter.Count("records.bad", 1, 1)
					m.log.Debugf("skipping: %v", err)
					continue
				}
				if err := process(rec.(json.RawMessage)); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// ProcessSongData scans the song metadata, writes the songs and artists
// tables, and fills the song catalog the log phase joins against.
func (m *Main) ProcessSongData() error {
	start := time.Now()
	rs, err := m.rawSource("song_data")
	if err != nil {
		return errors.Wrap(err, "getting song_data source")
	}
	src, err := pjson.NewSourceFromRawSource(rs, pjson.OptSrcBufSize(m.BufSize))
	if err != nil {
		return errors.Wrap(err, "getting json source")
	}

	songs, err := m.newTableWriter(datalake.SongsTable, new(datalake.SongRow))
	if err != nil {
		return errors.Wrap(err, "opening songs table")
	}
	var artistProto interface{} = new(datalake.ArtistRow)
	if m.GeohashPrecision > 0 {
		artistProto = new(datalake.GeoArtistRow)
	}
	artists, err := m.newTableWriter(datalake.ArtistsTable, artistProto)
	if err != nil {
		return errors.Wrap(err, "opening artists table")
	}

	songDedup := datalake.NewDeduper()
	artistDedup := datalake.NewDeduper()

	err = m.pump(src, func(raw json.RawMessage) error {
		s, err := datalake.DecodeSong(raw)
		if err != nil {
			m.Statter.Count("songs.bad", 1, 1)
			m.log.Debugf("skipping song record: %v", err)
			return nil
		}
		m.Statter.Count("songs.scanned", 1, 1)

		ref := datalake.SongRef{SongID: s.SongID, ArtistID: s.ArtistID}
		if err := m.catalog.Add(s.Title, ref); err != nil {
			return errors.Wrap(err, "cataloging song")
		}

		row := datalake.NewSongRow(s)
		if songDedup.FirstSeen(row.Key()) {
			if err := songs.Write(row); err != nil {
				return err
			}
		} else {
			m.Statter.Count("songs.dup", 1, 1)
		}

		return m.writeArtist(artists, artistDedup, s)
	})
	if err != nil {
		return err
	}

	if err := songs.Close(); err != nil {
		return errors.Wrap(err, "closing songs table")
	}
	if err := artists.Close(); err != nil {
		return errors.Wrap(err, "closing artists table")
	}
	if err := m.publish(datalake.SongsTable); err != nil {
		return err
	}
	if err := m.publish(datalake.ArtistsTable); err != nil {
		return err
	}

	m.log.Printf("%s: %d rows in %d partitions (%s); %s: %d rows (%s); %v elapsed",
		datalake.SongsTable, songs.Rows(), songs.Partitions(), m.tableSize(datalake.SongsTable),
		datalake.ArtistsTable, artists.Rows(), m.tableSize(datalake.ArtistsTable),
		time.Since(start).Round(time.Millisecond))
	return nil
}

func (m *Main) writeArtist(w *parquet.TableWriter, dedup *datalake.Deduper, s datalake.SongRecord) error {
	if m.GeohashPrecision > 0 {
		row := datalake.NewGeoArtistRow(s)
		if s.ArtistLatitude != nil && s.ArtistLongitude != nil {
			h := geohash.Encode(*s.ArtistLatitude, *s.ArtistLongitude, m.GeohashPrecision)
			row.Geohash = &h
		}
		if !dedup.FirstSeen(row.Key()) {
			m.Statter.Count("artists.dup", 1, 1)
			return nil
		}
		return w.Write(row)
	}
	row := datalake.NewArtistRow(s)
	if !dedup.FirstSeen(row.Key()) {
		m.Statter.Count("artists.dup", 1, 1)
		return nil
	}
	return w.Write(row)
}

// ProcessLogData scans the event logs and writes the users, time, and
// songplays tables. It joins against the catalog ProcessSongData built;
// running it on its own only makes sense with a bolt or leveldb catalog
// kept from an earlier run.
func (m *Main) ProcessLogData() error {
	start := time.Now()
	rs, err := m.rawSource("log_data")
	if err != nil {
		return errors.Wrap(err, "getting log_data source")
	}
	src, err := pjson.NewSourceFromRawSource(rs, pjson.OptSrcBufSize(m.BufSize))
	if err != nil {
		return errors.Wrap(err, "getting json source")
	}

	users, err := m.newTableWriter(datalake.UsersTable, new(datalake.UserRow))
	if err != nil {
		return errors.Wrap(err, "opening users table")
	}
	times, err := m.newTableWriter(datalake.TimeTable, new(datalake.TimeRow))
	if err != nil {
		return errors.Wrap(err, "opening time table")
	}
	plays, err := m.newTableWriter(datalake.SongplaysTable, new(datalake.SongplayRow))
	if err != nil {
		return errors.Wrap(err, "opening songplays table")
	}

	userDedup := datalake.NewDeduper()
	timeDedup := datalake.NewDeduper()

	err = m.pump(src, func(raw json.RawMessage) error {
		e, err := datalake.DecodeEvent(raw)
		if err != nil {
			m.Statter.Count("events.bad", 1, 1)
			m.log.Debugf("skipping event: %v", err)
			return nil
		}
		m.Statter.Count("events.scanned", 1, 1)
		if !e.IsNextSong() {
			return nil
		}
		m.Statter.Count("events.plays", 1, 1)

		userRow := datalake.NewUserRow(e)
		if userDedup.FirstSeen(userRow.Key()) {
			if err := users.Write(userRow); err != nil {
				return err
			}
		}

		timeRow := datalake.NewTimeRow(e.Start())
		if timeDedup.FirstSeen(timeRow.Key()) {
			if err := times.Write(timeRow); err != nil {
				return err
			}
		}

		refs, err := m.catalog.Lookup(e.Song)
		if err != nil {
			return errors.Wrap(err, "looking up song")
		}
		if len(refs) == 0 {
			m.Statter.Count("plays.unmatched", 1, 1)
			return plays.Write(datalake.NewSongplayRow(int64(m.nexter.Next()), e, nil))
		}
		m.Statter.Count("plays.matched", 1, 1)
		for i := range refs {
			row := datalake.NewSongplayRow(int64(m.nexter.Next()), e, &refs[i])
			if err := plays.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	tables := []struct {
		name string
		w    *parquet.TableWriter
	}{
		{datalake.UsersTable, users},
		{datalake.TimeTable, times},
		{datalake.SongplaysTable, plays},
	}
	for _, table := range tables {
		if err := table.w.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", table.name)
		}
		if err := m.publish(table.name); err != nil {
			return err
		}
	}

	m.log.Printf("%s: %d rows (%s); %s: %d rows (%s); %s: %d rows in %d partitions (%s); %v elapsed",
		datalake.UsersTable, users.Rows(), m.tableSize(datalake.UsersTable),
		datalake.TimeTable, times.Rows(), m.tableSize(datalake.TimeTable),
		datalake.SongplaysTable, plays.Rows(), plays.Partitions(), m.tableSize(datalake.SongplaysTable),
		time.Since(start).Round(time.Millisecond))
	return nil
}
