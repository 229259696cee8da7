package datalake

import (
	"fmt"
	"strconv"
	"time"
)

// Output table directory names. These match what the original warehouse
// queries expect, so user_table really is singular.
const (
	SongsTable     = "songs_table"
	ArtistsTable   = "artists_table"
	UsersTable     = "user_table"
	TimeTable      = "time_table"
	SongplaysTable = "songplays_table"
)

// SongRow is one row of the songs dimension, partitioned by year and
// artist_id.
type SongRow struct {
	SongID   string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title    string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year     int32   `parquet:"name=year, type=INT32"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

// NewSongRow builds a songs row from a song metadata record.
func NewSongRow(s SongRecord) SongRow {
	return SongRow{
		SongID:   s.SongID,
		Title:    s.Title,
		ArtistID: s.ArtistID,
		Year:     int32(s.Year),
		Duration: s.Duration,
	}
}

// Partition returns the hive-style path segments for the row.
func (r SongRow) Partition() []string {
	return []string{fmt.Sprintf("year=%d", r.Year), "artist_id=" + r.ArtistID}
}

// Key returns the row's dedupe key.
func (r SongRow) Key() string {
	return Key(r.SongID, r.Title, r.ArtistID, strconv.Itoa(int(r.Year)), fmtFloat(r.Duration))
}

// ArtistRow is one row of the artists dimension. Not partitioned.
type ArtistRow struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string   `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  string   `parquet:"name=artist_location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude  *float64 `parquet:"name=artist_latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=artist_longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// NewArtistRow builds an artists row from a song metadata record.
func NewArtistRow(s SongRecord) ArtistRow {
	return ArtistRow{
		ArtistID:  s.ArtistID,
		Name:      s.ArtistName,
		Location:  s.ArtistLocation,
		Latitude:  s.ArtistLatitude,
		Longitude: s.ArtistLongitude,
	}
}

// Key returns the row's dedupe key. Distinct variants of the same
// artist_id (moves, renames) stay distinct rows, like a full-row
// DISTINCT would keep them.
func (r ArtistRow) Key() string {
	return Key(r.ArtistID, r.Name, r.Location, fmtFloatPtr(r.Latitude), fmtFloatPtr(r.Longitude))
}

// GeoArtistRow is an ArtistRow plus a geohash of the artist coordinates.
// It's a separate type so the extra column only exists in the output
// schema when geohashing is turned on.
type GeoArtistRow struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string   `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  string   `parquet:"name=artist_location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude  *float64 `parquet:"name=artist_latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=artist_longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Geohash   *string  `parquet:"name=location_geohash, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// NewGeoArtistRow builds a geohashed artists row. The caller fills in
// Geohash when the record has coordinates.
func NewGeoArtistRow(s SongRecord) GeoArtistRow {
	return GeoArtistRow{
		ArtistID:  s.ArtistID,
		Name:      s.ArtistName,
		Location:  s.ArtistLocation,
		Latitude:  s.ArtistLatitude,
		Longitude: s.ArtistLongitude,
	}
}

// Key returns the row's dedupe key, ignoring the derived geohash.
func (r GeoArtistRow) Key() string {
	return Key(r.ArtistID, r.Name, r.Location, fmtFloatPtr(r.Latitude), fmtFloatPtr(r.Longitude))
}

// UserRow is one row of the users dimension. Not partitioned.
type UserRow struct {
	UserID    string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewUserRow builds a users row from a play event. A user who switches
// level mid-dataset shows up once per level.
func NewUserRow(e PlayEvent) UserRow {
	return UserRow{
		UserID:    string(e.UserID),
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		Level:     e.Level,
	}
}

// Key returns the row's dedupe key.
func (r UserRow) Key() string {
	return Key(r.UserID, r.FirstName, r.LastName, r.Gender, r.Level)
}

// TimeRow is one row of the time dimension, partitioned by year and
// month. StartTime is epoch milliseconds at a whole-second boundary.
type TimeRow struct {
	StartTime int64 `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Hour      int32 `parquet:"name=hour, type=INT32"`
	Day       int32 `parquet:"name=day, type=INT32"`
	Week      int32 `parquet:"name=week, type=INT32"`
	Month     int32 `parquet:"name=month, type=INT32"`
	Year      int32 `parquet:"name=year, type=INT32"`
	Weekday   int32 `parquet:"name=weekday, type=INT32"`
}

// NewTimeRow builds a time row for the given instant.
func NewTimeRow(t time.Time) TimeRow {
	p := SplitTime(t)
	return TimeRow{
		StartTime: t.Unix() * 1000,
		Hour:      int32(p.Hour),
		Day:       int32(p.Day),
		Week:      int32(p.Week),
		Month:     int32(p.Month),
		Year:      int32(p.Year),
		Weekday:   int32(p.Weekday),
	}
}

// Partition returns the hive-style path segments for the row.
func (r TimeRow) Partition() []string {
	return []string{fmt.Sprintf("year=%d", r.Year), fmt.Sprintf("month=%d", r.Month)}
}

// Key returns the row's dedupe key. Everything else is derived from
// start_time, so the timestamp alone identifies the row.
func (r TimeRow) Key() string {
	return strconv.FormatInt(r.StartTime, 10)
}

// SongplayRow is one row of the songplays fact table, partitioned by
// year and month of the play. SongID and ArtistID are null when the
// played title isn't in the song metadata, which is most plays on the
// subset datasets.
type SongplayRow struct {
	SongplayID int64   `parquet:"name=songplay_id, type=INT64"`
	StartTime  int64   `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	UserID     string  `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level      string  `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongID     *string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	ArtistID   *string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	SessionID  int64   `parquet:"name=session_id, type=INT64"`
	Location   string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAgent  string  `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year       int32   `parquet:"name=year, type=INT32"`
	Month      int32   `parquet:"name=month, type=INT32"`
}

// NewSongplayRow builds a songplays row from a play event. ref is nil
// when the played title has no match in the song metadata.
func NewSongplayRow(id int64, e PlayEvent, ref *SongRef) SongplayRow {
	start := e.Start()
	p := SplitTime(start)
	r := SongplayRow{
		SongplayID: id,
		StartTime:  start.Unix() * 1000,
		UserID:     string(e.UserID),
		Level:      e.Level,
		SessionID:  e.SessionID,
		Location:   e.Location,
		UserAgent:  e.UserAgent,
		Year:       int32(p.Year),
		Month:      int32(p.Month),
	}
	if ref != nil {
		songID, artistID := ref.SongID, ref.ArtistID
		r.SongID = &songID
		r.ArtistID = &artistID
	}
	return r
}

// Partition returns the hive-style path segments for the row.
func (r SongplayRow) Partition() []string {
	return []string{fmt.Sprintf("year=%d", r.Year), fmt.Sprintf("month=%d", r.Month)}
}

// TimeParts are the calendar fields the time dimension carries for one
// timestamp.
type TimeParts struct {
	Hour    int
	Day     int
	Week    int
	Month   int
	Year    int
	Weekday int
}

// SplitTime breaks an instant into calendar fields in UTC. Weekday runs
// 1 (Sunday) through 7 (Saturday) and Week is the ISO-8601 week number.
func SplitTime(t time.Time) TimeParts {
	t = t.UTC()
	_, week := t.ISOWeek()
	return TimeParts{
		Hour:    t.Hour(),
		Day:     t.Day(),
		Week:    week,
		Month:   int(t.Month()),
		Year:    t.Year(),
		Weekday: int(t.Weekday()) + 1,
	}
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func fmtFloatPtr(f *float64) string {
	if f == nil {
		return "null"
	}
	return fmtFloat(*f)
}
