package datalake

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// PageNextSong is the page value marking an event as an actual song play.
// Events for every other page (Home, Login, Logout...) are navigation and
// don't make it into the star schema.
const PageNextSong = "NextSong"

// FlexString decodes a JSON string, number, or null into a string. The
// event logs encode userId as a quoted string in some files and a bare
// number in others.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return errors.Wrap(err, "unmarshaling string")
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Wrap(err, "unmarshaling number")
	}
	*f = FlexString(n.String())
	return nil
}

// SongRecord is one object from the song metadata dataset. Latitude and
// longitude are pointers because many artists have them as null.
type SongRecord struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`
}

// DecodeSong unmarshals a raw song metadata object.
func DecodeSong(raw json.RawMessage) (SongRecord, error) {
	var s SongRecord
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, errors.Wrap(err, "unmarshaling song record")
	}
	if s.SongID == "" {
		return s, errors.New("song record has no song_id")
	}
	return s, nil
}

// PlayEvent is one object from the event logs. TS is epoch milliseconds.
type PlayEvent struct {
	Artist        string     `json:"artist"`
	Auth          string     `json:"auth"`
	FirstName     string     `json:"firstName"`
	Gender        string     `json:"gender"`
	ItemInSession int        `json:"itemInSession"`
	LastName      string     `json:"lastName"`
	Length        float64    `json:"length"`
	Level         string     `json:"level"`
	Location      string     `json:"location"`
	Method        string     `json:"method"`
	Page          string     `json:"page"`
	Registration  float64    `json:"registration"`
	SessionID     int64      `json:"sessionId"`
	Song          string     `json:"song"`
	Status        int        `json:"status"`
	TS            int64      `json:"ts"`
	UserAgent     string     `json:"userAgent"`
	UserID        FlexString `json:"userId"`
}

// DecodeEvent unmarshals a raw play event object.
func DecodeEvent(raw json.RawMessage) (PlayEvent, error) {
	var e PlayEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, errors.Wrap(err, "unmarshaling play event")
	}
	if e.TS <= 0 {
		return e, errors.Errorf("play event has bad ts %d", e.TS)
	}
	return e, nil
}

// IsNextSong reports whether the event is an actual song play.
func (e *PlayEvent) IsNextSong() bool { return e.Page == PageNextSong }

// Start returns the event timestamp truncated to whole seconds in UTC,
// which is the resolution the time and songplays tables carry.
func (e *PlayEvent) Start() time.Time {
	return time.Unix(e.TS/1000, 0).UTC()
}
