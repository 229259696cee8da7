package datalake

import (
	"testing"
	"time"
)

func TestSplitTime(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		exp  TimeParts
	}{
		{
			name: "thursday evening",
			t:    time.Date(2018, time.November, 1, 21, 1, 46, 0, time.UTC),
			exp:  TimeParts{Hour: 21, Day: 1, Week: 44, Month: 11, Year: 2018, Weekday: 5},
		},
		{
			name: "sunday is weekday 1",
			t:    time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC),
			exp:  TimeParts{Hour: 0, Day: 1, Week: 52, Month: 1, Year: 2017, Weekday: 1},
		},
		{
			name: "iso week rolls over before new year",
			t:    time.Date(2018, time.December, 31, 12, 0, 0, 0, time.UTC),
			exp:  TimeParts{Hour: 12, Day: 31, Week: 1, Month: 12, Year: 2018, Weekday: 2},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := SplitTime(test.t)
			if got != test.exp {
				t.Fatalf("got %+v, expected %+v", got, test.exp)
			}
		})
	}
}

func TestNewTimeRow(t *testing.T) {
	e := PlayEvent{TS: 1541106106796}
	row := NewTimeRow(e.Start())
	if row.StartTime != 1541106106000 {
		t.Fatalf("start_time should be truncated to the second: %d", row.StartTime)
	}
	if row.Hour != 21 || row.Day != 1 || row.Week != 44 || row.Month != 11 || row.Year != 2018 || row.Weekday != 5 {
		t.Fatalf("wrong calendar fields: %+v", row)
	}
	got := row.Partition()
	if len(got) != 2 || got[0] != "year=2018" || got[1] != "month=11" {
		t.Fatalf("wrong partition: %v", got)
	}
}

func TestNewSongplayRow(t *testing.T) {
	e := PlayEvent{
		TS:        1541106106796,
		UserID:    "8",
		Level:     "free",
		SessionID: 139,
		Location:  "Phoenix-Mesa-Scottsdale, AZ",
		UserAgent: "Mozilla/5.0",
	}

	row := NewSongplayRow(0, e, nil)
	if row.SongID != nil || row.ArtistID != nil {
		t.Fatalf("unmatched play should have null song and artist: %+v", row)
	}
	if row.StartTime != 1541106106000 || row.Year != 2018 || row.Month != 11 {
		t.Fatalf("wrong time fields: %+v", row)
	}

	row = NewSongplayRow(1, e, &SongRef{SongID: "SO1", ArtistID: "AR1"})
	if row.SongID == nil || *row.SongID != "SO1" {
		t.Fatalf("wrong song_id: %+v", row.SongID)
	}
	if row.ArtistID == nil || *row.ArtistID != "AR1" {
		t.Fatalf("wrong artist_id: %+v", row.ArtistID)
	}
	if row.SongplayID != 1 {
		t.Fatalf("wrong songplay_id: %d", row.SongplayID)
	}
}

func TestSongRowPartition(t *testing.T) {
	row := NewSongRow(SongRecord{SongID: "SO1", Title: "x", ArtistID: "ARJIE2Y1187B994AB7", Year: 0, Duration: 152.92})
	got := row.Partition()
	if len(got) != 2 || got[0] != "year=0" || got[1] != "artist_id=ARJIE2Y1187B994AB7" {
		t.Fatalf("wrong partition: %v", got)
	}
}

func TestRowKeys(t *testing.T) {
	lat, lng := 35.1, -90.0
	a := NewArtistRow(SongRecord{ArtistID: "AR1", ArtistName: "Elena"})
	b := NewArtistRow(SongRecord{ArtistID: "AR1", ArtistName: "Elena", ArtistLatitude: &lat, ArtistLongitude: &lng})
	if a.Key() == b.Key() {
		t.Fatal("rows with and without coordinates should have distinct keys")
	}
	if a.Key() != NewArtistRow(SongRecord{ArtistID: "AR1", ArtistName: "Elena"}).Key() {
		t.Fatal("identical rows should share a key")
	}

	u1 := NewUserRow(PlayEvent{UserID: "8", FirstName: "Kaylee", Level: "free"})
	u2 := NewUserRow(PlayEvent{UserID: "8", FirstName: "Kaylee", Level: "paid"})
	if u1.Key() == u2.Key() {
		t.Fatal("level change should produce a distinct user row")
	}

	s1 := NewSongRow(SongRecord{SongID: "SO1", Title: "ab", ArtistID: "c"})
	s2 := NewSongRow(SongRecord{SongID: "SO1", Title: "a", ArtistID: "bc"})
	if s1.Key() == s2.Key() {
		t.Fatal("field boundaries should be preserved in keys")
	}
}
