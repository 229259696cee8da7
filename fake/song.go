package fake

import (
	"math/rand"

	"github.com/aabid0193/spark-datalake-etl/fake/gen"
)

// Song mirrors the JSON shape of one song metadata file.
type Song struct {
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

type artist struct {
	id       string
	name     string
	location string
	lat, lng *float64
}

// SongGenerator generates random song metadata records. The title pool
// is small on purpose: different songs sharing a title is a real quirk
// of the dataset and the songplays join has to fan out over it.
type SongGenerator struct {
	r       *rand.Rand
	g       *gen.Generator
	artists []artist
	n       uint64
}

// NewSongGenerator gets a SongGenerator. Equal seeds generate the same
// songs on a given version of Go.
func NewSongGenerator(seed int64) *SongGenerator {
	sg := &SongGenerator{
		r: rand.New(rand.NewSource(seed)),
		g: gen.NewGenerator(seed + 1),
	}
	sg.artists = make([]artist, 60)
	for i := range sg.artists {
		a := artist{
			id:   "AR" + sg.g.ID(16, uint64(i)),
			name: artistFirst[i%len(artistFirst)] + " " + artistLast[(i/len(artistFirst))%len(artistLast)],
		}
		if sg.r.Intn(10) < 6 {
			c := cities[sg.r.Intn(len(cities))]
			lat, lng := c.lat, c.lng
			a.location = c.name
			a.lat, a.lng = &lat, &lng
		}
		sg.artists[i] = a
	}
	return sg
}

// Song generates a random song.
func (sg *SongGenerator) Song() Song {
	a := sg.artists[int(sg.g.Uint64(len(sg.artists)))]
	sg.n++
	year := 0
	if sg.r.Intn(10) < 8 {
		year = 1960 + sg.r.Intn(59)
	}
	return Song{
		NumSongs:        1,
		ArtistID:        a.id,
		ArtistLatitude:  a.lat,
		ArtistLongitude: a.lng,
		ArtistLocation:  a.location,
		ArtistName:      a.name,
		SongID:          "SO" + sg.g.ID(16, 1<<32+sg.n),
		Title:           sg.title(),
		Duration:        60 + float64(sg.r.Intn(480000))/1000,
		Year:            year,
	}
}

// Songs generates n random songs.
func (sg *SongGenerator) Songs(n int) []Song {
	songs := make([]Song, n)
	for i := range songs {
		songs[i] = sg.Song()
	}
	return songs
}

func (sg *SongGenerator) title() string {
	t := titleWords[sg.r.Intn(len(titleWords))]
	if sg.r.Intn(2) == 0 {
		t += " " + titleWords[sg.r.Intn(len(titleWords))]
	}
	return t
}

var artistFirst = []string{
	"Crimson", "Electric", "Golden", "Midnight", "Silver", "Velvet",
	"Wild", "Broken", "Lucky", "Neon",
}

var artistLast = []string{
	"Arrows", "Canyon", "Foxes", "Harbor", "Motel", "Orchard",
	"Pilots", "Rivers", "Sparrows", "Wolves",
}

var titleWords = []string{
	"Home", "Fire", "River", "Gold", "Night", "Summer", "Winter", "Rain",
	"Heart", "Road", "Light", "Ghost", "Wire", "Stone", "Echo", "Dust",
	"Blue", "Saturday", "Trouble", "Honey",
}

var cities = []struct {
	name     string
	lat, lng float64
}{
	{"Phoenix-Mesa-Scottsdale, AZ", 33.4484, -112.074},
	{"Chicago-Naperville-Elgin, IL-IN-WI", 41.8781, -87.6298},
	{"New York-Newark-Jersey City, NY-NJ-PA", 40.7128, -74.006},
	{"San Francisco-Oakland-Hayward, CA", 37.7749, -122.4194},
	{"Portland-South Portland, ME", 43.6591, -70.2568},
	{"Atlanta-Sandy Springs-Roswell, GA", 33.749, -84.388},
	{"Tampa-St. Petersburg-Clearwater, FL", 27.9506, -82.4572},
	{"Birmingham, England", 52.4862, -1.8904},
	{"Dubai, UAE", 25.2048, 55.2708},
	{"Minneapolis-St. Paul-Bloomington, MN-WI", 44.9778, -93.265},
}
