package fake

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/aabid0193/spark-datalake-etl/fake/gen"
)

// Event mirrors the JSON shape of one line in the event logs. UserID is
// an interface because the real logs flip between quoted strings and
// bare numbers, and consumers need to cope with both.
type Event struct {
	Artist        string      `json:"artist"`
	Auth          string      `json:"auth"`
	FirstName     string      `json:"firstName"`
	Gender        string      `json:"gender"`
	ItemInSession int         `json:"itemInSession"`
	LastName      string      `json:"lastName"`
	Length        float64     `json:"length"`
	Level         string      `json:"level"`
	Location      string      `json:"location"`
	Method        string      `json:"method"`
	Page          string      `json:"page"`
	Registration  float64     `json:"registration"`
	SessionID     int64       `json:"sessionId"`
	Song          string      `json:"song"`
	Status        int         `json:"status"`
	TS            int64       `json:"ts"`
	UserAgent     string      `json:"userAgent"`
	UserID        interface{} `json:"userId"`
}

type listener struct {
	id           int
	first, last  string
	gender       string
	level        string
	registration float64
	location     string
	userAgent    string
	flipAfter    int
	flipped      bool
	quoteID      bool

	sessionID int64
	item      int
	lastTS    int64
}

// EventGenerator generates random play events with an increasing clock,
// like an app's event stream replayed in order. Passing the songs it
// should play from makes some plays match the metadata; with nil songs
// every play is an unknown title.
type EventGenerator struct {
	r         *rand.Rand
	g         *gen.Generator
	songs     []Song
	listeners []listener
	base      time.Time
	sessions  int64
	n         int
}

// NewEventGenerator gets an EventGenerator. Equal seeds generate the
// same events on a given version of Go.
func NewEventGenerator(seed int64, songs []Song) *EventGenerator {
	eg := &EventGenerator{
		r:     rand.New(rand.NewSource(seed)),
		g:     gen.NewGenerator(seed + 1),
		songs: songs,
		base:  time.Date(2018, time.November, 1, 0, 0, 0, 0, time.UTC),
	}
	eg.listeners = make([]listener, 25)
	for i := range eg.listeners {
		u := listener{
			id:        i + 2,
			first:     firstNames[eg.r.Intn(len(firstNames))],
			last:      lastNames[eg.r.Intn(len(lastNames))],
			gender:    "F",
			level:     "free",
			location:  cities[eg.r.Intn(len(cities))].name,
			userAgent: userAgents[eg.r.Intn(len(userAgents))],
			quoteID:   eg.r.Intn(4) > 0,
		}
		if eg.r.Intn(2) == 0 {
			u.gender = "M"
		}
		if eg.r.Intn(4) == 0 {
			u.level = "paid"
		}
		if eg.r.Intn(8) == 0 {
			u.flipAfter = 50 + eg.r.Intn(500)
		}
		reg := eg.base.AddDate(0, 0, -eg.r.Intn(90))
		u.registration = float64(reg.UnixNano() / int64(time.Millisecond))
		eg.listeners[i] = u
	}
	return eg
}

// Event generates the next event.
func (eg *EventGenerator) Event() *Event {
	eg.n++
	ts := eg.g.Time(eg.base, 45*time.Second)
	u := &eg.listeners[int(eg.g.Uint64(len(eg.listeners)))]
	if u.flipAfter > 0 && !u.flipped && eg.n > u.flipAfter {
		u.flipped = true
		if u.level == "free" {
			u.level = "paid"
		} else {
			u.level = "free"
		}
	}

	// A listener idle for half an hour comes back in a new session.
	tsMS := ts.UnixNano() / int64(time.Millisecond)
	if u.sessionID == 0 || tsMS-u.lastTS > int64(30*time.Minute/time.Millisecond) {
		eg.sessions++
		u.sessionID = eg.sessions
		u.item = 0
	}
	u.lastTS = tsMS

	ev := &Event{
		Auth:          "Logged In",
		FirstName:     u.first,
		Gender:        u.gender,
		ItemInSession: u.item,
		LastName:      u.last,
		Level:         u.level,
		Location:      u.location,
		Method:        "GET",
		Registration:  u.registration,
		SessionID:     u.sessionID,
		Status:        200,
		TS:            tsMS,
		UserAgent:     u.userAgent,
		UserID:        strconv.Itoa(u.id),
	}
	if !u.quoteID {
		ev.UserID = u.id
	}
	u.item++

	if eg.r.Intn(10) < 8 {
		ev.Page = "NextSong"
		ev.Method = "PUT"
		if len(eg.songs) > 0 && eg.r.Intn(10) < 7 {
			s := eg.songs[int(eg.g.Uint64(len(eg.songs)))]
			ev.Artist = s.ArtistName
			ev.Song = s.Title
			ev.Length = s.Duration
		} else {
			ev.Artist = artistFirst[eg.r.Intn(len(artistFirst))] + " Unknown"
			ev.Song = "Obscure " + titleWords[eg.r.Intn(len(titleWords))]
			ev.Length = 60 + float64(eg.r.Intn(420000))/1000
		}
	} else {
		ev.Page = pages[eg.r.Intn(len(pages))]
		if eg.r.Intn(20) == 0 {
			ev.Status = 307
		}
	}
	return ev
}

var pages = []string{"Home", "Settings", "Logout", "Upgrade", "Help", "About"}

var firstNames = []string{
	"Kaylee", "Sylvie", "Ryan", "Lily", "Jayden", "Wyatt", "Maia",
	"Tegan", "Sara", "Braden", "Celeste", "Magdalene", "Anabelle",
}

var lastNames = []string{
	"Summers", "Cruz", "Smith", "Koch", "Graves", "Scott", "Burke",
	"Barrett", "Johnson", "Parker", "Williams", "Lane", "Simpson",
}

var userAgents = []string{
	`"Mozilla/5.0 (Windows NT 6.1; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/36.0.1985.143 Safari/537.36"`,
	`"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_9_4) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/36.0.1985.125 Safari/537.36"`,
	`Mozilla/5.0 (Windows NT 5.1; rv:31.0) Gecko/20100101 Firefox/31.0`,
	`"Mozilla/5.0 (iPhone; CPU iPhone OS 7_1_2 like Mac OS X) AppleWebKit/537.51.2 (KHTML, like Gecko) Version/7.0 Mobile/11D257 Safari/9537.53"`,
	`Mozilla/5.0 (Macintosh; Intel Mac OS X 10.9; rv:31.0) Gecko/20100101 Firefox/31.0`,
}
