package fake

import (
	"encoding/json"
	"testing"

	datalake "github.com/aabid0193/spark-datalake-etl"
)

func TestEventGenerator(t *testing.T) {
	sg := NewSongGenerator(0)
	songs := sg.Songs(50)
	byTitle := map[string]bool{}
	for _, s := range songs {
		byTitle[s.Title] = true
	}

	eg := NewEventGenerator(1, songs)
	var prevTS int64
	plays, known, quoted, bare := 0, 0, 0, 0
	for i := 0; i < 1000; i++ {
		ev := eg.Event()
		if ev.TS < prevTS {
			t.Fatalf("event clock went backwards: %d then %d", prevTS, ev.TS)
		}
		prevTS = ev.TS
		if ev.SessionID == 0 {
			t.Fatal("event has no session")
		}
		switch ev.UserID.(type) {
		case string:
			quoted++
		case int:
			bare++
		default:
			t.Fatalf("unexpected userId type %T", ev.UserID)
		}
		if ev.Page == "NextSong" {
			plays++
			if byTitle[ev.Song] {
				known++
			}
		}
	}

	if plays < 500 {
		t.Fatalf("expected mostly NextSong events, got %d/1000", plays)
	}
	if known == 0 || known == plays {
		t.Fatalf("expected a mix of known and unknown titles, got %d/%d", known, plays)
	}
	if quoted == 0 || bare == 0 {
		t.Fatalf("expected both quoted and bare user ids, got %d/%d", quoted, bare)
	}
}

func TestEventDecodes(t *testing.T) {
	eg := NewEventGenerator(2, NewSongGenerator(0).Songs(10))
	for i := 0; i < 100; i++ {
		b, err := json.Marshal(eg.Event())
		if err != nil {
			t.Fatalf("marshaling event: %v", err)
		}
		if _, err := datalake.DecodeEvent(b); err != nil {
			t.Fatalf("generated event should decode: %v\n%s", err, b)
		}
	}
}

func TestEventGeneratorNoSongs(t *testing.T) {
	eg := NewEventGenerator(3, nil)
	for i := 0; i < 50; i++ {
		ev := eg.Event()
		if ev.Page == "NextSong" && ev.Song == "" {
			t.Fatal("plays should still name a song without a pool")
		}
	}
}
