package gen

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	g := NewGenerator(1)
	s := g.String(16, 1000)
	if len(s) != 16 {
		t.Fatalf("wrong length: %q", s)
	}
	s = g.String(40, 1000)
	if len(s) != 32 {
		t.Fatalf("length should cap at 32: %q", s)
	}

	g2 := NewGenerator(1)
	if g2.String(16, 1000) != NewGenerator(1).String(16, 1000) {
		t.Fatal("same seed should generate the same string")
	}
}

func TestUint64(t *testing.T) {
	g := NewGenerator(2)
	for i := 0; i < 1000; i++ {
		if v := g.Uint64(10); v >= 10 {
			t.Fatalf("value out of cardinality range: %d", v)
		}
	}
}

func TestTime(t *testing.T) {
	g := NewGenerator(3)
	from := time.Date(2018, time.November, 1, 0, 0, 0, 0, time.UTC)
	prev := from
	for i := 0; i < 100; i++ {
		next := g.Time(from, time.Minute)
		if next.Before(prev) {
			t.Fatalf("time went backwards: %v then %v", prev, next)
		}
		prev = next
	}
}
