package datalake

import (
	"strconv"
	"sync"
	"testing"
)

func TestDeduper(t *testing.T) {
	d := NewDeduper()
	if !d.FirstSeen("a") {
		t.Fatal("first a should be first")
	}
	if d.FirstSeen("a") {
		t.Fatal("second a should not be first")
	}
	if !d.FirstSeen("b") {
		t.Fatal("first b should be first")
	}
	if d.Size() != 2 {
		t.Fatalf("wrong size: %d", d.Size())
	}
}

func TestDeduperConcurrent(t *testing.T) {
	d := NewDeduper()
	n := 50
	firsts := make(chan int, n*4)
	wg := sync.WaitGroup{}
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				if d.FirstSeen(strconv.Itoa(i)) {
					firsts <- i
				}
			}
		}()
	}
	wg.Wait()
	close(firsts)

	counts := make(map[int]int)
	for i := range firsts {
		counts[i]++
	}
	if len(counts) != n {
		t.Fatalf("expected %d distinct keys, got %d", n, len(counts))
	}
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("key %d was first %d times", i, c)
		}
	}
}
