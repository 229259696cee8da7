package datalake_test

import (
	"sort"
	"sync"
	"testing"

	datalake "github.com/aabid0193/spark-datalake-etl"
)

func TestNexter(t *testing.T) {
	n := datalake.NewNexter()
	if id := n.Next(); id != 0 {
		t.Fatalf("first id should be 0, got %d", id)
	}
	if id := n.Next(); id != 1 {
		t.Fatalf("second id should be 1, got %d", id)
	}
	if last := n.Last(); last != 1 {
		t.Fatalf("last should be 1, got %d", last)
	}

	n = datalake.NewNexter(datalake.NexterStartFrom(19))
	if id := n.Next(); id != 19 {
		t.Fatalf("expected 19, got %d", id)
	}
}

func TestNexterConcurrent(t *testing.T) {
	n := datalake.NewNexter()
	ids := make(chan uint64, 400)
	wg := sync.WaitGroup{}
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ids <- n.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	got := make([]uint64, 0, 400)
	for id := range ids {
		got = append(got, id)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, id := range got {
		if uint64(i) != id {
			t.Fatalf("ids should be dense from 0: position %d has %d", i, id)
		}
	}
}
