package datalake

import "sync/atomic"

// Nexter is a threadsafe monotonic unique id generator. It hands out the
// songplay ids.
type Nexter struct {
	id *uint64
}

// NexterOption is a functional option for Nexter.
type NexterOption func(n *Nexter)

// NexterStartFrom returns an option which sets the first id a Nexter
// will hand out.
func NexterStartFrom(id uint64) NexterOption {
	return func(n *Nexter) {
		*n.id = id
	}
}

// NewNexter creates a new id generator starting at 0.
func NewNexter(opts ...NexterOption) *Nexter {
	var id uint64
	n := &Nexter{
		id: &id,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Next returns the next id.
func (n *Nexter) Next() (nextID uint64) {
	nextID = atomic.AddUint64(n.id, 1)
	return nextID - 1
}

// Last returns the most recently generated id. Calling Last before any
// Next returns the max uint64.
func (n *Nexter) Last() (lastID uint64) {
	lastID = atomic.LoadUint64(n.id)
	return lastID - 1
}
