// Package sequence computes the playback order of a filtered record set and
// resolves next/previous navigation over it.
//
// The persisted catalog has no order of its own. Every navigation call builds
// a fresh chain from the currently filtered records: the set is sorted
// newest-day-first with the earliest capture first within a day for listing,
// and every entry is annotated with the id of its chronological successor and
// predecessor for navigation. Playback therefore starts at the oldest capture
// and moves forward in time. The chain is a pure function of its input, so
// identical filters yield identical navigation results.
package sequence

import (
	"math/rand"
	"sort"
	"time"
)

// Entry is one record inside a playback chain.
type Entry struct {
	ID   string
	Date time.Time
}

// Chain is the materialized playback order of one filtered record set.
type Chain struct {
	entries []Entry  // listing order
	nextIDs []string // chronological successor per position, "" at the tail
	prevIDs []string // chronological predecessor per position, "" at the head
	index   map[string]int
	headPos int // oldest capture, where playback starts
	tailPos int // newest capture, where playback ends
	rnd     *rand.Rand
}

// NewChain builds the chain for the given entries. The input slice is not
// modified.
func NewChain(entries []Entry) *Chain {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)

	sort.SliceStable(ordered, func(i, j int) bool {
		di := dateOnly(ordered[i].Date)
		dj := dateOnly(ordered[j].Date)
		if !di.Equal(dj) {
			return di.After(dj) // newest day first
		}
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date) // earliest in day first
		}
		return ordered[i].ID < ordered[j].ID
	})

	chain := &Chain{
		entries: ordered,
		nextIDs: make([]string, len(ordered)),
		prevIDs: make([]string, len(ordered)),
		index:   make(map[string]int, len(ordered)),
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for i, entry := range ordered {
		chain.index[entry.ID] = i
	}

	// Navigation runs chronologically forward, independent of the listing
	// order above.
	byTime := make([]int, len(ordered))
	for i := range byTime {
		byTime[i] = i
	}
	sort.SliceStable(byTime, func(i, j int) bool {
		a, b := ordered[byTime[i]], ordered[byTime[j]]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})

	for i, pos := range byTime {
		if i > 0 {
			chain.prevIDs[pos] = ordered[byTime[i-1]].ID
		}
		if i < len(byTime)-1 {
			chain.nextIDs[pos] = ordered[byTime[i+1]].ID
		}
	}
	if len(byTime) > 0 {
		chain.headPos = byTime[0]
		chain.tailPos = byTime[len(byTime)-1]
	}

	return chain
}

// Len returns the number of entries in the chain.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Entries returns the chain in listing order.
func (c *Chain) Entries() []Entry {
	return c.entries
}

// Next resolves the record following currentID.
//
// An empty chain yields nothing. With shuffle set a uniformly random entry is
// returned regardless of currentID and repeat. If currentID is not part of
// the chain the filter changed underneath the client and playback resets to
// the playback head. At the end of the chain repeat wraps back to the head,
// otherwise navigation stops.
func (c *Chain) Next(currentID string, repeat, shuffle bool) (Entry, bool) {
	if len(c.entries) == 0 {
		return Entry{}, false
	}

	if shuffle {
		return c.entries[c.rnd.Intn(len(c.entries))], true
	}

	pos, ok := c.index[currentID]
	if !ok {
		return c.head(), true
	}

	if nextID := c.nextIDs[pos]; nextID != "" {
		return c.entries[c.index[nextID]], true
	}

	if repeat {
		return c.head(), true
	}

	return Entry{}, false
}

// Previous resolves the record preceding currentID. It mirrors Next: an
// unknown currentID resets to the playback head, repeat wraps from the head
// to the playback tail.
func (c *Chain) Previous(currentID string, repeat bool) (Entry, bool) {
	if len(c.entries) == 0 {
		return Entry{}, false
	}

	pos, ok := c.index[currentID]
	if !ok {
		return c.head(), true
	}

	if prevID := c.prevIDs[pos]; prevID != "" {
		return c.entries[c.index[prevID]], true
	}

	if repeat {
		return c.tail(), true
	}

	return Entry{}, false
}

// head is where playback starts: the oldest capture.
func (c *Chain) head() Entry {
	return c.entries[c.headPos]
}

// tail is where playback ends: the newest capture.
func (c *Chain) tail() Entry {
	return c.entries[c.tailPos]
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
