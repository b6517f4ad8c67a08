// Package realtime carries "bookings or blocked dates changed" events keyed
// by billboard so that availability views can re-evaluate their snapshot.
package realtime

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Change kinds published on a billboard channel.
const (
	KindBookings     = "bookings"
	KindBlockedDates = "blocked_dates"
	KindBillboard    = "billboard"
)

// Event tells subscribers that a billboard's availability inputs changed.
// It carries no snapshot; subscribers reload from the store.
type Event struct {
	BillboardID uint64    `json:"billboard_id"`
	Kind        string    `json:"kind"`
	BookingID   uint64    `json:"booking_id,omitempty"`
	At          time.Time `json:"at"`
}

// Feed is a push channel of change events. Subscribe returns a channel and
// a cancel handle; the channel is closed once cancel is called or ctx ends.
type Feed interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, billboardID uint64) (<-chan Event, func(), error)
}

// Channel returns the pub/sub channel name for a billboard.
func Channel(prefix string, billboardID uint64) string {
	if prefix == "" {
		prefix = "billboard"
	}
	return prefix + ":" + strconv.FormatUint(billboardID, 10) + ":availability"
}

// MemoryFeed is an in-process Feed used when Redis is not configured. It
// only reaches subscribers of the same process.
type MemoryFeed struct {
	mu   sync.Mutex
	subs map[uint64]map[chan Event]struct{}
}

// NewMemoryFeed returns an empty in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[uint64]map[chan Event]struct{})}
}

// Publish delivers ev to current subscribers without blocking; a subscriber
// whose buffer is full misses the event and picks up the next one.
func (f *MemoryFeed) Publish(_ context.Context, ev Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[ev.BillboardID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a buffered listener for one billboard.
func (f *MemoryFeed) Subscribe(ctx context.Context, billboardID uint64) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)
	f.mu.Lock()
	if f.subs[billboardID] == nil {
		f.subs[billboardID] = make(map[chan Event]struct{})
	}
	f.subs[billboardID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs[billboardID], ch)
			if len(f.subs[billboardID]) == 0 {
				delete(f.subs, billboardID)
			}
			f.mu.Unlock()
			close(ch)
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel, nil
}
