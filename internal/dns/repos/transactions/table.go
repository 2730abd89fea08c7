// Package transactions provides the correlation table between forwarded
// queries and upstream replies. Each forwarded query is assigned a fresh
// transaction ID; the table maps that ID back to the original client ID and
// source address so the reply loop can demultiplex answers arriving on the
// shared upstream channel.
package transactions

import (
	"context"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/haukened/rr-relay/internal/dns/common/clock"
	"github.com/haukened/rr-relay/internal/dns/common/log"
)

// Entry is one outstanding forwarded query.
type Entry struct {
	ClientID   uint16
	ClientAddr *net.UDPAddr
	CreatedAt  time.Time
}

// Table is a mutex-guarded map from upstream-facing ID to the originating
// client. It is the only mutable state shared between the forward and reply
// loops; Insert and TakeByID are mutually exclusive.
type Table struct {
	mu      sync.Mutex
	entries map[uint16]Entry
	clock   clock.Clock
	logger  log.Logger
	maxAge  time.Duration
	newID   func() uint16
}

// Options configures a Table.
type Options struct {
	// MaxAge bounds how long an unanswered entry may live before the reaper
	// removes it. Zero selects a 5 second default.
	MaxAge time.Duration
	Clock  clock.Clock
	Logger log.Logger
	// NewID overrides ID generation, for tests only.
	NewID func() uint16
}

// New constructs an empty Table.
func New(opts Options) *Table {
	if opts.MaxAge <= 0 {
		opts.MaxAge = 5 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.NewID == nil {
		opts.NewID = func() uint16 { return uint16(rand.Uint32()) }
	}
	return &Table{
		entries: make(map[uint16]Entry),
		clock:   opts.Clock,
		logger:  opts.Logger,
		maxAge:  opts.MaxAge,
		newID:   opts.NewID,
	}
}

// Insert mints a fresh 16-bit ID that collides with no outstanding entry,
// records the originating client behind it, and returns it. The ID space is
// 65536 wide and the in-flight population is small, so collision retries are
// negligible in practice.
func (t *Table) Insert(clientID uint16, clientAddr *net.UDPAddr) uint16 {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.newID()
	for {
		if _, taken := t.entries[id]; !taken {
			break
		}
		id = t.newID()
	}
	t.entries[id] = Entry{
		ClientID:   clientID,
		ClientAddr: clientAddr,
		CreatedAt:  t.clock.Now(),
	}
	return id
}

// TakeByID atomically looks up and removes the entry for an upstream reply ID.
// A false return means the reply is stale, duplicated, or was never ours; the
// caller must drop the datagram.
func (t *Table) TakeByID(id uint16) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	delete(t.entries, id)
	return e, true
}

// Len returns the number of outstanding entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reap removes entries older than the configured maximum age and returns how
// many were dropped. Without it, upstream packet loss would grow the table
// without bound over the lifetime of the process.
func (t *Table) Reap(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int
	for id, e := range t.entries {
		if now.Sub(e.CreatedAt) > t.maxAge {
			delete(t.entries, id)
			n++
		}
	}
	return n
}

// StartReaper runs Reap on the given interval until ctx is cancelled.
func (t *Table) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := t.Reap(t.clock.Now()); n > 0 {
					t.logger.Debug(map[string]any{
						"reaped":      n,
						"outstanding": t.Len(),
					}, "Reaped expired transactions")
				}
			}
		}
	}()
}
