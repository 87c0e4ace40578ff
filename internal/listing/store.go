// Package listing owns the visible, ordered collection of items for one
// auction and the pass API that replaces it.
package listing

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pauljones0/kiosk-listings/internal/models"
)

var (
	ErrPassClosed  = errors.New("pass already committed or aborted")
	ErrForeignPass = errors.New("pass belongs to a different store")
)

// Snapshot is a point-in-time copy of a listing. Items is owned by the caller.
type Snapshot struct {
	AuctionID   string        `json:"auctionId"`
	Version     uint64        `json:"version"`
	CommittedAt time.Time     `json:"committedAt"`
	Items       []models.Item `json:"items"`
}

// Pass accumulates the items of one reconciliation attempt. It is used by a
// single goroutine and must end in exactly one CommitPass or AbortPass.
type Pass struct {
	ID      uuid.UUID
	store   *Store
	order   []string
	byID    map[string]models.Item
	started time.Time
	closed  bool
}

// Store is the only writer of the visible listing.
type Store struct {
	auctionID string

	mu          sync.RWMutex
	items       []models.Item
	version     uint64
	committedAt time.Time

	subMu     sync.Mutex
	subs      map[int]chan Snapshot
	nextID    int
	published uint64

	now func() time.Time
}

func New(auctionID string) *Store {
	return &Store{
		auctionID: auctionID,
		subs:      make(map[int]chan Snapshot),
		now:       time.Now,
	}
}

func (s *Store) AuctionID() string { return s.auctionID }

// BeginPass starts a new pass. The visible listing is not touched until the
// pass is committed.
func (s *Store) BeginPass() *Pass {
	return &Pass{
		ID:      uuid.New(),
		store:   s,
		byID:    make(map[string]models.Item),
		started: s.now(),
	}
}

// AddToPass appends items to the pass in arrival order. An id already seen in
// this pass keeps its position but takes the later item's fields.
func (s *Store) AddToPass(p *Pass, items []models.Item) error {
	if err := s.checkOpen(p); err != nil {
		return err
	}
	for _, it := range items {
		if _, seen := p.byID[it.ID]; !seen {
			p.order = append(p.order, it.ID)
		}
		p.byID[it.ID] = it
	}
	return nil
}

// CommitPass atomically replaces the visible listing with the pass contents.
// Items missing from the pass are dropped.
func (s *Store) CommitPass(p *Pass) (Snapshot, error) {
	if err := s.checkOpen(p); err != nil {
		return Snapshot{}, err
	}
	p.closed = true

	next := make([]models.Item, 0, len(p.order))
	for _, id := range p.order {
		next = append(next, p.byID[id])
	}

	s.mu.Lock()
	dropped := countDropped(s.items, p.byID)
	s.items = next
	s.version++
	s.committedAt = s.now()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	slog.Info("Pass committed",
		"auction", s.auctionID,
		"pass", p.ID,
		"items", len(next),
		"dropped", dropped,
		"version", snap.Version,
		"took", s.now().Sub(p.started),
	)
	s.publish(snap)
	return snap, nil
}

// AbortPass discards the pass. Aborting a closed pass does nothing.
func (s *Store) AbortPass(p *Pass) {
	if p == nil || p.store != s || p.closed {
		return
	}
	p.closed = true
	p.byID = nil
	p.order = nil
	slog.Debug("Pass aborted", "auction", s.auctionID, "pass", p.ID)
}

// Snapshot returns the current visible listing. Safe for concurrent use,
// including while a pass is in flight.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) Get(id string) (models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.Item{}, false
}

// Subscribe returns a channel that receives the snapshot of every commit.
// The channel holds one value; a subscriber that falls behind sees only the
// latest snapshot. Call the returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if snap.Version <= s.published {
		return
	}
	s.published = snap.Version
	for _, ch := range s.subs {
		// Drop a stale value so the newest one always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		AuctionID:   s.auctionID,
		Version:     s.version,
		CommittedAt: s.committedAt,
		Items:       append([]models.Item{}, s.items...),
	}
}

func (s *Store) checkOpen(p *Pass) error {
	if p == nil || p.store != s {
		return ErrForeignPass
	}
	if p.closed {
		return ErrPassClosed
	}
	return nil
}

func countDropped(prev []models.Item, next map[string]models.Item) int {
	n := 0
	for _, it := range prev {
		if _, ok := next[it.ID]; !ok {
			n++
		}
	}
	return n
}
