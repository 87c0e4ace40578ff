// Package fetchertest provides a scriptable fetcher.PageFetcher for tests.
package fetchertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pauljones0/kiosk-listings/internal/models"
)

// RespondFunc produces the response for one page request.
type RespondFunc func(auctionID string, page, pageSize int) (models.Page, error)

// Call records one FetchPage invocation.
type Call struct {
	AuctionID string
	Page      int
	PageSize  int
}

// Stub is a PageFetcher whose pages come from Respond. It is safe for
// concurrent use.
type Stub struct {
	Respond RespondFunc
	// Delay is slept before every response; the sleep ends early when the
	// request context is cancelled.
	Delay time.Duration

	mu       sync.Mutex
	calls    []Call
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *Stub) FetchPage(ctx context.Context, auctionID string, page, pageSize int) (models.Page, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{AuctionID: auctionID, Page: page, PageSize: pageSize})
	respond := s.Respond
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return models.Page{}, ctx.Err()
		case <-time.After(s.Delay):
		}
	}
	if respond == nil {
		return models.Page{}, nil
	}
	return respond(auctionID, page, pageSize)
}

// SetRespond swaps the response generator while fetches may be running.
func (s *Stub) SetRespond(fn RespondFunc) {
	s.mu.Lock()
	s.Respond = fn
	s.mu.Unlock()
}

// Calls returns the requests seen so far, in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// MaxConcurrent is the highest number of overlapping FetchPage calls seen.
func (s *Stub) MaxConcurrent() int {
	return int(s.maxSeen.Load())
}

// Pages serves fixed pages keyed by page number. Pages past the end are empty.
func Pages(pages ...[]models.RawRecord) RespondFunc {
	return func(_ string, page, _ int) (models.Page, error) {
		if page < 1 || page > len(pages) {
			return models.Page{}, nil
		}
		return models.Page{Records: pages[page-1]}, nil
	}
}

// FailOn wraps next so that the given page returns err.
func FailOn(page int, err error, next RespondFunc) RespondFunc {
	return func(auctionID string, p, pageSize int) (models.Page, error) {
		if p == page {
			return models.Page{}, err
		}
		return next(auctionID, p, pageSize)
	}
}

// Listing mimics the kiosk's stubbed sale_artworks endpoint. Page 1 has two
// records and page 2 one, unless Count overrides the per-page count. Every
// record carries the current BidCount. Both fields can be changed between
// passes to simulate upstream activity.
type Listing struct {
	BidCount atomic.Int64
	// Count, when positive, is the number of records on every page.
	Count atomic.Int64
}

func NewListing(bidCount int) *Listing {
	l := &Listing{}
	l.BidCount.Store(int64(bidCount))
	return l
}

// Respond is the RespondFunc for this listing.
func (l *Listing) Respond(_ string, page, _ int) (models.Page, error) {
	count := 1
	if page == 1 {
		count = 2
	}
	if c := l.Count.Load(); c > 0 {
		count = int(c)
	}

	records := make([]models.RawRecord, 0, count)
	for i := 1; i <= count; i++ {
		raw, err := json.Marshal(map[string]any{
			"id": fmt.Sprint(count + i*10),
			"artwork": map[string]any{
				"id":    "artwork-id",
				"title": "artwork title",
				"date":  "late 2014",
				"blurb": "Some description",
				"price": "1200",
			},
			"bidder_positions_count": l.BidCount.Load(),
		})
		if err != nil {
			return models.Page{}, err
		}
		records = append(records, raw)
	}
	return models.Page{Records: records}, nil
}

// Record builds a raw record with the given id and bid count.
func Record(id string, bidCount int) models.RawRecord {
	raw, _ := json.Marshal(map[string]any{"id": id, "bidder_positions_count": bidCount})
	return raw
}
