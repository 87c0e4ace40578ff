// Package paginator runs one reconciliation pass: it walks an auction's pages
// in order and commits them to a listing store as a single unit.
package paginator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pauljones0/kiosk-listings/internal/decoder"
	"github.com/pauljones0/kiosk-listings/internal/fetcher"
	"github.com/pauljones0/kiosk-listings/internal/listing"
	"github.com/pauljones0/kiosk-listings/internal/models"
)

const (
	// DefaultPageSize matches the page size the kiosk requests in production.
	DefaultPageSize = 10
	DefaultMaxPages = 100
)

type Options struct {
	PageSize int
	MaxPages int
}

type Paginator struct {
	fetcher  fetcher.PageFetcher
	store    *listing.Store
	pageSize int
	maxPages int
}

func New(f fetcher.PageFetcher, store *listing.Store, opts Options) *Paginator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return &Paginator{
		fetcher:  f,
		store:    store,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
	}
}

// RunPass fetches pages 1..N and commits them. It returns the number of
// items now visible. On any error the pass is aborted and the visible
// listing is left as it was.
func (p *Paginator) RunPass(ctx context.Context) (int, error) {
	auctionID := p.store.AuctionID()
	pass := p.store.BeginPass()
	committed := false
	defer func() {
		if !committed {
			p.store.AbortPass(pass)
		}
	}()

	for page := 1; ; page++ {
		if page > p.maxPages {
			slog.Warn("Page limit reached, aborting pass", "auction", auctionID, "pass", pass.ID, "maxPages", p.maxPages)
			return 0, fmt.Errorf("auction %s: %w (%d pages)", auctionID, models.ErrTooManyPages, p.maxPages)
		}
		if err := ctx.Err(); err != nil {
			return 0, &models.FetchError{Page: page, Err: err}
		}

		res, err := p.fetcher.FetchPage(ctx, auctionID, page, p.pageSize)
		if err != nil {
			slog.Warn("Page fetch failed, aborting pass", "auction", auctionID, "pass", pass.ID, "page", page, "error", err)
			return 0, &models.FetchError{Page: page, Err: err}
		}

		items, decodeErrs := decoder.DecodePage(res.Records)
		for _, decodeErr := range decodeErrs {
			slog.Warn("Skipping undecodable record", "auction", auctionID, "page", page, "error", decodeErr)
		}
		if len(res.Records) > 0 && len(items) == 0 {
			return 0, &models.PageDecodeError{Page: page, Records: len(res.Records)}
		}

		if err := p.store.AddToPass(pass, items); err != nil {
			return 0, fmt.Errorf("add page %d: %w", page, err)
		}
		slog.Debug("Page added to pass", "auction", auctionID, "pass", pass.ID, "page", page, "records", len(res.Records), "decoded", len(items))

		if res.IsLast(p.pageSize) {
			break
		}
	}

	snap, err := p.store.CommitPass(pass)
	if err != nil {
		return 0, fmt.Errorf("commit pass: %w", err)
	}
	committed = true
	return len(snap.Items), nil
}
