package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/pauljones0/kiosk-listings/internal/listing"
	"github.com/pauljones0/kiosk-listings/internal/util"
)

// ListingSaver persists committed snapshots. *Client is a ListingSaver.
type ListingSaver interface {
	SaveListing(ctx context.Context, snap listing.Snapshot) error
}

const mirrorRetries = 3

// MirrorUpdates saves every snapshot received on updates until the channel
// closes or ctx is done. A snapshot that still fails after retries is logged
// and skipped; the next commit carries the full listing anyway.
func MirrorUpdates(ctx context.Context, updates <-chan listing.Snapshot, saver ListingSaver, backoff time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			err := util.RetryWithBackoff(ctx, mirrorRetries, backoff, func(attempt int) error {
				err := saver.SaveListing(ctx, snap)
				if err != nil && !retryable(err) {
					return util.Permanent(err)
				}
				return err
			})
			if err != nil {
				slog.Error("Failed to mirror listing", "auction", snap.AuctionID, "version", snap.Version, "error", err)
			}
		}
	}
}
