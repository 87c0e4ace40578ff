package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/kiosk-listings/internal/listing"
	"github.com/pauljones0/kiosk-listings/internal/models"
)

const (
	auctionsCollection = "auctions"
	itemsCollection    = "items"
)

// itemDoc is the stored form of one mirrored item.
type itemDoc struct {
	Item       models.Item `firestore:"item"`
	Position   int         `firestore:"position"`
	Version    uint64      `firestore:"version"`
	MirroredAt time.Time   `firestore:"mirroredAt"`
}

type Client struct {
	client *firestore.Client
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SaveListing mirrors a committed snapshot under auctions/{auction}/items.
// Documents for items no longer listed are deleted, and the auction document
// gets a summary of the snapshot.
func (c *Client) SaveListing(ctx context.Context, snap listing.Snapshot) error {
	auctionRef := c.client.Collection(auctionsCollection).Doc(DocID(snap.AuctionID))
	itemsRef := auctionRef.Collection(itemsCollection)

	stale, err := c.existingDocIDs(ctx, itemsRef)
	if err != nil {
		return err
	}

	bulkWriter := c.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	queue := func(job *firestore.BulkWriterJob, err error) error {
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	}

	now := time.Now()
	for i, it := range snap.Items {
		id := DocID(it.ID)
		delete(stale, id)
		doc := itemDoc{Item: it, Position: i, Version: snap.Version, MirroredAt: now}
		if err := queue(bulkWriter.Set(itemsRef.Doc(id), doc)); err != nil {
			bulkWriter.End()
			return fmt.Errorf("failed to queue item %s: %w", it.ID, err)
		}
	}
	for id := range stale {
		if err := queue(bulkWriter.Delete(itemsRef.Doc(id))); err != nil {
			bulkWriter.End()
			return fmt.Errorf("failed to queue delete of %s: %w", id, err)
		}
	}
	summary := models.ListingSummary{
		AuctionID:   snap.AuctionID,
		Version:     snap.Version,
		ItemCount:   len(snap.Items),
		CommittedAt: snap.CommittedAt,
	}
	if err := queue(bulkWriter.Set(auctionRef, summary)); err != nil {
		bulkWriter.End()
		return fmt.Errorf("failed to queue listing summary: %w", err)
	}

	bulkWriter.End()

	failed := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("%d of %d mirror writes failed: %w", failed, len(jobs), firstErr)
	}

	slog.Info("Mirrored listing to Firestore",
		"auction", snap.AuctionID,
		"version", snap.Version,
		"items", len(snap.Items),
		"deleted", len(stale),
	)
	return nil
}

func (c *Client) existingDocIDs(ctx context.Context, itemsRef *firestore.CollectionRef) (map[string]bool, error) {
	iter := itemsRef.Select().Documents(ctx)
	defer iter.Stop()

	ids := make(map[string]bool)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list mirrored items: %w", err)
		}
		ids[doc.Ref.ID] = true
	}
	return ids, nil
}

// DocID maps an item or auction id to a valid Firestore document id.
// Slashes are escaped, and ids Firestore reserves get a "~" prefix.
func DocID(id string) string {
	escaped := url.PathEscape(id)
	if escaped == "" || escaped == "." || escaped == ".." ||
		(len(escaped) >= 4 && strings.HasPrefix(escaped, "__") && strings.HasSuffix(escaped, "__")) {
		return "~" + escaped
	}
	return escaped
}

// retryable reports whether a Firestore error is transient.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.Aborted, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal:
		return true
	}
	return false
}
