// Package decoder turns raw sale-artwork records into models.Item values.
package decoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pauljones0/kiosk-listings/internal/models"
	"github.com/pauljones0/kiosk-listings/internal/util"
	"github.com/pauljones0/kiosk-listings/internal/validator"
)

// wireRecord mirrors the sale_artworks JSON served by the auction API.
// Every field except id is optional.
type wireRecord struct {
	ID      *string `json:"id"`
	Artwork struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date"`
		Blurb string `json:"blurb"`
		Price string `json:"price"`
	} `json:"artwork"`
	BidderPositionsCount int    `json:"bidder_positions_count"`
	OpeningBidCents      int64  `json:"opening_bid_cents"`
	LotLabel             string `json:"lot_label"`
	HighestBid           *struct {
		AmountCents int64 `json:"amount_cents"`
	} `json:"highest_bid"`
}

// Decode parses one raw record. A record without an id fails with an error
// matching models.ErrMissingIdentity.
func Decode(raw models.RawRecord) (models.Item, error) {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.Item{}, &models.DecodeError{Err: err}
	}
	if w.ID == nil || strings.TrimSpace(*w.ID) == "" {
		return models.Item{}, &models.DecodeError{Err: models.ErrMissingIdentity}
	}

	item := models.Item{
		ID: *w.ID,
		Artwork: models.Artwork{
			ID:    w.Artwork.ID,
			Title: strings.TrimSpace(w.Artwork.Title),
			Date:  w.Artwork.Date,
			Blurb: plainText(w.Artwork.Blurb),
			Price: w.Artwork.Price,
		},
		LotLabel:        w.LotLabel,
		PriceCents:      util.ParseCents(w.Artwork.Price),
		BidCount:        w.BidderPositionsCount,
		OpeningBidCents: w.OpeningBidCents,
	}
	if w.HighestBid != nil {
		item.HighestBidCents = w.HighestBid.AmountCents
	}

	if err := validator.Default().ValidateStruct(item); err != nil {
		return models.Item{}, &models.DecodeError{Err: fmt.Errorf("%w: id %s: %w", models.ErrInvalidRecord, item.ID, err)}
	}
	return item, nil
}

// DecodePage decodes every record of a page. Records that fail are left out
// of items; their errors are returned in errs, in record order.
func DecodePage(records []models.RawRecord) (items []models.Item, errs []error) {
	items = make([]models.Item, 0, len(records))
	for i, raw := range records {
		item, err := Decode(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	return items, errs
}

// IsMissingIdentity reports whether err came from a record without an id.
func IsMissingIdentity(err error) bool {
	return errors.Is(err, models.ErrMissingIdentity)
}

// plainText strips markup from blurbs that arrive as HTML fragments.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
