package models

import "time"

// Artwork is the static metadata attached to a sale artwork. It is set when
// the item is first observed and is not expected to change during a session.
type Artwork struct {
	ID    string `json:"id" firestore:"id"`
	Title string `json:"title" firestore:"title"`
	Date  string `json:"date" firestore:"date"`
	Blurb string `json:"blurb" firestore:"blurb"`
	Price string `json:"price" firestore:"price"`
}

// Item is one lot up for bid in an auction.
type Item struct {
	ID              string  `json:"id" firestore:"id" validate:"required"`
	Artwork         Artwork `json:"artwork" firestore:"artwork"`
	LotLabel        string  `json:"lotLabel,omitempty" firestore:"lotLabel,omitempty"`
	PriceCents      int64   `json:"priceCents" firestore:"priceCents" validate:"gte=0"`
	BidCount        int     `json:"bidCount" firestore:"bidCount" validate:"gte=0"`
	HighestBidCents int64   `json:"highestBidCents" firestore:"highestBidCents" validate:"gte=0"`
	OpeningBidCents int64   `json:"openingBidCents" firestore:"openingBidCents" validate:"gte=0"`
}

// BidAmountCents is the amount a bidder would currently have to beat: the
// highest bid when one exists, the opening bid otherwise.
func (i Item) BidAmountCents() int64 {
	if i.HighestBidCents > 0 {
		return i.HighestBidCents
	}
	return i.OpeningBidCents
}

// ListingSummary is the per-auction document stored next to mirrored items.
type ListingSummary struct {
	AuctionID   string    `firestore:"auctionID"`
	Version     uint64    `firestore:"version"`
	ItemCount   int       `firestore:"itemCount"`
	CommittedAt time.Time `firestore:"committedAt"`
}
