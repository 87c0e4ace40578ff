package listing

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pauljones0/kiosk-listings/internal/models"
)

// SortOrder is one of the orders the kiosk's list view can switch between.
type SortOrder string

const (
	SortGrid         SortOrder = "grid"
	SortLeastBids    SortOrder = "least-bids"
	SortMostBids     SortOrder = "most-bids"
	SortHighestBid   SortOrder = "highest-bid"
	SortLowestBid    SortOrder = "lowest-bid"
	SortAlphabetical SortOrder = "alphabetical"
)

var sortOrders = []SortOrder{SortGrid, SortLeastBids, SortMostBids, SortHighestBid, SortLowestBid, SortAlphabetical}

// ParseSortOrder accepts the order names above; an empty string means grid.
func ParseSortOrder(s string) (SortOrder, error) {
	if s == "" {
		return SortGrid, nil
	}
	o := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(sortOrders, o) {
		return "", fmt.Errorf("unknown sort order %q", s)
	}
	return o, nil
}

// Sorted returns a sorted copy of items. Grid keeps fetch order. Ties in any
// order keep fetch order too.
func Sorted(items []models.Item, order SortOrder) []models.Item {
	out := slices.Clone(items)
	fn := comparator(order)
	if fn == nil {
		return out
	}
	slices.SortStableFunc(out, fn)
	return out
}

func comparator(order SortOrder) func(a, b models.Item) int {
	switch order {
	case SortLeastBids:
		return func(a, b models.Item) int { return cmp.Compare(a.BidCount, b.BidCount) }
	case SortMostBids:
		return func(a, b models.Item) int { return cmp.Compare(b.BidCount, a.BidCount) }
	case SortHighestBid:
		return func(a, b models.Item) int { return cmp.Compare(b.BidAmountCents(), a.BidAmountCents()) }
	case SortLowestBid:
		return func(a, b models.Item) int { return cmp.Compare(a.BidAmountCents(), b.BidAmountCents()) }
	case SortAlphabetical:
		return func(a, b models.Item) int { return strings.Compare(alphabeticalKey(a), alphabeticalKey(b)) }
	}
	return nil
}

func alphabeticalKey(it models.Item) string {
	return strings.ToLower(it.Artwork.Title)
}
