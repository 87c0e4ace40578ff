package models

import "encoding/json"

// RawRecord is one undecoded record as handed over by a fetcher.
type RawRecord = json.RawMessage

// Continuation tells the paginator whether a fetcher knows more pages follow.
type Continuation int

const (
	// MoreUnknown means the fetcher gave no signal. A page shorter than the
	// requested size is then taken as the last one.
	MoreUnknown Continuation = iota
	MoreAvailable
	NoMore
)

func (c Continuation) String() string {
	switch c {
	case MoreAvailable:
		return "more"
	case NoMore:
		return "last"
	default:
		return "unknown"
	}
}

// Page is a single fetched page of a listing.
type Page struct {
	Records []RawRecord
	More    Continuation
}

// IsLast reports whether no page should be requested after this one.
func (p Page) IsLast(pageSize int) bool {
	switch p.More {
	case NoMore:
		return true
	case MoreAvailable:
		return false
	}
	return len(p.Records) < pageSize
}
