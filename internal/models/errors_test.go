package models

import (
	"errors"
	"io"
	"testing"
)

func TestFetchError_MatchesSentinelAndCause(t *testing.T) {
	err := error(&FetchError{Page: 3, Err: io.ErrUnexpectedEOF})

	if !errors.Is(err, ErrFetchFailed) {
		t.Error("FetchError should match ErrFetchFailed")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("FetchError should unwrap to its cause")
	}
	if errors.Is(err, ErrDecodeFailed) {
		t.Error("FetchError should not match ErrDecodeFailed")
	}
	if got, want := err.Error(), "fetch page 3: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPageDecodeError_MatchesSentinel(t *testing.T) {
	err := error(&PageDecodeError{Page: 2, Records: 4})
	if !errors.Is(err, ErrDecodeFailed) {
		t.Error("PageDecodeError should match ErrDecodeFailed")
	}
	var pe *PageDecodeError
	if !errors.As(err, &pe) || pe.Page != 2 {
		t.Errorf("errors.As did not recover page number, got %+v", pe)
	}
}

func TestPage_IsLast(t *testing.T) {
	two := []RawRecord{RawRecord(`{}`), RawRecord(`{}`)}

	tests := []struct {
		name     string
		page     Page
		pageSize int
		want     bool
	}{
		{"full page, no signal", Page{Records: two}, 2, false},
		{"short page, no signal", Page{Records: two[:1]}, 2, true},
		{"empty page, no signal", Page{}, 2, true},
		{"short page, explicit more", Page{Records: two[:1], More: MoreAvailable}, 2, false},
		{"full page, explicit last", Page{Records: two, More: NoMore}, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.IsLast(tt.pageSize); got != tt.want {
				t.Errorf("IsLast(%d) = %v, want %v", tt.pageSize, got, tt.want)
			}
		})
	}
}

func TestItem_BidAmountCents(t *testing.T) {
	if got := (Item{OpeningBidCents: 500}).BidAmountCents(); got != 500 {
		t.Errorf("no bids: got %d, want opening bid 500", got)
	}
	if got := (Item{OpeningBidCents: 500, HighestBidCents: 900}).BidAmountCents(); got != 900 {
		t.Errorf("with bids: got %d, want highest bid 900", got)
	}
}
