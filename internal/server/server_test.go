package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pauljones0/kiosk-listings/internal/listing"
	"github.com/pauljones0/kiosk-listings/internal/models"
	"github.com/pauljones0/kiosk-listings/internal/scheduler"
)

type fakeSyncer struct {
	state scheduler.State
	items int
	err   error
	calls int
}

func (f *fakeSyncer) State() scheduler.State { return f.state }

func (f *fakeSyncer) Trigger(ctx context.Context) (int, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("trigger called without deadline")
	}
	return f.items, f.err
}

func newStore(t *testing.T, items ...models.Item) *listing.Store {
	t.Helper()
	store := listing.New("sale-1")
	p := store.BeginPass()
	if err := store.AddToPass(p, items); err != nil {
		t.Fatalf("AddToPass: %v", err)
	}
	if _, err := store.CommitPass(p); err != nil {
		t.Fatalf("CommitPass: %v", err)
	}
	return store
}

func item(id, title string, bids int) models.Item {
	return models.Item{ID: id, Artwork: models.Artwork{ID: "art-" + id, Title: title}, BidCount: bids}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	srv := New(newStore(t, item("1", "A", 0)), &fakeSyncer{state: scheduler.Running})

	rec := do(t, srv.Handler(), http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := healthResponse{Status: "ok", State: "running", Version: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("health mismatch (-want +got):\n%s", diff)
	}
}

func TestListingHandler_Sorts(t *testing.T) {
	store := newStore(t, item("1", "Banana", 3), item("2", "apple", 7), item("3", "Cherry", 1))
	srv := New(store, &fakeSyncer{})

	tests := []struct {
		sort string
		want []string
	}{
		{"", []string{"1", "2", "3"}},
		{"most-bids", []string{"2", "1", "3"}},
		{"LEAST-BIDS", []string{"3", "1", "2"}},
		{"alphabetical", []string{"2", "1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, "/listing?sort="+tt.sort)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
			}
			var got listingResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.AuctionID != "sale-1" || got.Version != 1 {
				t.Errorf("got auction %q version %d", got.AuctionID, got.Version)
			}
			var ids []string
			for _, it := range got.Items {
				ids = append(ids, it.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListingHandler_EmptyListingHasItemsArray(t *testing.T) {
	srv := New(listing.New("sale-1"), &fakeSyncer{})

	rec := do(t, srv.Handler(), http.MethodGet, "/listing")
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw["items"]) != "[]" {
		t.Errorf("items = %s, want []", raw["items"])
	}
}

func TestListingHandler_UnknownSort(t *testing.T) {
	srv := New(newStore(t), &fakeSyncer{})

	rec := do(t, srv.Handler(), http.MethodGet, "/listing?sort=random")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestItemHandler(t *testing.T) {
	srv := New(newStore(t, item("lot-7", "Vase", 2)), &fakeSyncer{})

	rec := do(t, srv.Handler(), http.MethodGet, "/listing/lot-7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.Item
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Artwork.Title != "Vase" {
		t.Errorf("title = %q, want Vase", got.Artwork.Title)
	}

	if rec := do(t, srv.Handler(), http.MethodGet, "/listing/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d, want 404", rec.Code)
	}
}

func TestSyncHandler(t *testing.T) {
	tests := []struct {
		name       string
		syncer     *fakeSyncer
		wantStatus int
	}{
		{"success", &fakeSyncer{items: 4}, http.StatusOK},
		{"pass failed", &fakeSyncer{err: errors.New("upstream 503")}, http.StatusBadGateway},
		{"stopped", &fakeSyncer{err: scheduler.ErrStopped}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(newStore(t), tt.syncer)
			rec := do(t, srv.Handler(), http.MethodPost, "/sync")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.syncer.calls != 1 {
				t.Errorf("Trigger calls = %d, want 1", tt.syncer.calls)
			}
		})
	}
}

func TestSyncHandler_RejectsGet(t *testing.T) {
	syncer := &fakeSyncer{}
	srv := New(newStore(t), syncer)

	rec := do(t, srv.Handler(), http.MethodGet, "/sync")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if syncer.calls != 0 {
		t.Errorf("Trigger should not run on GET")
	}
}

func TestSyncHandler_ReturnsItemCount(t *testing.T) {
	srv := New(newStore(t), &fakeSyncer{items: 12})

	rec := do(t, srv.Handler(), http.MethodPost, "/sync")
	var got syncResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Items != 12 {
		t.Errorf("items = %d, want 12", got.Items)
	}
}
