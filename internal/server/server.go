// Package server exposes the kiosk listing over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pauljones0/kiosk-listings/internal/listing"
	"github.com/pauljones0/kiosk-listings/internal/models"
	"github.com/pauljones0/kiosk-listings/internal/scheduler"
)

const syncTimeout = 2 * time.Minute

// Listing is the read side of the listing store. *listing.Store satisfies it.
type Listing interface {
	Snapshot() listing.Snapshot
	Get(id string) (models.Item, bool)
}

// Syncer is the part of the scheduler the server drives.
type Syncer interface {
	State() scheduler.State
	Trigger(ctx context.Context) (int, error)
}

type Server struct {
	listing Listing
	syncer  Syncer
}

func New(l Listing, s Syncer) *Server {
	return &Server{listing: l, syncer: s}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HealthHandler)
	mux.HandleFunc("GET /listing", s.ListingHandler)
	mux.HandleFunc("GET /listing/{id}", s.ItemHandler)
	mux.HandleFunc("POST /sync", s.SyncHandler)
	return mux
}

type healthResponse struct {
	Status  string `json:"status"`
	State   string `json:"state"`
	Version uint64 `json:"version"`
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		State:   s.syncer.State().String(),
		Version: s.listing.Snapshot().Version,
	})
}

type listingResponse struct {
	AuctionID   string        `json:"auctionId"`
	Version     uint64        `json:"version"`
	CommittedAt time.Time     `json:"committedAt"`
	Sort        string        `json:"sort"`
	Items       []models.Item `json:"items"`
}

func (s *Server) ListingHandler(w http.ResponseWriter, r *http.Request) {
	order, err := listing.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	snap := s.listing.Snapshot()
	writeJSON(w, http.StatusOK, listingResponse{
		AuctionID:   snap.AuctionID,
		Version:     snap.Version,
		CommittedAt: snap.CommittedAt,
		Sort:        string(order),
		Items:       listing.Sorted(snap.Items, order),
	})
}

func (s *Server) ItemHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, ok := s.listing.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("item not found"))
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type syncResponse struct {
	Items int `json:"items"`
}

// SyncHandler runs a pass on the request goroutine and reports its outcome.
func (s *Server) SyncHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), syncTimeout)
	defer cancel()

	n, err := s.syncer.Trigger(ctx)
	switch {
	case errors.Is(err, scheduler.ErrStopped):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		slog.Error("Manual sync failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, syncResponse{Items: n})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
