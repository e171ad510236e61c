// Package api exposes the server's plain-HTTP surface alongside the
// websocket upgrade: health, Prometheus metrics, and static descriptor
// JSON for the bot and power catalogues, grounded on the teacher's
// api.Server (ServeMux pattern routing, writeJSON/writeError helpers).
package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bullpen/server/internal/bots"
	"github.com/bullpen/server/internal/events"
	"github.com/bullpen/server/internal/registry"
)

// Server provides the REST surface alongside the websocket hub.
type Server struct {
	reg *registry.Registry
}

// NewServer constructs a Server backed by reg.
func NewServer(reg *registry.Registry) *Server {
	return &Server{reg: reg}
}

// Register attaches every route this server owns to mux, including
// /metrics (Prometheus' own handler, not a custom one).
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/powers", s.handlePowers)
	mux.HandleFunc("GET /api/bots", s.handleBots)
	mux.HandleFunc("GET /api/rooms/{id}", s.handleRoom)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.reg.Count(),
	})
}

type powerView struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Rarity        float64 `json:"rarity"`
	Type          string  `json:"type"`
	IsInstant     bool    `json:"isInstant"`
	DurationTicks int     `json:"durationTicks"`
}

// handlePowers returns the static briefcase catalogue, for a client's
// "what might I get" reference screen.
func (s *Server) handlePowers(w http.ResponseWriter, r *http.Request) {
	out := make([]powerView, len(events.PowerCatalogue))
	for i, d := range events.PowerCatalogue {
		out[i] = powerView{
			ID: d.ID, Title: d.Title, Description: d.Description,
			Rarity: d.Rarity, Type: d.Type, IsInstant: d.IsInstant, DurationTicks: d.DurationTicks,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBots returns the canonical spawnable strategy names, for an
// admin's botSelection picker.
func (s *Server) handleBots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bots.AllStrategyNames)
}

type roomView struct {
	ID           string  `json:"id"`
	ClientCount  int     `json:"clientCount"`
	Started      bool    `json:"started"`
	Ended        bool    `json:"ended"`
	CurrentPrice float64 `json:"currentPrice"`
	TicketName   string  `json:"ticketName"`
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rm, ok := s.reg.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found: "+id)
		return
	}
	snap := rm.Snapshot()
	writeJSON(w, http.StatusOK, roomView{
		ID: snap.ID, ClientCount: snap.ClientCount, Started: snap.Started,
		Ended: snap.Ended, CurrentPrice: snap.CurrentPrice, TicketName: snap.Settings.TicketName,
	})
}
