package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"vgcbench/game"
)

type decideRequest struct {
	Battles []json.RawMessage `json:"battles"`
}

type decideResponse struct {
	Decisions []decisionView `json:"decisions"`
}

type decisionView struct {
	Battle   string `json:"battle"`
	Command  string `json:"command"`
	Planned  bool   `json:"planned"`
	Fallback string `json:"fallback,omitempty"`
	Visits   int    `json:"visits,omitempty"`
}

// Server exposes a pool over HTTP. Requests are planned one batch at a
// time since the pool's engines are not shared.
type Server struct {
	mu   sync.Mutex
	pool *Pool
}

func NewServer(pool *Pool) *Server {
	return &Server{pool: pool}
}

func (s *Server) Handler() http.Handler {
	// Create a local mux rather than using the global DefaultServeMux
	mux := http.NewServeMux()
	mux.HandleFunc("POST /decide", s.handleDecide)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	stop := context.AfterFunc(ctx, func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	})
	defer stop()

	log.Info().Msgf("planner server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var payload decideRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	battles := make([]*game.Battle, len(payload.Battles))
	for i, raw := range payload.Battles {
		b, err := game.ParseBattle(raw)
		if err != nil {
			http.Error(w, "bad battle: "+err.Error(), http.StatusBadRequest)
			return
		}
		battles[i] = b
	}

	s.mu.Lock()
	decisions, err := s.pool.Decide(r.Context(), battles)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, "planning: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	resp := decideResponse{Decisions: make([]decisionView, len(decisions))}
	for i, d := range decisions {
		resp.Decisions[i] = decisionView{
			Battle:   d.Metric.Battle,
			Command:  d.Command,
			Planned:  d.Metric.Planned,
			Fallback: d.Metric.Fallback,
			Visits:   d.Metric.RootVisits,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Warn().Err(err).Msg("failed to encode decisions")
	}
}
