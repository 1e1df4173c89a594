package monknet

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type health struct {
	Role   string  `json:"role"`
	State  string  `json:"state"`
	Uptime float64 `json:"uptime"`
}

// StatusHandler returns the HTTP API exposing the state
// and metrics of s
func StatusHandler(s *Session) http.Handler {
	started := time.Now()

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, health{
			Role:   s.Role().String(),
			State:  s.State().String(),
			Uptime: math.Floor(time.Since(started).Seconds()),
		})
	})

	r.Get("/peers", func(w http.ResponseWriter, req *http.Request) {
		peers := s.Peers()
		if peers == nil {
			peers = []PeerInfo{}
		}

		writeJSON(w, peers)
	})

	r.Get("/peers/{addr}", func(w http.ResponseWriter, req *http.Request) {
		p, ok := s.Peer(chi.URLParam(req, "addr"))
		if !ok {
			http.Error(w, "unknown peer", http.StatusNotFound)
			return
		}

		writeJSON(w, p)
	})

	r.Get("/unacked", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]int{"unacked": s.Unacked()})
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.Registry(), promhttp.HandlerOpts{}))

	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
