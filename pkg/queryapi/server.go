// Package queryapi is the read-only HTTP surface named in §6: health,
// alerts, wallets, token risk, ops health/metrics, and the tuning
// store's get/put/preview. It never writes core state beyond the
// tuning store's put, following the teacher's
// pkg/dashboard/server.go mux+cors+writeJSON shape rebuilt on
// gorilla/mux and rs/cors instead of a bare http.ServeMux.
package queryapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/titan-signal/titan/pkg/store"
	"github.com/titan-signal/titan/pkg/streambus"
)

// Workers names every worker whose heartbeat and consumer-group
// pending count ops/health reports.
var Workers = []string{"listener", "decoder", "risk", "profiler", "merit", "alerts", "outcomes", "autopilot"}

// heartbeatGroups maps a worker to the (stream, group) pairs whose
// pending count contributes to its ops/health entry. Profiler, Merit,
// Alerts, Outcomes, and Autopilot are poll-cycle workers with no
// consumer group of their own, so they report no pending count —
// only their heartbeat freshness.
var heartbeatGroups = map[string][]consumerGroup{
	"decoder": {{streambus.StreamRawEvents, "decoders"}},
	"risk":    {{streambus.StreamDecodedTrades, "risk-enqueue"}, {streambus.StreamRiskJobs, "risk-score"}},
}

type consumerGroup struct {
	stream string
	group  string
}

type Server struct {
	store *store.Store
	bus   *streambus.Bus
	log   zerolog.Logger
}

func NewServer(st *store.Store, bus *streambus.Bus, log zerolog.Logger) *Server {
	return &Server{store: st, bus: bus, log: log.With().Str("component", "queryapi").Logger()}
}

// Handler builds the mux-routed, CORS-wrapped handler. Callers own the
// listener (http.Server{Addr: ..., Handler: s.Handler()}).
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/alerts", s.handleListAlerts).Methods(http.MethodGet)
	r.HandleFunc("/alerts/{id:[0-9]+}", s.handleGetAlert).Methods(http.MethodGet)
	r.HandleFunc("/wallets", s.handleListWallets).Methods(http.MethodGet)
	r.HandleFunc("/token-risk/{chain}/{address}", s.handleTokenRisk).Methods(http.MethodGet)
	r.HandleFunc("/ops/health", s.handleOpsHealth).Methods(http.MethodGet)
	r.HandleFunc("/ops/metrics", s.handleOpsMetrics).Methods(http.MethodGet)
	r.HandleFunc("/settings/{key}", s.handleGetSetting).Methods(http.MethodGet)
	r.HandleFunc("/settings/{key}", s.handlePutSetting).Methods(http.MethodPut)
	r.HandleFunc("/settings/{key}/preview", s.handlePreviewSetting).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
