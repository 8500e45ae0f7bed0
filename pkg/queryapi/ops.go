package queryapi

import (
	"net/http"
	"time"
)

// FreshHeartbeatAge mirrors the original ops surface's 45s freshness
// window, three heartbeat intervals of slack on a 15s heartbeat.
const FreshHeartbeatAge = 45 * time.Second

type workerHealth struct {
	Fresh          bool             `json:"fresh"`
	AgeSeconds     float64          `json:"age_seconds"`
	Seen           bool             `json:"seen"`
	PendingByGroup map[string]int64 `json:"pending_by_group,omitempty"`
}

func (s *Server) handleOpsHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	heartbeats := make(map[string]workerHealth, len(Workers))

	for _, worker := range Workers {
		age, seen, err := s.bus.HeartbeatAge(ctx, worker)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		health := workerHealth{Seen: seen, AgeSeconds: age.Seconds(), Fresh: seen && age < FreshHeartbeatAge}

		if groups := heartbeatGroups[worker]; len(groups) > 0 {
			pending := make(map[string]int64, len(groups))
			for _, g := range groups {
				count, err := s.bus.PendingCount(ctx, g.stream, g.group)
				if err != nil {
					writeError(w, http.StatusInternalServerError, err.Error())
					return
				}
				pending[g.group] = count
			}
			health.PendingByGroup = pending
		}

		heartbeats[worker] = health
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"heartbeats": heartbeats})
}

const topMetricsLimit = 10

func (s *Server) handleOpsMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byRegime, err := s.store.AlertsByRegime(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	trapRate, err := s.store.TrapRate(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	byHorizon, err := s.store.AvgNetReturnByHorizon(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	chain := r.URL.Query().Get("chain")
	topWallets, err := s.store.TopWalletsByMerit(ctx, chain, topMetricsLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	topPairs, err := s.store.TopPairsByTradeCount(ctx, topMetricsLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts_by_regime":          byRegime,
		"trap_rate":                 trapRate,
		"avg_net_return_by_horizon": byHorizon,
		"top_wallets":               topWallets,
		"top_pairs":                 topPairs,
	})
}
