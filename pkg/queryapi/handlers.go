package queryapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const defaultAlertsLimit = 50

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	chain := r.URL.Query().Get("chain")
	limit := parseIntOr(r.URL.Query().Get("limit"), defaultAlertsLimit)
	offset := parseIntOr(r.URL.Query().Get("offset"), 0)

	alerts, err := s.store.ListAlerts(r.Context(), chain, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	alert, err := s.store.GetAlert(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if alert == nil {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

const defaultWalletsLimit = 100

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	tier := r.URL.Query().Get("tier")
	limit := parseIntOr(r.URL.Query().Get("limit"), defaultWalletsLimit)

	if tier != "" {
		wallets, err := s.store.ListWalletsByTier(r.Context(), tier, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, wallets)
		return
	}

	wallets, err := s.store.ListAllWallets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (s *Server) handleTokenRisk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	risk, err := s.store.GetTokenRisk(r.Context(), vars["chain"], vars["address"])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if risk == nil {
		writeError(w, http.StatusNotFound, "token risk not found")
		return
	}
	writeJSON(w, http.StatusOK, risk)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	value, err := s.store.GetSetting(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if value == nil {
		writeError(w, http.StatusNotFound, "setting not found")
		return
	}
	writeJSON(w, http.StatusOK, value)
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.store.PutSetting(r.Context(), key, json.RawMessage(body)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePreviewSetting returns the current stored value without
// applying anything — the store has no opinion on what a setting
// means, so "preview" is just a read, leaving any dry-run evaluation
// to the caller.
func (s *Server) handlePreviewSetting(w http.ResponseWriter, r *http.Request) {
	s.handleGetSetting(w, r)
}

func parseIntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
