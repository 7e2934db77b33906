package syncer

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.DB.Pool.Ping(r.Context()); err != nil {
		a.Logger.Warn("Health check failed", zap.Error(err))
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *App) handleProtocolStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Metrics.ProtocolStats(r.Context())
	if err != nil {
		a.Logger.Error("Protocol stats failed", zap.Error(err))
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
