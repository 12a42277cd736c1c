package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.client == nil || s.client.LatencyStats() == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.client.Model(),
		"stats": s.client.LatencyStats().Snapshot(),
		"gate":  s.pipeline.GateStats(),
	})
}
