package api

import (
	"net/http"
	"time"
)

type statusResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	MimeType string `json:"mime_type"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.StartTime).Truncate(time.Second).String()

	writeJSON(w, http.StatusOK, statusResponse{
		Status:   "ok",
		Provider: s.ProviderName,
		MimeType: s.Provider.GetMimeType(),
		Uptime:   uptime,
		Version:  s.Version,
	})
}
