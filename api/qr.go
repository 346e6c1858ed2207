package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/armature-corp/qrchart/metrics"
	"github.com/armature-corp/qrchart/store"
)

const defaultImageSize = 200

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" {
		writeError(w, http.StatusBadRequest, "text query parameter is required")
		return
	}

	size := defaultImageSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "size must be a positive integer")
			return
		}
		size = n
	}

	start := time.Now()
	img, err := s.Provider.GetImage(r.Context(), text, size)
	if err != nil {
		s.Metrics.ObserveRender(s.ProviderName, metrics.OutcomeError, time.Since(start))
		s.Log.Error("render failed", "provider", s.ProviderName, "size", size, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.Metrics.ObserveRender(s.ProviderName, metrics.OutcomeSuccess, time.Since(start))

	mimeType := s.Provider.GetMimeType()
	if s.Store != nil {
		rec := &store.Render{
			Provider: s.ProviderName,
			Size:     size,
			Level:    s.Level.Letter(),
			Margin:   s.Margin,
			MimeType: mimeType,
			Bytes:    len(img),
		}
		rec.SetText(text)
		if err := s.Store.SaveRender(rec); err != nil {
			s.Log.Warn("failed to record render", "error", err)
		}
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}
