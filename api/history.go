package api

import (
	"net/http"

	"github.com/armature-corp/qrchart/store"
)

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	renders, err := s.Store.GetRenders(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if renders == nil {
		renders = []store.Render{}
	}

	writeJSON(w, http.StatusOK, renders)
}
