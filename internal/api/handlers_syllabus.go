package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.store.Subjects(r.Context())
	if err != nil {
		s.log.Error("list subjects failed", "error", err)
		jsonError(w, "failed to list subjects", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"subjects": subjects})
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.store.Chapters(r.Context())
	if err != nil {
		s.log.Error("list chapters failed", "error", err)
		jsonError(w, "failed to list chapters", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"chapters": chapters})
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	chapterID, err := strconv.ParseInt(chi.URLParam(r, "chapterID"), 10, 64)
	if err != nil {
		jsonError(w, "invalid chapter id", http.StatusBadRequest)
		return
	}
	topics, err := s.store.Topics(r.Context(), chapterID)
	if err != nil {
		s.log.Error("list topics failed", "chapter_id", chapterID, "error", err)
		jsonError(w, "failed to list topics", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"chapter_id": chapterID, "topics": topics})
}
