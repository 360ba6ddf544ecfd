package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/studyforge/syllabd/internal/llm"
	"github.com/studyforge/syllabd/internal/pipeline"
	"github.com/studyforge/syllabd/internal/tutor"
)

type startSessionRequest struct {
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
	Topic   string `json:"topic"`
	Mode    string `json:"mode"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Subject == "" || req.Topic == "" {
		jsonError(w, "subject and topic are required", http.StatusBadRequest)
		return
	}
	mode := tutor.Mode(req.Mode)
	if req.Mode == "" {
		mode = tutor.ModeExplain
	}
	if !tutor.ValidMode(mode) {
		jsonError(w, "unknown mode: "+req.Mode, http.StatusBadRequest)
		return
	}

	session := s.sessions.Create(pipeline.NewJobID(), req.Subject, req.Chapter, req.Topic, mode)
	welcome := tutor.SessionWelcome(req.Subject, req.Topic, mode)
	session.Append("assistant", welcome)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": session.ID,
		"subject":    session.Subject,
		"topic":      session.Topic,
		"mode":       string(session.Mode),
		"welcome":    welcome,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if session == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": session.ID,
		"subject":    session.Subject,
		"topic":      session.Topic,
		"mode":       string(session.Mode),
		"messages":   session.History(),
	})
}

type sessionMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleSessionMessage(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if session == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}

	var req sessionMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}
	session.Touch()

	system := tutor.SessionSystem(session.Mode, session.Subject, session.Topic)
	syllabus, err := s.store.SyllabusContent(r.Context(), session.Subject, session.Chapter, session.Topic)
	if err != nil {
		s.log.Error("syllabus lookup failed", "error", err)
		jsonError(w, "syllabus lookup failed", http.StatusInternalServerError)
		return
	}
	if syllabus != "" {
		system += "\n\nGround your teaching in this syllabus content:\n" + syllabus
	}

	turns := tutor.MergeTurns(append(session.History(), llm.Message{Role: "user", Content: req.Message}))
	answer, err := s.llm.Chat(r.Context(), llm.ChatRequest{
		System:    system,
		Messages:  turns,
		MaxTokens: 1200,
	})
	if err != nil {
		s.log.Error("session completion failed", "session_id", session.ID, "error", err)
		jsonError(w, "tutoring backend unavailable", http.StatusBadGateway)
		return
	}
	if tutor.Refused(answer) {
		jsonError(w, "the tutor could not answer this message", http.StatusServiceUnavailable)
		return
	}

	session.Append("user", req.Message)
	session.Append("assistant", answer)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": session.ID,
		"answer":     answer,
	})
}

type studyPlanRequest struct {
	Subjects     []string `json:"subjects"`
	DurationDays int      `json:"duration_days"`
	Goals        []string `json:"goals"`
	CurrentLevel string   `json:"current_level"`
}

func (s *Server) handleStudyPlan(w http.ResponseWriter, r *http.Request) {
	var req studyPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Subjects) == 0 {
		jsonError(w, "at least one subject is required", http.StatusBadRequest)
		return
	}
	if req.DurationDays <= 0 || req.DurationDays > 365 {
		jsonError(w, "duration_days must be between 1 and 365", http.StatusBadRequest)
		return
	}

	plan, err := s.llm.Complete(r.Context(), llm.CompletionRequest{
		System:      tutor.StudyPlanSystem(req.Subjects, req.DurationDays, req.Goals, req.CurrentLevel),
		User:        tutor.StudyPlanPrompt(req.Subjects, req.DurationDays),
		MaxTokens:   3072,
		Temperature: 0.5,
	})
	if err != nil {
		s.log.Error("study plan generation failed", "error", err)
		jsonError(w, "tutoring backend unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"subjects":      req.Subjects,
		"duration_days": req.DurationDays,
		"plan":          plan,
	})
}
