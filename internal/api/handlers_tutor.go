package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/studyforge/syllabd/internal/llm"
	"github.com/studyforge/syllabd/internal/tutor"
)

type quickHelpRequest struct {
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
	Topic   string `json:"topic"`
	Query   string `json:"query"`
}

func (s *Server) handleQuickHelp(w http.ResponseWriter, r *http.Request) {
	var req quickHelpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	syllabus, err := s.store.SyllabusContent(r.Context(), req.Subject, req.Chapter, req.Topic)
	if err != nil {
		s.log.Error("syllabus lookup failed", "error", err)
		jsonError(w, "syllabus lookup failed", http.StatusInternalServerError)
		return
	}

	answer, err := s.llm.Complete(r.Context(), llm.CompletionRequest{
		System:    tutor.QuickHelpSystem,
		User:      tutor.QuickHelpPrompt(syllabus, req.Query),
		MaxTokens: 800,
	})
	if err != nil {
		s.log.Error("quick help completion failed", "error", err)
		jsonError(w, "tutoring backend unavailable", http.StatusBadGateway)
		return
	}
	if tutor.Refused(answer) {
		jsonError(w, "the tutor could not answer this query", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"answer":        answer,
		"used_syllabus": syllabus != "",
	})
}

type problemRequest struct {
	Subject string `json:"subject"`
	Class   string `json:"class_number"`
	Chapter string `json:"chapter"`
	Topic   string `json:"topic"`
}

func (s *Server) handleProblems(w http.ResponseWriter, r *http.Request) {
	var req problemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Subject == "" || req.Topic == "" {
		jsonError(w, "subject and topic are required", http.StatusBadRequest)
		return
	}

	syllabus, err := s.store.SyllabusContent(r.Context(), req.Subject, req.Chapter, req.Topic)
	if err != nil {
		s.log.Error("syllabus lookup failed", "error", err)
		jsonError(w, "syllabus lookup failed", http.StatusInternalServerError)
		return
	}
	if syllabus == "" {
		jsonError(w, "no syllabus content for this topic; ingest the chapter first", http.StatusNotFound)
		return
	}

	problem, err := s.llm.Complete(r.Context(), llm.CompletionRequest{
		System:    tutor.ProblemSystem(req.Subject, req.Class),
		User:      tutor.ProblemPrompt(req.Topic, syllabus),
		MaxTokens: 600,
	})
	if err != nil {
		s.log.Error("problem generation failed", "error", err)
		jsonError(w, "tutoring backend unavailable", http.StatusBadGateway)
		return
	}

	solution, err := s.llm.Complete(r.Context(), llm.CompletionRequest{
		System:    tutor.SolutionSystem(req.Subject, req.Class),
		User:      tutor.SolutionPrompt(problem),
		MaxTokens: 1200,
	})
	if err != nil {
		s.log.Error("solution generation failed", "error", err)
		jsonError(w, "tutoring backend unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"problem":  problem,
		"solution": solution,
	})
}

type quizRequest struct {
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
	Topic   string `json:"topic"`
	Count   int    `json:"count"`
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Subject == "" || req.Topic == "" {
		jsonError(w, "subject and topic are required", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 || req.Count > 20 {
		req.Count = 5
	}

	syllabus, err := s.store.SyllabusContent(r.Context(), req.Subject, req.Chapter, req.Topic)
	if err != nil {
		s.log.Error("syllabus lookup failed", "error", err)
		jsonError(w, "syllabus lookup failed", http.StatusInternalServerError)
		return
	}
	if syllabus == "" {
		jsonError(w, "no syllabus content for this topic; ingest the chapter first", http.StatusNotFound)
		return
	}

	raw, err := s.llm.Complete(r.Context(), llm.CompletionRequest{
		System:    tutor.QuizSystem,
		User:      tutor.QuizPrompt(req.Subject, req.Topic, syllabus, req.Count),
		MaxTokens: 1500,
	})
	if err != nil {
		s.log.Error("quiz generation failed", "error", err)
		jsonError(w, "tutoring backend unavailable", http.StatusBadGateway)
		return
	}

	questions, err := tutor.ParseQuiz(raw)
	if err != nil || len(questions) == 0 {
		s.log.Error("quiz response unparseable", "error", err)
		jsonError(w, "quiz generation produced no usable questions", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"questions": questions})
}
