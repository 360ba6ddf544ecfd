package tutor

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/studyforge/syllabd/internal/llm"
)

// Mode selects how the session tutor behaves.
type Mode string

const (
	ModeExplain  Mode = "explain"
	ModeSolve    Mode = "solve"
	ModePractice Mode = "practice"
	ModeRevise   Mode = "revise"
	ModeQuiz     Mode = "quiz"
)

// ValidMode reports whether m is a known tutoring mode.
func ValidMode(m Mode) bool {
	switch m {
	case ModeExplain, ModeSolve, ModePractice, ModeRevise, ModeQuiz:
		return true
	}
	return false
}

// maxHistory caps the conversation turns kept per session; older turns roll
// off so the completion request stays inside the model's context window.
const maxHistory = 20

// Session is one student's ongoing tutoring conversation.
type Session struct {
	mu sync.Mutex

	ID      string
	Subject string
	Chapter string
	Topic   string
	Mode    Mode

	messages []llm.Message

	CreatedAt    time.Time
	LastActivity time.Time
}

// Append records one conversation turn and bumps the activity timestamp.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, llm.Message{Role: role, Content: content})
	if len(s.messages) > maxHistory {
		s.messages = s.messages[len(s.messages)-maxHistory:]
	}
	s.LastActivity = time.Now()
}

// History returns a copy of the retained conversation turns.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Touch bumps the activity timestamp without recording a turn.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
}

// SessionStore is a thread-safe in-memory session registry. Sessions idle
// longer than the TTL are evicted by Cleanup.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create registers a new session under id.
func (st *SessionStore) Create(id, subject, chapter, topic string, mode Mode) *Session {
	now := time.Now()
	s := &Session{
		ID:           id,
		Subject:      subject,
		Chapter:      chapter,
		Topic:        topic,
		Mode:         mode,
		CreatedAt:    now,
		LastActivity: now,
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = s
	return s
}

func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[id]
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup removes sessions idle past the TTL.
func (st *SessionStore) Cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.LastActivity)
		s.mu.Unlock()
		if idle > st.ttl {
			delete(st.sessions, id)
		}
	}
}

// SessionSystem builds the system prompt for a tutoring session, varied by
// mode.
func SessionSystem(mode Mode, subject, topic string) string {
	base := fmt.Sprintf("You are an expert tutor in %s for students preparing for the IIT-JEE. "+
		"You are currently teaching the topic %q. "+
		"Be clear and structured, explain step by step, use LaTeX for formulas, "+
		"and encourage the student to reason actively.", subject, topic)

	switch mode {
	case ModeExplain:
		return base + "\n\nMode: EXPLANATION. Give thorough topic explanations with derivations and worked examples."
	case ModeSolve:
		return base + "\n\nMode: PROBLEM SOLVING. Guide the student through problems step by step, hints before full solutions."
	case ModePractice:
		return base + "\n\nMode: PRACTICE. Generate practice problems and walk through their solutions."
	case ModeRevise:
		return base + "\n\nMode: REVISION. Produce compact summaries, formula sheets, and key points for quick revision."
	case ModeQuiz:
		return base + "\n\nMode: QUIZ. Ask short questions one at a time and give instant feedback on each answer."
	}
	return base
}

// SessionWelcome is the assistant's opening turn for a new session.
func SessionWelcome(subject, topic string, mode Mode) string {
	return fmt.Sprintf("Welcome! We are studying **%s** — topic: **%s** (%s mode).\n\n"+
		"Ask me anything about the topic, request worked examples, or tell me where you are stuck.",
		subject, topic, mode)
}

// MergeTurns normalizes a conversation for the completion API: drops empty
// turns, merges consecutive turns with the same role, and inserts a bridging
// user turn when the history would otherwise open with the assistant. The
// API rejects conversations that do not strictly alternate user/assistant.
func MergeTurns(history []llm.Message) []llm.Message {
	var out []llm.Message
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		if len(out) == 0 && m.Role == "assistant" {
			out = append(out, llm.Message{Role: "user", Content: "Please continue."})
		}
		if len(out) > 0 && out[len(out)-1].Role == m.Role {
			out[len(out)-1].Content += "\n\n" + m.Content
			continue
		}
		out = append(out, m)
	}
	return out
}
