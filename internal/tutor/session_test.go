package tutor

import (
	"strings"
	"testing"
	"time"

	"github.com/studyforge/syllabd/internal/llm"
)

func TestValidMode(t *testing.T) {
	for _, m := range []Mode{ModeExplain, ModeSolve, ModePractice, ModeRevise, ModeQuiz} {
		if !ValidMode(m) {
			t.Errorf("%q should be valid", m)
		}
	}
	if ValidMode(Mode("deep-think")) {
		t.Errorf("unknown mode accepted")
	}
}

func TestSessionStore_CreateGet(t *testing.T) {
	st := NewSessionStore(time.Hour)
	s := st.Create("sess-1", "Chemistry", "Chemical Bonding and Molecular Structure", "Chemical Bonding", ModeExplain)

	got := st.Get("sess-1")
	if got != s {
		t.Fatalf("Get returned %v, want the created session", got)
	}
	if got.Subject != "Chemistry" || got.Mode != ModeExplain {
		t.Errorf("session fields wrong: %+v", got)
	}
	if st.Get("missing") != nil {
		t.Errorf("unknown id should return nil")
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestSessionStore_CleanupEvictsIdle(t *testing.T) {
	st := NewSessionStore(time.Minute)
	idle := st.Create("idle", "Physics", "Ray Optics", "Optics", ModeRevise)
	idle.LastActivity = time.Now().Add(-2 * time.Minute)
	active := st.Create("active", "Physics", "Ray Optics", "Optics", ModeRevise)
	active.Touch()

	st.Cleanup()

	if st.Get("idle") != nil {
		t.Errorf("idle session survived cleanup")
	}
	if st.Get("active") == nil {
		t.Errorf("active session was evicted")
	}
}

func TestSession_HistoryCapped(t *testing.T) {
	s := &Session{ID: "s"}
	for i := 0; i < maxHistory+10; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		s.Append(role, "turn")
	}
	if got := len(s.History()); got != maxHistory {
		t.Fatalf("history length = %d, want %d", got, maxHistory)
	}
}

func TestSession_HistoryIsACopy(t *testing.T) {
	s := &Session{ID: "s"}
	s.Append("user", "original")
	h := s.History()
	h[0].Content = "mutated"
	if s.History()[0].Content != "original" {
		t.Fatalf("History must return a copy")
	}
}

func TestSessionSystem_VariesByMode(t *testing.T) {
	explain := SessionSystem(ModeExplain, "Chemistry", "Ionic Bond")
	quiz := SessionSystem(ModeQuiz, "Chemistry", "Ionic Bond")
	if explain == quiz {
		t.Fatalf("modes should produce different system prompts")
	}
	if !strings.Contains(explain, "Chemistry") || !strings.Contains(explain, "Ionic Bond") {
		t.Errorf("subject/topic missing from system prompt: %q", explain)
	}
}

func TestMergeTurns_MergesConsecutiveRoles(t *testing.T) {
	in := []llm.Message{
		{Role: "user", Content: "first"},
		{Role: "user", Content: "second"},
		{Role: "assistant", Content: "reply"},
	}
	out := MergeTurns(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 merged turns, got %d: %+v", len(out), out)
	}
	if !strings.Contains(out[0].Content, "first") || !strings.Contains(out[0].Content, "second") {
		t.Errorf("consecutive user turns not merged: %+v", out[0])
	}
}

func TestMergeTurns_OpensWithUser(t *testing.T) {
	in := []llm.Message{{Role: "assistant", Content: "welcome"}}
	out := MergeTurns(in)
	if len(out) != 2 || out[0].Role != "user" {
		t.Fatalf("expected bridging user turn, got %+v", out)
	}
}

func TestMergeTurns_DropsEmptyAndForeignRoles(t *testing.T) {
	in := []llm.Message{
		{Role: "system", Content: "should not pass"},
		{Role: "user", Content: "  "},
		{Role: "user", Content: "real question"},
	}
	out := MergeTurns(in)
	if len(out) != 1 || out[0].Content != "real question" {
		t.Fatalf("unexpected turns: %+v", out)
	}
}

func TestStudyPlanPrompts(t *testing.T) {
	sys := StudyPlanSystem([]string{"Physics", "Chemistry"}, 30, []string{"crack JEE Mains"}, "intermediate")
	for _, want := range []string{"Physics, Chemistry", "30 days", "crack JEE Mains", "intermediate"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	user := StudyPlanPrompt([]string{"Physics"}, 14)
	if !strings.Contains(user, "Physics") || !strings.Contains(user, "14 days") {
		t.Errorf("user prompt wrong: %q", user)
	}
}
