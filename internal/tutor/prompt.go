// Package tutor assembles prompts for the tutoring endpoints and validates
// what comes back.
package tutor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studyforge/syllabd/internal/llm"
)

// QuickHelpSystem frames the model as a syllabus-bound tutor.
const QuickHelpSystem = "You are an expert tutor for students preparing for competitive exams in India. " +
	"Answer the student's question using ONLY the provided syllabus content. " +
	"If the syllabus content does not cover the question, say so briefly. " +
	"Be clear, structured, and concise."

// QuickHelpPrompt embeds the syllabus content as context for a student query.
func QuickHelpPrompt(syllabus, query string) string {
	var sb strings.Builder
	sb.WriteString("Syllabus content:\n---\n")
	sb.WriteString(syllabus)
	sb.WriteString("\n---\n\nStudent question: ")
	sb.WriteString(query)
	return sb.String()
}

// ProblemSystem asks for a single challenging practice problem.
func ProblemSystem(subject, grade string) string {
	return fmt.Sprintf("You are an expert tutor for %s for %s grade students preparing for the IIT-JEE (Mains and Advanced). "+
		"Generate a single, challenging, non-trivial practice problem that often requires synthesizing multiple concepts. "+
		"Do NOT generate simple, textbook-style, single-concept questions. "+
		"Output ONLY the problem statement, without hints, solutions, or explanations.",
		subject, grade)
}

// ProblemPrompt requests a problem on a topic, optionally bound to syllabus
// text.
func ProblemPrompt(topic, syllabus string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a practice problem on the topic of %q.", topic)
	if syllabus != "" {
		sb.WriteString("\nStrictly adhere to the following syllabus content:\n")
		sb.WriteString(syllabus)
	}
	sb.WriteString("\nProvide only the problem statement, without the solution or explanation.")
	return sb.String()
}

// SolutionSystem asks for a worked solution.
func SolutionSystem(subject, grade string) string {
	return fmt.Sprintf("You are an expert tutor for %s for %s grade students. "+
		"Provide a detailed, step-by-step solution for the following practice problem.",
		subject, grade)
}

func SolutionPrompt(problem string) string {
	return fmt.Sprintf("Problem: %s\n\nProvide the complete solution with detailed steps and the final answer.", problem)
}

// QuizSystem asks for a JSON multiple-choice quiz.
const QuizSystem = "You are an expert tutor generating multiple-choice quizzes. " +
	"Respond with ONLY a JSON array, no other text. Each element must have " +
	`fields "question" (string), "options" (array of exactly 4 strings), and ` +
	`"answer" (the correct option's index, 0-3).`

// QuizPrompt requests count questions on a topic from syllabus text.
func QuizPrompt(subject, topic, syllabus string, count int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d multiple-choice questions on %q for %s.", count, topic, subject)
	if syllabus != "" {
		sb.WriteString("\nBase every question on this syllabus content:\n")
		sb.WriteString(syllabus)
	}
	return sb.String()
}

// QuizQuestion is one parsed multiple-choice question.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// ParseQuiz decodes the model's quiz JSON, tolerating a Markdown code fence,
// and drops malformed entries.
func ParseQuiz(raw string) ([]QuizQuestion, error) {
	text := llm.StripCodeBlock(raw)
	var qs []QuizQuestion
	if err := json.Unmarshal([]byte(text), &qs); err != nil {
		return nil, fmt.Errorf("parse quiz json: %w", err)
	}
	var out []QuizQuestion
	for _, q := range qs {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
			continue
		}
		if q.Answer < 0 || q.Answer > 3 {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// refusalPrefixes mark answers the model declined to give; the endpoints
// treat these as a service failure rather than an answer.
var refusalPrefixes = []string{"i'm sorry", "i cannot", "i don't know"}

// Refused reports whether a model answer is empty or a refusal.
func Refused(answer string) bool {
	t := strings.ToLower(strings.TrimSpace(answer))
	if t == "" {
		return true
	}
	for _, p := range refusalPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}
