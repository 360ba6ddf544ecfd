package tutor

import (
	"regexp"
	"strings"
)

// exerciseHeaders mark the start of a chapter's end-of-chapter question
// section.
var exerciseHeaders = []string{"exercise", "exercises", "practice", "questions"}

// questionStart matches the markers that begin a new question: "1.", "(2)",
// "a)", "Q3." and friends.
var questionStart = regexp.MustCompile(`^(\(?\d{1,3}[.)]|\(?[a-zA-Z][).]|Q\s?\d{1,3}[. :]?)`)

// ExtractQuestions pulls end-of-chapter exercise questions out of a flat line
// list. Everything before the first exercise header is ignored; after it,
// lines are grouped into questions at each start marker. Best effort, like
// the heading filter: the goal is a usable question bank, not a perfect one.
func ExtractQuestions(lines []string) []string {
	var out []string
	var buffer []string
	inExercise := false

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		q := strings.TrimSpace(strings.Join(buffer, " "))
		if len(q) > 2 {
			out = append(out, q)
		}
		buffer = nil
	}

	for _, line := range lines {
		norm := strings.ToLower(strings.TrimSpace(line))
		if !inExercise {
			for _, h := range exerciseHeaders {
				if strings.Contains(norm, h) {
					inExercise = true
					break
				}
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if questionStart.MatchString(trimmed) {
			flush()
			buffer = []string{trimmed}
		} else if len(buffer) > 0 {
			buffer = append(buffer, trimmed)
		}
	}
	flush()
	return out
}
