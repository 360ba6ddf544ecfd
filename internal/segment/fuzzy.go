package segment

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ReferenceHeading is a known topic from the syllabus, matched fuzzily
// against OCR output where positional and style metadata do not exist.
type ReferenceHeading struct {
	Number string
	Text   string
}

// RefMatch locates a reference heading within a flat line list.
type RefMatch struct {
	Ref   ReferenceHeading
	Line  int // Index of the first matched line.
	Score float64
}

// Normalize lowercases, strips diacritics, and collapses everything that is
// not a letter or digit to single spaces. Both sides of a fuzzy comparison
// go through this.
func Normalize(s string) string {
	s = norm.NFD.String(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark from decomposition, drop
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns a Ratcliff/Obershelp ratio in [0,1] between the
// normalized forms of a and b.
func Similarity(a, b string) float64 {
	ar := []rune(Normalize(a))
	br := []rune(Normalize(b))
	total := len(ar) + len(br)
	if total == 0 {
		return 1
	}
	return 2 * float64(matching(ar, br)) / float64(total)
}

// matching counts matched runes: the longest common substring, then
// recursively the pieces to its left and right.
func matching(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matching(a[:i], b[:j]) + matching(a[i+k:], b[j+k:])
}

func longestMatch(a, b []rune) (bi, bj, bk int) {
	j2len := make(map[int]int)
	for i := range a {
		next := make(map[int]int)
		for j := range b {
			if a[i] == b[j] {
				k := j2len[j-1] + 1
				next[j] = k
				if k > bk {
					bi, bj, bk = i-k+1, j-k+1, k
				}
			}
		}
		j2len = next
	}
	return bi, bj, bk
}

// MatchReference locates each reference heading in the line list by fuzzy
// score over merge windows of up to FuzzyMaxMerge consecutive lines. A window
// containing the heading number is accepted immediately; otherwise the
// highest-scoring window at or above FuzzyThreshold wins. References that
// never clear the threshold are dropped with a log line, not escalated.
// Results come back ordered by line position.
func MatchReference(lines []string, refs []ReferenceHeading, cfg Config, log *slog.Logger) []RefMatch {
	maxMerge := cfg.FuzzyMaxMerge
	if maxMerge < 1 {
		maxMerge = 1
	}

	var out []RefMatch
	for _, ref := range refs {
		normNum := Normalize(ref.Number)
		bestIdx, bestScore := -1, 0.0

	scan:
		for i := range lines {
			for merge := 1; merge <= maxMerge && i+merge <= len(lines); merge++ {
				parts := make([]string, 0, merge)
				for j := i; j < i+merge; j++ {
					parts = append(parts, strings.TrimSpace(lines[j]))
				}
				chunk := strings.Join(parts, " ")
				score := Similarity(chunk, ref.Text)

				if normNum != "" && strings.Contains(Normalize(chunk), normNum) {
					// Anchor at the line carrying the number, not the window
					// start, so preceding noise lines stay in the prior span.
					bestIdx, bestScore = i, score
					for j := i; j < i+merge; j++ {
						if strings.Contains(Normalize(lines[j]), normNum) {
							bestIdx = j
							break
						}
					}
					break scan
				}
				if score >= cfg.FuzzyThreshold && score > bestScore {
					bestIdx, bestScore = i, score
				}
			}
		}

		if bestIdx < 0 {
			log.Info("reference heading not matched",
				"number", ref.Number, "text", ref.Text)
			continue
		}
		log.Debug("reference heading matched",
			"number", ref.Number, "line", bestIdx, "score", bestScore)
		out = append(out, RefMatch{Ref: ref, Line: bestIdx, Score: bestScore})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// SegmentLines turns matched reference headings into topics: each topic's
// content is the lines between its match and the next (end of text for the
// last).
func SegmentLines(matches []RefMatch, lines []string) []Topic {
	topics := make([]Topic, 0, len(matches))
	for i, m := range matches {
		end := len(lines)
		if i+1 < len(matches) {
			end = matches[i+1].Line
		}
		start := m.Line + 1
		if start > end {
			start = end
		}
		content := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		topics = append(topics, Topic{
			Number:  m.Ref.Number,
			Heading: m.Ref.Text,
			Content: content,
		})
	}
	return topics
}
