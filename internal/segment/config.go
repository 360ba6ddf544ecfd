package segment

import "time"

// Config holds the tunable parameters of heading detection and topic
// segmentation. The source material (textbook PDFs) is irregular enough that
// detection is a noise-reduction heuristic rather than an exact parser;
// callers tune these rather than expecting perfect extraction.
type Config struct {
	// MaxDepth is the maximum number of dotted sub-levels after the chapter
	// number ("4.1.2.3" has depth 3).
	MaxDepth int

	// Word-count bounds for a plausible heading line.
	MinWords int
	MaxWords int

	// BadStarts rejects lines whose text begins with one of these tokens
	// (figure captions, exercise numbering). Case-insensitive.
	BadStarts []string

	// BadContains rejects lines containing one of these words anywhere.
	BadContains []string

	// QuestionWords rejects lines that read like exercise questions.
	QuestionWords []string

	// YBucket is the vertical bucket height used to deduplicate headings
	// detected twice at near-identical positions.
	YBucket float64

	// StyleSamplePages caps how many pages are sampled when computing the
	// modal body style.
	StyleSamplePages int

	// PageTimeout bounds the layout scan of a single page. Pages that
	// exceed it are skipped whole; the document continues.
	PageTimeout time.Duration

	// Fuzzy matching of OCR text against a reference heading list.
	FuzzyThreshold float64
	FuzzyMaxMerge  int
}

// DefaultConfig returns the canonical parameter set.
func DefaultConfig() Config {
	return Config{
		MaxDepth: 5,
		MinWords: 2,
		MaxWords: 15,
		BadStarts: []string{
			"table", "fig", "exercise", "problem", "example", "write", "draw",
		},
		BadContains: []string{
			"equation", "value", "define", "distinguish", "write", "calculate",
		},
		QuestionWords: []string{
			"define", "distinguish", "write", "calculate", "explain", "how", "why", "what",
		},
		YBucket:          2.0,
		StyleSamplePages: 6,
		PageTimeout:      5 * time.Second,
		FuzzyThreshold:   0.70,
		FuzzyMaxMerge:    4,
	}
}
