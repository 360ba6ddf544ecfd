// Package segment locates numbered sub-headings in a chapter's laid-out text
// and partitions the chapter into per-heading topic spans.
package segment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/studyforge/syllabd/internal/layout"
)

// Candidate is a line matching the numbered-outline pattern, before any
// filtering.
type Candidate struct {
	Number string // Dotted heading number, e.g. "4.1".
	Text   string // Heading text with the number stripped.
	Page   int
	Y      float64

	// Style of the line's first span. Styled is false when the source
	// carries no font metadata (plain text, OCR).
	Size   float64
	Bold   bool
	Styled bool
}

// Heading is a candidate accepted by the filter policy.
type Heading struct {
	Number string
	Text   string
	Page   int
	Y      float64
}

// Topic is the content attributed to one accepted heading.
type Topic struct {
	Number  string
	Heading string
	Content string
}

// Pattern compiles the heading-line pattern for a chapter number: the number
// itself, up to MaxDepth dotted sub-levels, a separator, then text starting
// with a letter. Anchored to line start so markers embedded mid-sentence
// never match.
func Pattern(chapter string, cfg Config) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(
		`^\s*(%s(?:\.\d+){0,%d})[\s.:;\-–)]+([A-Za-z].*)$`,
		regexp.QuoteMeta(chapter), cfg.MaxDepth,
	))
}

// DetectCandidates scans every line of every page for the numbered-outline
// pattern. A pure function of its inputs; an empty result means the chapter
// has no detectable sub-headings, which is not an error.
func DetectCandidates(pages []layout.Page, chapter string, cfg Config) []Candidate {
	pat := Pattern(chapter, cfg)
	var out []Candidate
	for _, page := range pages {
		out = append(out, detectOnPage(page, pat)...)
	}
	return out
}

func detectOnPage(page layout.Page, pat *regexp.Regexp) []Candidate {
	var out []Candidate
	for _, line := range page.Lines {
		c, ok := matchLine(line, page.Number, pat)
		if ok {
			out = append(out, c)
		}
	}
	return out
}

func matchLine(line layout.Line, pageNum int, pat *regexp.Regexp) (Candidate, bool) {
	m := pat.FindStringSubmatch(line.Text)
	if m == nil {
		return Candidate{}, false
	}
	text := strings.TrimSpace(m[2])
	if text == "" {
		return Candidate{}, false
	}
	c := Candidate{
		Number: strings.TrimSpace(m[1]),
		Text:   text,
		Page:   pageNum,
		Y:      line.Y,
	}
	if len(line.Spans) > 0 {
		c.Size = line.Spans[0].Size
		c.Bold = line.Spans[0].Bold
		c.Styled = true
	}
	return c, true
}

// BodyStyle computes the modal (font size, bold) pair over the spans of the
// first StyleSamplePages pages. Returns (10, false) when no font metadata
// exists at all.
func BodyStyle(pages []layout.Page, cfg Config) layout.Style {
	counts := make(map[layout.Style]int)
	for i, page := range pages {
		if i >= cfg.StyleSamplePages {
			break
		}
		for _, line := range page.Lines {
			for _, s := range line.Spans {
				key := layout.Style{Size: math.Round(s.Size), Bold: s.Bold}
				counts[key]++
			}
		}
	}
	if len(counts) == 0 {
		return layout.Style{Size: 10, Bold: false}
	}
	var best layout.Style
	bestN := -1
	for st, n := range counts {
		if n > bestN || (n == bestN && lessStyle(st, best)) {
			best, bestN = st, n
		}
	}
	return best
}

// lessStyle orders styles for deterministic modal tie-breaks.
func lessStyle(a, b layout.Style) bool {
	if a.Size != b.Size {
		return a.Size < b.Size
	}
	return !a.Bold && b.Bold
}

// ClassifyByStyle reports whether a candidate looks visually prominent
// relative to the body style. Candidates without style metadata are accepted;
// the blacklist filter handles them instead.
func ClassifyByStyle(c Candidate, body layout.Style) bool {
	if !c.Styled {
		return true
	}
	return c.Size > body.Size || (c.Bold && !body.Bold)
}

// StyledHeadings accepts candidates by visual prominence, then deduplicates.
func StyledHeadings(cands []Candidate, body layout.Style, cfg Config) []Heading {
	var out []Heading
	for _, c := range cands {
		if ClassifyByStyle(c, body) {
			out = append(out, Heading{Number: c.Number, Text: c.Text, Page: c.Page, Y: c.Y})
		}
	}
	return dedupe(out, cfg)
}

// FilterNonHeadings is the precision filter for sources without style
// metadata. Best effort: false negatives and false positives are both
// expected; the contract is reducing noise, not perfect extraction.
func FilterNonHeadings(cands []Candidate, cfg Config) []Heading {
	var out []Heading
	for _, c := range cands {
		if rejectText(c, cfg) {
			continue
		}
		out = append(out, Heading{Number: c.Number, Text: c.Text, Page: c.Page, Y: c.Y})
	}
	return dedupe(out, cfg)
}

func rejectText(c Candidate, cfg Config) bool {
	t := strings.TrimSpace(c.Text)
	if t == "" {
		return true
	}
	lower := strings.ToLower(t)
	words := strings.Fields(t)

	if len(words) < cfg.MinWords || len(words) > cfg.MaxWords {
		return true
	}
	if strings.HasSuffix(t, ":") {
		return true
	}
	if strings.EqualFold(t, c.Number) {
		return true
	}
	for _, q := range cfg.QuestionWords {
		if strings.HasPrefix(lower, q) {
			return true
		}
	}
	for _, bad := range cfg.BadStarts {
		if strings.HasPrefix(lower, bad) {
			return true
		}
	}
	for _, bad := range cfg.BadContains {
		if strings.Contains(lower, bad) {
			return true
		}
	}
	// A bare number followed by a stray short token ("4 1", "4 a)") is
	// almost always a mangled exercise marker, not a heading.
	if len(words) == 2 && isDigits(words[0]) && len(words[1]) < 3 {
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// dedupe removes headings sharing (number, page, y-bucket), keeping the first
// occurrence in document order. Running headers repeat a heading at the same
// position across layout passes; legitimate same-text headings on other pages
// survive.
func dedupe(hs []Heading, cfg Config) []Heading {
	type key struct {
		num    string
		page   int
		bucket int
	}
	bucket := cfg.YBucket
	if bucket <= 0 {
		bucket = 2.0
	}
	seen := make(map[key]bool, len(hs))
	var out []Heading
	for _, h := range hs {
		k := key{h.Number, h.Page, int(math.Floor(h.Y / bucket))}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, h)
	}
	return out
}

// Segment attributes each text block to the heading whose positional interval
// contains it. Intervals are half-open: strictly after heading i, strictly
// before heading i+1 (end of document for the last). Blocks before the first
// heading are unassigned preamble and dropped. Blocks at a heading's own
// position are excluded from content.
func Segment(headings []Heading, blocks []layout.Block) []Topic {
	if len(headings) == 0 {
		return nil
	}

	hs := make([]Heading, len(headings))
	copy(hs, headings)
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].Page != hs[j].Page {
			return hs[i].Page < hs[j].Page
		}
		return hs[i].Y < hs[j].Y
	})

	bs := make([]layout.Block, len(blocks))
	copy(bs, blocks)
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Page != bs[j].Page {
			return bs[i].Page < bs[j].Page
		}
		return bs[i].Y < bs[j].Y
	})

	type pos struct {
		page int
		y    float64
	}
	headingPos := make(map[pos]bool, len(hs))
	for _, h := range hs {
		headingPos[pos{h.Page, h.Y}] = true
	}

	after := func(b layout.Block, h Heading) bool {
		return b.Page > h.Page || (b.Page == h.Page && b.Y > h.Y)
	}

	topics := make([]Topic, 0, len(hs))
	for i, h := range hs {
		var content []string
		for _, b := range bs {
			if !after(b, h) {
				continue
			}
			if i+1 < len(hs) && after(b, hs[i+1]) {
				continue
			}
			if i+1 < len(hs) && b.Page == hs[i+1].Page && b.Y == hs[i+1].Y {
				continue
			}
			if headingPos[pos{b.Page, b.Y}] {
				continue
			}
			content = append(content, b.Text)
		}
		topics = append(topics, Topic{
			Number:  h.Number,
			Heading: h.Text,
			Content: strings.Join(content, "\n"),
		})
	}
	return topics
}

// Run performs a full extraction pass over a document: per-page scan under a
// cooperative deadline, style or blacklist classification, dedup, and
// segmentation. Pages exceeding the deadline are skipped whole and the run
// continues; a document whose every page times out yields an empty result.
// Topics with empty content (spurious double detections) are discarded.
func Run(ctx context.Context, pages []layout.Page, chapter string, cfg Config, log *slog.Logger) []Topic {
	pat := Pattern(chapter, cfg)
	body := BodyStyle(pages, cfg)

	var cands []Candidate
	var blocks []layout.Block
	styled := false
	for _, page := range pages {
		pc, pb, err := scanPage(ctx, page, pat, cfg.PageTimeout)
		if err != nil {
			log.Warn("page scan exceeded deadline, skipping page",
				"page", page.Number, "error", err)
			continue
		}
		cands = append(cands, pc...)
		blocks = append(blocks, pb...)
		if page.Styled() {
			styled = true
		}
	}

	var headings []Heading
	if styled {
		headings = StyledHeadings(cands, body, cfg)
	} else {
		headings = FilterNonHeadings(cands, cfg)
	}
	log.Debug("headings accepted", "chapter", chapter,
		"candidates", len(cands), "headings", len(headings), "styled", styled)

	var out []Topic
	for _, t := range Segment(headings, blocks) {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// scanPage runs the candidate scan and block collection for one page under a
// deadline. The scan checks the deadline cooperatively between lines, so a
// timed-out page returns promptly without emitting partial results.
func scanPage(ctx context.Context, page layout.Page, pat *regexp.Regexp, timeout time.Duration) ([]Candidate, []layout.Block, error) {
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		cands  []Candidate
		blocks []layout.Block
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		var cands []Candidate
		for i, line := range page.Lines {
			if i%64 == 0 {
				if err := sctx.Err(); err != nil {
					ch <- result{err: err}
					return
				}
			}
			if c, ok := matchLine(line, page.Number, pat); ok {
				cands = append(cands, c)
			}
		}
		ch <- result{cands: cands, blocks: page.Blocks()}
	}()

	select {
	case r := <-ch:
		return r.cands, r.blocks, r.err
	case <-sctx.Done():
		return nil, nil, sctx.Err()
	}
}
