package segment

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/studyforge/syllabd/internal/layout"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func plainPage(num int, lines ...string) layout.Page {
	p := layout.Page{Number: num}
	for i, l := range lines {
		p.Lines = append(p.Lines, layout.Line{Text: l, Y: float64(i+1) * 10})
	}
	return p
}

func TestDetectCandidates_NumberedHeading(t *testing.T) {
	pages := []layout.Page{
		plainPage(1, "Some introductory text about bonding."),
		plainPage(2, "4.1 Ionic or Electrovalent Bond", "More body text."),
	}

	cands := DetectCandidates(pages, "4", DefaultConfig())
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Number != "4.1" {
		t.Errorf("expected number 4.1, got %q", c.Number)
	}
	if c.Text != "Ionic or Electrovalent Bond" {
		t.Errorf("expected heading text, got %q", c.Text)
	}
	if c.Page != 2 {
		t.Errorf("expected page 2, got %d", c.Page)
	}
}

func TestDetectCandidates_LineStartOnly(t *testing.T) {
	pages := []layout.Page{
		plainPage(1, "as described in section 4.1 Ionic Bond above"),
	}
	cands := DetectCandidates(pages, "4", DefaultConfig())
	if len(cands) != 0 {
		t.Fatalf("mid-sentence marker must not match, got %d candidates", len(cands))
	}
}

func TestDetectCandidates_SeparatorVariants(t *testing.T) {
	pages := []layout.Page{
		plainPage(1,
			"7 Introduction To Equilibrium",
			"7.1. Dynamic Equilibrium",
			"7.2: Law of Mass Action",
			"7.3 - Le Chatelier Principle",
			"7.4) Ionic Equilibrium",
		),
	}
	cands := DetectCandidates(pages, "7", DefaultConfig())
	if len(cands) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(cands))
	}
	want := []string{"7", "7.1", "7.2", "7.3", "7.4"}
	for i, c := range cands {
		if c.Number != want[i] {
			t.Errorf("candidate %d: expected number %q, got %q", i, want[i], c.Number)
		}
	}
}

func TestDetectCandidates_RequiresLetterAfterSeparator(t *testing.T) {
	pages := []layout.Page{
		plainPage(1, "4.1 42 is not a heading", "4.2 "),
	}
	cands := DetectCandidates(pages, "4", DefaultConfig())
	if len(cands) != 0 {
		t.Fatalf("expected 0 candidates, got %d: %+v", len(cands), cands)
	}
}

func TestDetectCandidates_ChapterNumberIsLiteral(t *testing.T) {
	// Chapter "4" must not match "14.1" or "40.2".
	pages := []layout.Page{
		plainPage(1, "14.1 Oscillations", "40 Modern Physics"),
	}
	cands := DetectCandidates(pages, "4", DefaultConfig())
	if len(cands) != 0 {
		t.Fatalf("expected 0 candidates, got %d: %+v", len(cands), cands)
	}
}

func TestDetectCandidates_EmptyDocument(t *testing.T) {
	if got := DetectCandidates(nil, "4", DefaultConfig()); len(got) != 0 {
		t.Fatalf("expected empty result for zero pages, got %d", len(got))
	}
}

func TestDetectCandidates_Idempotent(t *testing.T) {
	pages := []layout.Page{
		plainPage(1, "4.1 Ionic Bond", "body", "4.2 Covalent Bond"),
	}
	first := DetectCandidates(pages, "4", DefaultConfig())
	second := DetectCandidates(pages, "4", DefaultConfig())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("detection is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestBodyStyle_Modal(t *testing.T) {
	page := layout.Page{Number: 1, Lines: []layout.Line{
		{Text: "a", Spans: []layout.Span{{Text: "a", Size: 10}, {Text: "b", Size: 10}}},
		{Text: "b", Spans: []layout.Span{{Text: "c", Size: 10}, {Text: "d", Size: 14, Bold: true}}},
	}}
	body := BodyStyle([]layout.Page{page}, DefaultConfig())
	if body.Size != 10 || body.Bold {
		t.Fatalf("expected modal style (10, false), got %+v", body)
	}
}

func TestBodyStyle_NoMetadataDefaults(t *testing.T) {
	body := BodyStyle([]layout.Page{plainPage(1, "plain line")}, DefaultConfig())
	if body.Size != 10 || body.Bold {
		t.Fatalf("expected default style (10, false), got %+v", body)
	}
}

func TestBodyStyle_SamplePageCap(t *testing.T) {
	// Pages beyond the sample cap must not influence the modal style.
	small := layout.Line{Text: "x", Spans: []layout.Span{{Text: "x", Size: 10}}}
	big := layout.Line{Text: "x", Spans: []layout.Span{{Text: "x", Size: 18}}}

	var pages []layout.Page
	for i := 0; i < 6; i++ {
		pages = append(pages, layout.Page{Number: i + 1, Lines: []layout.Line{small}})
	}
	for i := 0; i < 20; i++ {
		pages = append(pages, layout.Page{Number: i + 7, Lines: []layout.Line{big, big}})
	}

	body := BodyStyle(pages, DefaultConfig())
	if body.Size != 10 {
		t.Fatalf("expected sampled style size 10, got %v", body.Size)
	}
}

func TestClassifyByStyle(t *testing.T) {
	body := layout.Style{Size: 10, Bold: false}

	larger := Candidate{Size: 12, Styled: true}
	if !ClassifyByStyle(larger, body) {
		t.Error("larger-than-body candidate should be accepted")
	}

	boldOnly := Candidate{Size: 10, Bold: true, Styled: true}
	if !ClassifyByStyle(boldOnly, body) {
		t.Error("bold candidate over non-bold body should be accepted")
	}

	plain := Candidate{Size: 10, Styled: true}
	if ClassifyByStyle(plain, body) {
		t.Error("body-styled candidate should be rejected")
	}

	boldBody := layout.Style{Size: 10, Bold: true}
	if ClassifyByStyle(Candidate{Size: 10, Bold: true, Styled: true}, boldBody) {
		t.Error("bold candidate over bold body should be rejected")
	}

	unstyled := Candidate{}
	if !ClassifyByStyle(unstyled, body) {
		t.Error("candidate without style metadata should fall through as accepted")
	}
}

func TestFilterNonHeadings_Blacklist(t *testing.T) {
	cfg := DefaultConfig()
	cands := []Candidate{
		{Number: "4.1", Text: "Ionic or Electrovalent Bond", Page: 1, Y: 10},
		{Number: "4.2", Text: "Table 3: Bond Lengths", Page: 1, Y: 20},
		{Number: "4.3", Text: "Calculate the bond order of", Page: 1, Y: 30},
		{Number: "4.4", Text: "Define electronegativity and its uses", Page: 1, Y: 40},
		{Number: "4.5", Text: "Resonance", Page: 1, Y: 50}, // single word
		{Number: "4.6", Text: "Important points to remember before the final exam on chemical bonding and all the molecular structures too", Page: 1, Y: 60}, // 17 words
		{Number: "4.7", Text: "Bond Parameters are given below:", Page: 1, Y: 70},
		{Number: "4.8", Text: "4.8", Page: 1, Y: 80},
	}

	headings := FilterNonHeadings(cands, cfg)
	if len(headings) != 1 {
		t.Fatalf("expected only the real heading survive, got %d: %+v", len(headings), headings)
	}
	if headings[0].Number != "4.1" {
		t.Errorf("expected 4.1, got %q", headings[0].Number)
	}
}

func TestFilterNonHeadings_WordBoundIsExclusive(t *testing.T) {
	cfg := DefaultConfig()
	fifteen := "Ionic and Covalent Bonding in Molecules of Common Salts Found Across Many Natural Mineral Systems"
	cands := []Candidate{
		{Number: "4.1", Text: fifteen, Page: 1, Y: 10},
		{Number: "4.2", Text: fifteen + " Everywhere", Page: 1, Y: 20},
	}

	headings := FilterNonHeadings(cands, cfg)
	if len(headings) != 1 {
		t.Fatalf("expected exactly the 15-word heading to survive, got %d: %+v", len(headings), headings)
	}
	if headings[0].Number != "4.1" {
		t.Errorf("expected the 15-word heading kept, got %q", headings[0].Number)
	}
}

func TestFilterNonHeadings_DedupNearbyPositions(t *testing.T) {
	cands := []Candidate{
		{Number: "4.3", Text: "Bond Parameters Overview", Page: 3, Y: 100},
		{Number: "4.3", Text: "Bond Parameters Overview", Page: 3, Y: 101},
	}
	headings := FilterNonHeadings(cands, DefaultConfig())
	if len(headings) != 1 {
		t.Fatalf("expected dedup to one heading, got %d", len(headings))
	}
	if headings[0].Y != 100 {
		t.Errorf("expected first occurrence kept, got y=%v", headings[0].Y)
	}
}

func TestFilterNonHeadings_SameNumberDifferentPagesKept(t *testing.T) {
	cands := []Candidate{
		{Number: "4.3", Text: "Bond Parameters Overview", Page: 3, Y: 100},
		{Number: "4.3", Text: "Bond Parameters Overview", Page: 5, Y: 100},
	}
	headings := FilterNonHeadings(cands, DefaultConfig())
	if len(headings) != 2 {
		t.Fatalf("expected both headings kept across pages, got %d", len(headings))
	}
}

func TestSegment_AssignsBlocksToContainingInterval(t *testing.T) {
	headings := []Heading{
		{Number: "4.1", Text: "First", Page: 1, Y: 10},
		{Number: "4.2", Text: "Second", Page: 1, Y: 50},
		{Number: "4.3", Text: "Third", Page: 2, Y: 20},
	}
	blocks := []layout.Block{
		{Text: "preamble", Page: 1, Y: 5},
		{Text: "4.1 First", Page: 1, Y: 10},
		{Text: "alpha", Page: 1, Y: 20},
		{Text: "beta", Page: 1, Y: 30},
		{Text: "4.2 Second", Page: 1, Y: 50},
		{Text: "gamma", Page: 1, Y: 60},
		{Text: "delta", Page: 2, Y: 10},
		{Text: "4.3 Third", Page: 2, Y: 20},
		{Text: "epsilon", Page: 2, Y: 30},
	}

	topics := Segment(headings, blocks)
	if len(topics) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(topics))
	}

	want := []string{"alpha\nbeta", "gamma\ndelta", "epsilon"}
	for i, topic := range topics {
		if topic.Content != want[i] {
			t.Errorf("topic %d (%s): expected %q, got %q", i, topic.Number, want[i], topic.Content)
		}
	}
}

func TestSegment_SpansPartitionBlocks(t *testing.T) {
	headings := []Heading{
		{Number: "4.1", Text: "First", Page: 1, Y: 10},
		{Number: "4.2", Text: "Second", Page: 2, Y: 40},
	}
	blocks := []layout.Block{
		{Text: "pre", Page: 1, Y: 2},
		{Text: "a", Page: 1, Y: 15},
		{Text: "b", Page: 2, Y: 10},
		{Text: "c", Page: 2, Y: 50},
		{Text: "d", Page: 3, Y: 5},
	}

	topics := Segment(headings, blocks)

	// Every non-heading, non-preamble block appears in exactly one span.
	joined := ""
	for _, topic := range topics {
		joined += topic.Content + "\n"
	}
	for _, want := range []string{"a", "b", "c", "d"} {
		if count := strings.Count(joined, want); count != 1 {
			t.Errorf("block %q attributed %d times, want exactly once", want, count)
		}
	}
	if strings.Contains(joined, "pre") {
		t.Error("preamble before the first heading must be dropped")
	}
}

func TestSegment_DoubleDetectionYieldsEmptySpan(t *testing.T) {
	headings := []Heading{
		{Number: "4.1", Text: "First", Page: 1, Y: 10},
		{Number: "4.1", Text: "First", Page: 1, Y: 10.5},
		{Number: "4.2", Text: "Second", Page: 1, Y: 50},
	}
	blocks := []layout.Block{
		{Text: "content", Page: 1, Y: 30},
	}

	topics := Segment(headings, blocks)
	if len(topics) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(topics))
	}
	if topics[0].Content != "" {
		t.Errorf("first of a double detection should have empty span, got %q", topics[0].Content)
	}
	if topics[1].Content != "content" {
		t.Errorf("expected content attributed to later duplicate, got %q", topics[1].Content)
	}
}

func TestSegment_NoHeadings(t *testing.T) {
	topics := Segment(nil, []layout.Block{{Text: "x", Page: 1, Y: 1}})
	if len(topics) != 0 {
		t.Fatalf("expected no topics without headings, got %d", len(topics))
	}
}

func TestRun_StyledDocument(t *testing.T) {
	body := func(text string, y float64) layout.Line {
		return layout.Line{Text: text, Y: y, Spans: []layout.Span{{Text: text, Size: 10}}}
	}
	head := func(text string, y float64) layout.Line {
		return layout.Line{Text: text, Y: y, Spans: []layout.Span{{Text: text, Size: 14, Bold: true}}}
	}

	pages := []layout.Page{
		{Number: 1, Lines: []layout.Line{
			body("Chapter intro text.", 10),
			head("4.1 Ionic or Electrovalent Bond", 20),
			body("Ionic bonds form between metals and non-metals.", 30),
			body("4.1 is referenced in Figure captions too", 40),
		}},
		{Number: 2, Lines: []layout.Line{
			head("4.2 Bond Parameters Overview", 10),
			body("Bond length and bond angle.", 20),
		}},
	}

	topics := Run(context.Background(), pages, "4", DefaultConfig(), discardLog())
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d: %+v", len(topics), topics)
	}
	if topics[0].Number != "4.1" || topics[1].Number != "4.2" {
		t.Fatalf("unexpected topic order: %+v", topics)
	}
	if !strings.Contains(topics[0].Content, "metals and non-metals") {
		t.Errorf("topic 4.1 missing its content: %q", topics[0].Content)
	}
	if strings.Contains(topics[0].Content, "Chapter intro") {
		t.Errorf("preamble leaked into topic content: %q", topics[0].Content)
	}
	if !strings.Contains(topics[1].Content, "bond angle") {
		t.Errorf("topic 4.2 missing its content: %q", topics[1].Content)
	}
}

func TestRun_StyleRejectsBodySizedMatches(t *testing.T) {
	// A numbered match styled like body text (a figure caption) is rejected
	// on the styled path.
	lines := []layout.Line{
		{Text: "filler one", Y: 5, Spans: []layout.Span{{Text: "filler one", Size: 10}}},
		{Text: "filler two", Y: 8, Spans: []layout.Span{{Text: "filler two", Size: 10}}},
		{Text: "4.1 as shown in the figure", Y: 10, Spans: []layout.Span{{Text: "4.1 as shown", Size: 10}}},
		{Text: "4.2 Covalent Bond", Y: 20, Spans: []layout.Span{{Text: "4.2 Covalent Bond", Size: 14}}},
		{Text: "covalent content", Y: 30, Spans: []layout.Span{{Text: "covalent content", Size: 10}}},
	}
	pages := []layout.Page{{Number: 1, Lines: lines}}

	topics := Run(context.Background(), pages, "4", DefaultConfig(), discardLog())
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d: %+v", len(topics), topics)
	}
	if topics[0].Number != "4.2" {
		t.Errorf("expected 4.2 accepted, got %q", topics[0].Number)
	}
}

func TestRun_ZeroPages(t *testing.T) {
	topics := Run(context.Background(), nil, "4", DefaultConfig(), discardLog())
	if len(topics) != 0 {
		t.Fatalf("expected empty result for zero pages, got %d", len(topics))
	}
}

func TestRun_AllPagesTimeOut(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageTimeout = 0 // Deadline already expired: every page is skipped.

	pages := []layout.Page{
		plainPage(1, "4.1 Ionic or Electrovalent Bond", "content"),
		plainPage(2, "4.2 Bond Parameters Overview", "content"),
	}

	topics := Run(context.Background(), pages, "4", cfg, discardLog())
	if len(topics) != 0 {
		t.Fatalf("expected empty result when every page times out, got %d", len(topics))
	}
}

func TestRun_UnstyledFallsBackToBlacklist(t *testing.T) {
	pages := []layout.Page{
		plainPage(1,
			"4.1 Ionic or Electrovalent Bond",
			"ionic content line",
			"4.2 Table 3: Bond Lengths",
			"table rows",
			"4.3 Covalent Bond Formation",
			"covalent content line",
		),
	}

	topics := Run(context.Background(), pages, "4", DefaultConfig(), discardLog())
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics on blacklist path, got %d: %+v", len(topics), topics)
	}
	if topics[0].Number != "4.1" || topics[1].Number != "4.3" {
		t.Fatalf("unexpected topics: %+v", topics)
	}
	// The rejected caption and its rows land in the preceding span.
	if !strings.Contains(topics[0].Content, "table rows") {
		t.Errorf("rejected caption content should stay in enclosing span: %q", topics[0].Content)
	}
}
