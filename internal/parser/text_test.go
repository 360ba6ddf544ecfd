package parser

import (
	"strings"
	"testing"
)

func TestTextParser_LinesInOrder(t *testing.T) {
	input := "4.1 Ionic Bond\nionic content\n\n4.2 Covalent Bond\ncovalent content\n"
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader(input), "chapter.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	want := []string{"4.1 Ionic Bond", "ionic content", "4.2 Covalent Bond", "covalent content"}
	if len(pages[0].Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(pages[0].Lines))
	}
	for i, w := range want {
		if pages[0].Lines[i].Text != w {
			t.Errorf("line %d: expected %q, got %q", i, w, pages[0].Lines[i].Text)
		}
	}

	// Positions must strictly increase down the page.
	for i := 1; i < len(pages[0].Lines); i++ {
		if pages[0].Lines[i].Y <= pages[0].Lines[i-1].Y {
			t.Errorf("line %d position %v not after line %d position %v",
				i, pages[0].Lines[i].Y, i-1, pages[0].Lines[i-1].Y)
		}
	}
}

func TestTextParser_FormFeedPages(t *testing.T) {
	input := "page one text\fpage two text"
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader(input), "ocr.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("unexpected page numbers: %d, %d", pages[0].Number, pages[1].Number)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(pages))
	}
}

func TestTextParser_Unstyled(t *testing.T) {
	p := &TextParser{}
	pages, err := p.Parse(strings.NewReader("hello"), "x.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pages[0].Styled() {
		t.Error("plain text pages must carry no style metadata")
	}
}

func TestForFile(t *testing.T) {
	if _, err := ForFile("chapter.pdf"); err != nil {
		t.Errorf("pdf should be supported: %v", err)
	}
	if _, err := ForFile("notes.MD"); err != nil {
		t.Errorf("extension match should be case-insensitive: %v", err)
	}
	if _, err := ForFile("archive.zip"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("a.docx") {
		t.Error("docx should be supported")
	}
	if IsSupportedExtension("a.exe") {
		t.Error("exe should not be supported")
	}
}
