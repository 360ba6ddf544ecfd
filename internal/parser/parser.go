package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/studyforge/syllabd/internal/layout"
)

// Parser converts raw document bytes into laid-out pages. Digital PDFs carry
// per-span style and position metadata; every other format produces plain
// lines with synthetic positions and takes the no-style path through the
// segmenter.
type Parser interface {
	Parse(r io.Reader, filename string) ([]layout.Page, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// lineHeight is the synthetic vertical step for sources without real
// positions; positions only need to preserve reading order.
const lineHeight = 12.0

// pageFromLines builds an unstyled page from plain text lines, skipping
// blanks. Line positions follow source order.
func pageFromLines(num int, lines []string) layout.Page {
	p := layout.Page{Number: num}
	for i, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			continue
		}
		p.Lines = append(p.Lines, layout.Line{Text: l, Y: float64(i+1) * lineHeight})
	}
	return p
}

// pagesFromText splits plain text on form feeds into unstyled pages.
func pagesFromText(text string) []layout.Page {
	var pages []layout.Page
	for i, chunk := range strings.Split(text, "\f") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		pages = append(pages, pageFromLines(i+1, strings.Split(chunk, "\n")))
	}
	return pages
}
