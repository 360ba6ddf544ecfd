package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/studyforge/syllabd/internal/layout"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It reads positioned, styled text runs from the
// Go library; if a page exposes no usable runs it falls back to the page's
// plain text, and if the whole document is unreadable it can shell out to
// pdftotext.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) ([]layout.Page, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "syllabd-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		if err == nil {
			pages = pagesFromText(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return pages, nil
}

func extractPDFPages(path string) ([]layout.Page, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []layout.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		lp := styledPage(page, i)
		if len(lp.Lines) == 0 {
			// Some producers emit no positioned runs; take plain text.
			text, err := page.GetPlainText(nil)
			if err != nil || strings.TrimSpace(text) == "" {
				continue
			}
			lp = pageFromLines(i, strings.Split(text, "\n"))
		}
		pages = append(pages, lp)
	}
	return pages, nil
}

// styledPage groups a page's positioned text runs into lines with spans.
// PDF user space has Y growing upward; line positions are flipped so Y grows
// down the page, matching reading order.
func styledPage(page pdflib.Page, num int) layout.Page {
	content := page.Content()
	if len(content.Text) == 0 {
		return layout.Page{Number: num}
	}

	// Bucket runs into lines by their baseline Y.
	byY := make(map[float64][]pdflib.Text)
	topY := math.Inf(-1)
	for _, t := range content.Text {
		y := math.Round(t.Y*2) / 2
		byY[y] = append(byY[y], t)
		if y > topY {
			topY = y
		}
	}

	ys := make([]float64, 0, len(byY))
	for y := range byY {
		ys = append(ys, y)
	}
	// Descending raw Y = top of page first.
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	lp := layout.Page{Number: num}
	for _, y := range ys {
		runs := byY[y]
		sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

		line := layout.Line{Y: topY - y}
		var text strings.Builder
		var cur *layout.Span
		for _, run := range runs {
			text.WriteString(run.S)
			size := math.Round(run.FontSize)
			bold := strings.Contains(strings.ToLower(run.Font), "bold")
			if cur != nil && cur.Size == size && cur.Bold == bold {
				cur.Text += run.S
				continue
			}
			line.Spans = append(line.Spans, layout.Span{
				Text: run.S,
				Size: size,
				Bold: bold,
				X:    run.X,
				Y:    topY - y,
			})
			cur = &line.Spans[len(line.Spans)-1]
		}
		line.Text = strings.TrimSpace(text.String())
		if line.Text == "" {
			continue
		}
		lp.Lines = append(lp.Lines, line)
	}
	return lp
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
