package parser

import (
	"bufio"
	"io"

	"github.com/studyforge/syllabd/internal/layout"
)

// TextParser handles plain text files, including OCR dumps where form feeds
// separate the original pages.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]layout.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var all []byte
	for scanner.Scan() {
		all = append(all, scanner.Bytes()...)
		all = append(all, '\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pagesFromText(string(all)), nil
}
