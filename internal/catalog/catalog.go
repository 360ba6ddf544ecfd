// Package catalog maps textbook PDF filenames to their syllabus position.
// Chapter numbers cannot be inferred reliably from the files themselves, so
// they ship as configuration: a CSV registry loaded at startup and injected
// into the ingest path.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry locates one chapter file in the syllabus.
type Entry struct {
	Filename      string
	Subject       string
	ClassNumber   string
	ChapterNumber string
	ChapterName   string
}

// Catalog is a filename-keyed chapter registry.
type Catalog struct {
	byFile map[string]Entry
}

// Load reads a catalog CSV with columns
// filename,subject,class_number,chapter_number,chapter_name.
// A header row is detected and skipped.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse catalog csv: %w", err)
	}

	c := &Catalog{byFile: make(map[string]Entry, len(records))}
	for i, row := range records {
		if len(row) < 5 {
			return nil, fmt.Errorf("catalog row %d: expected 5 columns, got %d", i+1, len(row))
		}
		if i == 0 && strings.EqualFold(row[0], "filename") {
			continue
		}
		e := Entry{
			Filename:      strings.TrimSpace(row[0]),
			Subject:       strings.TrimSpace(row[1]),
			ClassNumber:   strings.TrimSpace(row[2]),
			ChapterNumber: strings.TrimSpace(row[3]),
			ChapterName:   strings.TrimSpace(row[4]),
		}
		if e.Filename == "" || e.ChapterNumber == "" {
			return nil, fmt.Errorf("catalog row %d: filename and chapter_number are required", i+1)
		}
		c.byFile[strings.ToLower(e.Filename)] = e
	}
	return c, nil
}

// LoadFile loads a catalog from disk. A missing path yields an empty catalog,
// not an error: the registry is optional when callers pass chapter metadata
// explicitly.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return &Catalog{byFile: map[string]Entry{}}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{byFile: map[string]Entry{}}, nil
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Lookup finds the entry for a filename, case-insensitively.
func (c *Catalog) Lookup(filename string) (Entry, bool) {
	e, ok := c.byFile[strings.ToLower(filename)]
	return e, ok
}

// Len returns the number of registered files.
func (c *Catalog) Len() int {
	return len(c.byFile)
}
