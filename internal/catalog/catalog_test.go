package catalog

import (
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	input := `filename,subject,class_number,chapter_number,chapter_name
Chemical Bonding And Molecular Structure.pdf,Chemistry,Class 11,4,Chemical Bonding And Molecular Structure
Equilibrium.pdf,Chemistry,Class 11,7,Equilibrium
`
	c, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	e, ok := c.Lookup("chemical bonding and molecular structure.pdf")
	if !ok {
		t.Fatal("lookup should be case-insensitive")
	}
	if e.ChapterNumber != "4" || e.Subject != "Chemistry" {
		t.Errorf("unexpected entry: %+v", e)
	}

	if _, ok := c.Lookup("Unknown.pdf"); ok {
		t.Error("unknown filename should miss")
	}
}

func TestLoad_MissingColumns(t *testing.T) {
	if _, err := Load(strings.NewReader("a.pdf,Chemistry,Class 11\n")); err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestLoad_MissingChapterNumber(t *testing.T) {
	if _, err := Load(strings.NewReader("a.pdf,Chemistry,Class 11,,Name\n")); err == nil {
		t.Fatal("expected error for empty chapter number")
	}
}

func TestLoadFile_MissingPathIsEmpty(t *testing.T) {
	c, err := LoadFile("/nonexistent/catalog.csv")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty catalog, got %d entries", c.Len())
	}
}
