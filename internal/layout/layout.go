package layout

// Span is a styled run of text within a line. Size and Bold come from the
// PDF font metadata; both are zero-valued for sources without style
// information (plain text, OCR output).
type Span struct {
	Text string
	Size float64 // Font size in points, rounded by the producer.
	Bold bool
	X    float64
	Y    float64
}

// Line is a single line of text with its vertical position on the page.
// Spans is nil for unstyled sources.
type Line struct {
	Text  string
	Y     float64
	Spans []Span
}

// Block is a positioned block of body text, the unit of content attribution.
type Block struct {
	Text string
	Page int
	Y    float64
}

// Page holds the laid-out text of one page. Lines are in reading order
// (top to bottom); Y grows downward.
type Page struct {
	Number int
	Lines  []Line
}

// Style is a (font size, bold) pair. The modal style over a document's
// first pages approximates its body text style.
type Style struct {
	Size float64
	Bold bool
}

// Blocks flattens a page's lines into positioned blocks.
func (p Page) Blocks() []Block {
	blocks := make([]Block, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.Text == "" {
			continue
		}
		blocks = append(blocks, Block{Text: l.Text, Page: p.Number, Y: l.Y})
	}
	return blocks
}

// Styled reports whether any line on the page carries font metadata.
func (p Page) Styled() bool {
	for _, l := range p.Lines {
		if len(l.Spans) > 0 {
			return true
		}
	}
	return false
}
