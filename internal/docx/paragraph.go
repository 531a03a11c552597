package docx

import (
	"strings"

	"github.com/beevik/etree"
)

// Paragraph is a w:p element of some part.
type Paragraph struct {
	el   *etree.Element
	part *Part
}

// Text returns the paragraph's full text across runs, with tabs as "\t" and
// line breaks as "\n". Deleted revisions and drawings contribute nothing.
func (p *Paragraph) Text() string {
	var b strings.Builder
	collectText(p.el, &b)
	return b.String()
}

func collectText(el *etree.Element, b *strings.Builder) {
	for _, child := range el.ChildElements() {
		switch child.FullTag() {
		case "w:t":
			b.WriteString(child.Text())
		case "w:tab":
			b.WriteByte('\t')
		case "w:br", "w:cr":
			b.WriteByte('\n')
		case "w:pPr", "w:rPr", "w:del", "w:drawing", "w:pict", "w:instrText", "mc:AlternateContent":
		default:
			collectText(child, b)
		}
	}
}

// Contains reports whether token occurs in the paragraph text.
func (p *Paragraph) Contains(token string) bool {
	return strings.Contains(p.Text(), token)
}

// Replace substitutes every occurrence of old in the merged paragraph text and
// rewrites the paragraph as a single run. It returns the number of
// occurrences; zero leaves the paragraph untouched.
func (p *Paragraph) Replace(old, new string) int {
	text := p.Text()
	n := strings.Count(text, old)
	if n == 0 {
		return 0
	}
	p.SetText(strings.ReplaceAll(text, old, new))
	return n
}

// SetText replaces the paragraph content with one run holding text. Paragraph
// properties are kept and the run takes the properties of the first existing
// run.
func (p *Paragraph) SetText(text string) {
	var rPr *etree.Element
	if first := p.el.FindElement(".//w:r"); first != nil {
		if props := first.SelectElement("w:rPr"); props != nil {
			rPr = props.Copy()
		}
	}

	p.Clear()
	run := p.el.CreateElement("w:r")
	if rPr != nil {
		run.AddChild(rPr)
	}
	appendText(run, text)
}

// Clear removes all content except the paragraph properties.
func (p *Paragraph) Clear() {
	children := append([]etree.Token(nil), p.el.Child...)
	for _, tok := range children {
		if el, ok := tok.(*etree.Element); ok && el.FullTag() == "w:pPr" {
			continue
		}
		p.el.RemoveChild(tok)
	}
}

// HasPicture reports whether the paragraph holds an inline drawing.
func (p *Paragraph) HasPicture() bool {
	return p.el.FindElement(".//w:drawing") != nil
}

// appendText writes text into run, mapping tabs and line breaks to their
// run-level elements.
func appendText(run *etree.Element, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var seg strings.Builder
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		t := run.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(seg.String())
		seg.Reset()
	}

	for _, r := range text {
		switch r {
		case '\t':
			flush()
			run.CreateElement("w:tab")
		case '\n', '\r':
			flush()
			run.CreateElement("w:br")
		default:
			seg.WriteRune(r)
		}
	}
	flush()
}
