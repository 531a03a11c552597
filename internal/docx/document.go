// Package docx edits word-processing packages in memory: paragraph text of
// the body, headers and footers, and inline pictures.
package docx

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
)

// Document is an in-memory copy of a .docx package. Edits never touch the
// file it was read from.
type Document struct {
	pkg      *pkg
	main     *Part
	body     *etree.Element
	sections []*Section
}

// Part is one XML story of the document (main body, a header or a footer).
type Part struct {
	Name string
	doc  *etree.Document
	pkg  *pkg
}

// Section carries the default header and footer in effect for a section.
// Either may be nil when neither the section nor any earlier one defines it.
type Section struct {
	Index  int
	Header *Part
	Footer *Part
}

// Open reads the package at path into memory.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

// Read loads a package from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	p, err := readPackage(r, size)
	if err != nil {
		return nil, err
	}

	mainName, err := p.mainPart()
	if err != nil {
		return nil, err
	}
	mainDoc, err := p.xml(mainName)
	if err != nil {
		return nil, err
	}
	body := mainDoc.Root().SelectElement("w:body")
	if body == nil {
		return nil, fmt.Errorf("%w: %s has no w:body", ErrNotDocx, mainName)
	}

	d := &Document{
		pkg:  p,
		main: &Part{Name: mainName, doc: mainDoc, pkg: p},
		body: body,
	}
	if err := d.loadSections(); err != nil {
		return nil, err
	}
	return d, nil
}

// loadSections walks section properties in document order. A section with no
// default header or footer reference inherits the previous one.
func (d *Document) loadSections() error {
	var props []*etree.Element
	for _, child := range d.body.ChildElements() {
		switch child.FullTag() {
		case "w:p":
			if pPr := child.SelectElement("w:pPr"); pPr != nil {
				if sp := pPr.SelectElement("w:sectPr"); sp != nil {
					props = append(props, sp)
				}
			}
		case "w:sectPr":
			props = append(props, child)
		}
	}

	parts := make(map[string]*Part)
	var header, footer *Part
	for i, sp := range props {
		h, err := d.storyRef(sp, "w:headerReference", parts)
		if err != nil {
			return err
		}
		if h != nil {
			header = h
		}
		f, err := d.storyRef(sp, "w:footerReference", parts)
		if err != nil {
			return err
		}
		if f != nil {
			footer = f
		}
		d.sections = append(d.sections, &Section{Index: i, Header: header, Footer: footer})
	}
	return nil
}

func (d *Document) storyRef(sectPr *etree.Element, tag string, parts map[string]*Part) (*Part, error) {
	for _, ref := range sectPr.SelectElements(tag) {
		if t := ref.SelectAttrValue("w:type", "default"); t != "default" {
			continue
		}
		name, err := d.pkg.relTarget(d.main.Name, ref.SelectAttrValue("r:id", ""))
		if err != nil {
			return nil, err
		}
		if part, ok := parts[name]; ok {
			return part, nil
		}
		doc, err := d.pkg.xml(name)
		if err != nil {
			return nil, err
		}
		part := &Part{Name: name, doc: doc, pkg: d.pkg}
		parts[name] = part
		return part, nil
	}
	return nil, nil
}

// Paragraphs returns the paragraphs directly under the document body.
func (d *Document) Paragraphs() []*Paragraph {
	return paragraphsOf(d.body, d.main)
}

// Sections returns the sections in document order.
func (d *Document) Sections() []*Section {
	return d.sections
}

// Headers returns the distinct default headers in section order.
func (d *Document) Headers() []*Part {
	return distinct(d.sections, func(s *Section) *Part { return s.Header })
}

// Footers returns the distinct default footers in section order.
func (d *Document) Footers() []*Part {
	return distinct(d.sections, func(s *Section) *Part { return s.Footer })
}

// Media returns the names of embedded media parts.
func (d *Document) Media() []string {
	return d.pkg.media()
}

// Save writes the whole package to w.
func (d *Document) Save(w io.Writer) error {
	return d.pkg.write(w)
}

// SaveFile writes the package to path, replacing any existing file.
func (d *Document) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Paragraphs returns the paragraphs directly under the part's root.
func (p *Part) Paragraphs() []*Paragraph {
	return paragraphsOf(p.doc.Root(), p)
}

func paragraphsOf(parent *etree.Element, part *Part) []*Paragraph {
	var out []*Paragraph
	for _, el := range parent.SelectElements("w:p") {
		out = append(out, &Paragraph{el: el, part: part})
	}
	return out
}

func distinct(sections []*Section, pick func(*Section) *Part) []*Part {
	seen := make(map[*Part]bool)
	var out []*Part
	for _, s := range sections {
		if p := pick(s); p != nil && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
