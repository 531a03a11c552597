// Package docxtest writes small .docx templates and images for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

// Section describes one document section. A nil Header or Footer means the
// section has no reference of its own and inherits the previous one.
// Paragraph strings containing "|" are split into separate runs; the first
// run is bold.
type Section struct {
	Body   []string
	Header []string
	Footer []string
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

// WriteTemplate writes a template with the given sections to dir/name and
// returns its path.
func WriteTemplate(t testing.TB, dir, name string, sections ...Section) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	defer f.Close()

	if err := Build(f, sections...); err != nil {
		t.Fatalf("build template: %v", err)
	}
	return path
}

// Build writes the package to w.
func Build(w io.Writer, sections ...Section) error {
	zw := zip.NewWriter(w)

	var (
		body    strings.Builder
		docRels strings.Builder
		types   strings.Builder
		stories = map[string]string{}
	)
	rel := 0

	for i, s := range sections {
		for _, p := range s.Body {
			body.WriteString(paragraph(p))
		}

		var refs strings.Builder
		if s.Header != nil {
			rel++
			name := fmt.Sprintf("header%d.xml", i+1)
			stories[name] = story("w:hdr", s.Header)
			fmt.Fprintf(&docRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="%s"/>`, rel, name)
			fmt.Fprintf(&types, `<Override PartName="/word/%s" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"/>`, name)
			fmt.Fprintf(&refs, `<w:headerReference w:type="default" r:id="rId%d"/>`, rel)
		}
		if s.Footer != nil {
			rel++
			name := fmt.Sprintf("footer%d.xml", i+1)
			stories[name] = story("w:ftr", s.Footer)
			fmt.Fprintf(&docRels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="%s"/>`, rel, name)
			fmt.Fprintf(&types, `<Override PartName="/word/%s" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>`, name)
			fmt.Fprintf(&refs, `<w:footerReference w:type="default" r:id="rId%d"/>`, rel)
		}

		sectPr := `<w:sectPr>` + refs.String() + `<w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`
		if i < len(sections)-1 {
			body.WriteString(`<w:p><w:pPr>` + sectPr + `</w:pPr></w:p>`)
		} else {
			body.WriteString(sectPr)
		}
	}

	entries := []struct{ name, data string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			types.String() + `</Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<w:document ` + wordNS + `><w:body>` + body.String() + `</w:body></w:document>`},
		{"word/_rels/document.xml.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			docRels.String() + `</Relationships>`},
	}
	for i := range sections {
		for _, name := range []string{fmt.Sprintf("header%d.xml", i+1), fmt.Sprintf("footer%d.xml", i+1)} {
			if data, ok := stories[name]; ok {
				entries = append(entries, struct{ name, data string }{"word/" + name, data})
			}
		}
	}

	for _, e := range entries {
		fw, err := zw.Create(e.name)
		if err != nil {
			return err
		}
		if _, err := fw.Write([]byte(e.data)); err != nil {
			return err
		}
	}
	return zw.Close()
}

func story(root string, paragraphs []string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString("<" + root + " " + wordNS + ">")
	for _, p := range paragraphs {
		b.WriteString(paragraph(p))
	}
	b.WriteString("</" + root + ">")
	return b.String()
}

func paragraph(text string) string {
	var b strings.Builder
	b.WriteString(`<w:p><w:pPr><w:jc w:val="left"/></w:pPr>`)
	for i, run := range strings.Split(text, "|") {
		b.WriteString("<w:r>")
		if i == 0 {
			b.WriteString("<w:rPr><w:b/></w:rPr>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(&b, []byte(run))
		b.WriteString("</w:t></w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

// WriteImage writes a solid w×h image to dir/name, encoded by extension.
func WriteImage(t testing.TB, dir, name string, w, h int) string {
	t.Helper()

	img := imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save image: %v", err)
	}
	return path
}

// PNG returns an encoded w×h PNG.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var img image.Image = imaging.New(w, h, color.NRGBA{B: 255, A: 255})
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
