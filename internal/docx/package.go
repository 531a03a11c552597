package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relsNamespace         = "http://schemas.openxmlformats.org/package/2006/relationships"

	contentTypesPart = "[Content_Types].xml"
	rootRelsPart     = "_rels/.rels"
	defaultMainPart  = "word/document.xml"

	xmlHeader = `version="1.0" encoding="UTF-8" standalone="yes"`
)

var (
	// ErrNotDocx is returned when the input is not a word-processing package.
	ErrNotDocx = errors.New("not a docx package")
	// ErrPartNotFound is returned when a referenced package part is missing.
	ErrPartNotFound = errors.New("package part not found")
)

// pkg is the in-memory OPC container: raw entries in archive order plus the
// XML parts that have been parsed (and may have been edited).
type pkg struct {
	order   []string
	raw     map[string][]byte
	parsed  map[string]*etree.Document
	nextDoc int
}

func readPackage(r io.ReaderAt, size int64) (*pkg, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	p := &pkg{
		raw:     make(map[string][]byte, len(zr.File)),
		parsed:  make(map[string]*etree.Document),
		nextDoc: 1000,
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open package entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read package entry %s: %w", f.Name, err)
		}
		p.order = append(p.order, f.Name)
		p.raw[f.Name] = data
	}

	if !p.has(contentTypesPart) {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, contentTypesPart)
	}
	return p, nil
}

func (p *pkg) has(name string) bool {
	_, ok := p.raw[name]
	return ok
}

// put stores a raw (binary) entry, appending it to the archive order when new.
func (p *pkg) put(name string, data []byte) {
	if !p.has(name) {
		p.order = append(p.order, name)
	}
	p.raw[name] = data
	delete(p.parsed, name)
}

// xml returns the parsed XML part, parsing it on first use.
func (p *pkg) xml(name string) (*etree.Document, error) {
	if doc, ok := p.parsed[name]; ok {
		return doc, nil
	}
	data, ok := p.raw[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse %s: empty document", name)
	}
	p.parsed[name] = doc
	return doc, nil
}

// newXML registers a fresh XML part with the given root element.
func (p *pkg) newXML(name, root string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlHeader)
	doc.CreateElement(root)
	if !p.has(name) {
		p.order = append(p.order, name)
	}
	p.raw[name] = nil
	p.parsed[name] = doc
	return doc
}

func (p *pkg) mainPart() (string, error) {
	if !p.has(rootRelsPart) {
		if p.has(defaultMainPart) {
			return defaultMainPart, nil
		}
		return "", fmt.Errorf("%w: missing %s", ErrNotDocx, rootRelsPart)
	}
	rels, err := p.xml(rootRelsPart)
	if err != nil {
		return "", err
	}
	for _, rel := range rels.Root().SelectElements("Relationship") {
		if rel.SelectAttrValue("Type", "") == relTypeOfficeDocument {
			name := resolveTarget("", rel.SelectAttrValue("Target", ""))
			if !p.has(name) {
				return "", fmt.Errorf("%w: main part %s", ErrNotDocx, name)
			}
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: no office document relationship", ErrNotDocx)
}

// relsName maps word/header1.xml to word/_rels/header1.xml.rels.
func relsName(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget resolves a relationship target against the source part.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(source), target)
}

// relTarget returns the part a relationship ID of source points at.
func (p *pkg) relTarget(source, id string) (string, error) {
	rels, err := p.xml(relsName(source))
	if err != nil {
		return "", err
	}
	for _, rel := range rels.Root().SelectElements("Relationship") {
		if rel.SelectAttrValue("Id", "") == id {
			return resolveTarget(source, rel.SelectAttrValue("Target", "")), nil
		}
	}
	return "", fmt.Errorf("%w: relationship %s of %s", ErrPartNotFound, id, source)
}

// addRel adds a relationship from source and returns its new ID.
func (p *pkg) addRel(source, relType, target string) (string, error) {
	name := relsName(source)
	var rels *etree.Document
	if p.has(name) {
		var err error
		if rels, err = p.xml(name); err != nil {
			return "", err
		}
	} else {
		rels = p.newXML(name, "Relationships")
		rels.Root().CreateAttr("xmlns", relsNamespace)
	}

	used := make(map[string]bool)
	for _, rel := range rels.Root().SelectElements("Relationship") {
		used[rel.SelectAttrValue("Id", "")] = true
	}
	id := ""
	for n := 1; ; n++ {
		id = "rId" + strconv.Itoa(n)
		if !used[id] {
			break
		}
	}

	rel := rels.Root().CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", target)
	return id, nil
}

// ensureDefault registers a content type for a file extension.
func (p *pkg) ensureDefault(ext, contentType string) error {
	ct, err := p.xml(contentTypesPart)
	if err != nil {
		return err
	}
	for _, d := range ct.Root().SelectElements("Default") {
		if strings.EqualFold(d.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}
	d := ct.Root().CreateElement("Default")
	d.CreateAttr("Extension", ext)
	d.CreateAttr("ContentType", contentType)
	return nil
}

// nextMedia returns an unused word/media/imageN.ext name.
func (p *pkg) nextMedia(ext string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("word/media/image%d.%s", n, ext)
		if !p.has(name) {
			return name
		}
	}
}

func (p *pkg) nextDrawingID() int {
	p.nextDoc++
	return p.nextDoc
}

// media lists the names of all entries under word/media.
func (p *pkg) media() []string {
	var out []string
	for _, name := range p.order {
		if strings.HasPrefix(name, "word/media/") {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (p *pkg) write(w io.Writer) error {
	zw := zip.NewWriter(w)
	now := time.Now()

	for _, name := range p.order {
		data := p.raw[name]
		if doc, ok := p.parsed[name]; ok {
			var err error
			if data, err = doc.WriteToBytes(); err != nil {
				return fmt.Errorf("failed to serialize %s: %w", name, err)
			}
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to create package entry %s: %w", name, err)
		}
		if _, err := io.Copy(fw, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write package entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize package: %w", err)
	}
	return nil
}
