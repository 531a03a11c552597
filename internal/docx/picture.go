package docx

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch = 914400

const (
	nsWordprocessingDrawing = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsDrawingML             = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPicture               = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsRelationships         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

var pictureContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
}

// Picture is encoded image data plus its display extent.
type Picture struct {
	Data []byte
	// Format is the file extension of Data: "png", "jpeg" or "gif".
	Format    string
	WidthEMU  int64
	HeightEMU int64
	// Name is used as the drawing's description; optional.
	Name string
}

// Validate reports whether pic can be embedded.
func (pic Picture) Validate() error {
	if _, ok := pictureContentTypes[strings.ToLower(pic.Format)]; !ok {
		return fmt.Errorf("unsupported picture format: %q", pic.Format)
	}
	if len(pic.Data) == 0 || pic.WidthEMU <= 0 || pic.HeightEMU <= 0 {
		return fmt.Errorf("invalid picture %q: empty data or extent", pic.Name)
	}
	return nil
}

// AddPicture appends a run holding pic as an inline drawing. The media part,
// its relationship and its content type are added to the package.
func (p *Paragraph) AddPicture(pic Picture) error {
	if err := pic.Validate(); err != nil {
		return err
	}
	format := strings.ToLower(pic.Format)
	ct := pictureContentTypes[format]

	pk := p.part.pkg
	media := pk.nextMedia(format)
	pk.put(media, pic.Data)
	if err := pk.ensureDefault(format, ct); err != nil {
		return err
	}
	rID, err := pk.addRel(p.part.Name, relTypeImage, relativeTarget(p.part.Name, media))
	if err != nil {
		return err
	}

	root := p.part.doc.Root()
	ensureNamespace(root, "wp", nsWordprocessingDrawing)
	ensureNamespace(root, "r", nsRelationships)

	id := strconv.Itoa(pk.nextDrawingID())
	name := pic.Name
	if name == "" {
		name = path.Base(media)
	}
	cx := strconv.FormatInt(pic.WidthEMU, 10)
	cy := strconv.FormatInt(pic.HeightEMU, 10)

	run := p.el.CreateElement("w:r")
	inline := run.CreateElement("w:drawing").CreateElement("wp:inline")
	attrs(inline, "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	attrs(inline.CreateElement("wp:extent"), "cx", cx, "cy", cy)
	attrs(inline.CreateElement("wp:docPr"), "id", id, "name", "Picture "+id, "descr", name)

	locks := inline.CreateElement("wp:cNvGraphicFramePr").CreateElement("a:graphicFrameLocks")
	attrs(locks, "xmlns:a", nsDrawingML, "noChangeAspect", "1")

	graphic := inline.CreateElement("a:graphic")
	graphic.CreateAttr("xmlns:a", nsDrawingML)
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", nsPicture)

	pc := data.CreateElement("pic:pic")
	pc.CreateAttr("xmlns:pic", nsPicture)
	nv := pc.CreateElement("pic:nvPicPr")
	attrs(nv.CreateElement("pic:cNvPr"), "id", "0", "name", name)
	nv.CreateElement("pic:cNvPicPr")

	fill := pc.CreateElement("pic:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", rID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	sp := pc.CreateElement("pic:spPr")
	xfrm := sp.CreateElement("a:xfrm")
	attrs(xfrm.CreateElement("a:off"), "x", "0", "y", "0")
	attrs(xfrm.CreateElement("a:ext"), "cx", cx, "cy", cy)
	geom := sp.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	return nil
}

// ReplaceWithPicture clears the paragraph and adds pic. On error the
// paragraph keeps its previous content.
func (p *Paragraph) ReplaceWithPicture(pic Picture) error {
	if err := pic.Validate(); err != nil {
		return err
	}
	saved := append([]etree.Token(nil), p.el.Child...)
	p.Clear()
	if err := p.AddPicture(pic); err != nil {
		for _, tok := range append([]etree.Token(nil), p.el.Child...) {
			p.el.RemoveChild(tok)
		}
		for _, tok := range saved {
			p.el.AddChild(tok)
		}
		return err
	}
	return nil
}

func attrs(el *etree.Element, kv ...string) {
	for i := 0; i+1 < len(kv); i += 2 {
		el.CreateAttr(kv[i], kv[i+1])
	}
}

func ensureNamespace(root *etree.Element, prefix, uri string) {
	key := "xmlns:" + prefix
	if root.SelectAttr(key) == nil {
		root.CreateAttr(key, uri)
	}
}

// relativeTarget expresses target relative to the directory of source, the
// form Word writes in part relationships.
func relativeTarget(source, target string) string {
	dir := path.Dir(source) + "/"
	if !strings.HasPrefix(target, dir) {
		return "/" + target
	}
	return strings.TrimPrefix(target, dir)
}
