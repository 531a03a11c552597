package docx_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/minutes-generator/internal/docx"
	"github.com/feichai0017/minutes-generator/internal/docx/docxtest"
)

func texts(ps []*docx.Paragraph) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Text())
	}
	return out
}

func TestOpenReadsBodyHeaderFooter(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{
		Body:   []string{"Minutes of [COMPANY_NAME]", "Held on |[DATE]| at [TIME]"},
		Header: []string{"[LOGO]"},
		Footer: []string{"[COMPANY_ADDRESS]"},
	})

	doc, err := docx.Open(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Minutes of [COMPANY_NAME]", "Held on [DATE] at [TIME]"}, texts(doc.Paragraphs()))
	require.Len(t, doc.Sections(), 1)
	assert.Equal(t, []string{"[LOGO]"}, texts(doc.Sections()[0].Header.Paragraphs()))
	assert.Equal(t, []string{"[COMPANY_ADDRESS]"}, texts(doc.Sections()[0].Footer.Paragraphs()))
}

func TestSectionsInheritPreviousHeader(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx",
		docxtest.Section{Body: []string{"one"}, Header: []string{"first header"}, Footer: []string{"first footer"}},
		docxtest.Section{Body: []string{"two"}},
		docxtest.Section{Body: []string{"three"}, Header: []string{"third header"}},
	)

	doc, err := docx.Open(path)
	require.NoError(t, err)

	sections := doc.Sections()
	require.Len(t, sections, 3)
	assert.Same(t, sections[0].Header, sections[1].Header)
	assert.NotSame(t, sections[1].Header, sections[2].Header)
	assert.Same(t, sections[0].Footer, sections[2].Footer)

	assert.Len(t, doc.Headers(), 2)
	assert.Len(t, doc.Footers(), 1)
}

func TestSectionWithoutAnyHeader(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{Body: []string{"body"}})

	doc, err := docx.Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Sections(), 1)
	assert.Nil(t, doc.Sections()[0].Header)
	assert.Empty(t, doc.Headers())
}

func TestReplaceMergesRuns(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{
		Body: []string{"Company: |[COMPANY_NAME]|, again [COMPANY_NAME]", "untouched |text"},
	})
	doc, err := docx.Open(path)
	require.NoError(t, err)

	ps := doc.Paragraphs()
	assert.Equal(t, 2, ps[0].Replace("[COMPANY_NAME]", "6AMG"))
	assert.Equal(t, 0, ps[1].Replace("[COMPANY_NAME]", "6AMG"))
	assert.Equal(t, "Company: 6AMG, again 6AMG", ps[0].Text())
	assert.Equal(t, "untouched text", ps[1].Text())

	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	reread, err := docx.Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, []string{"Company: 6AMG, again 6AMG", "untouched text"}, texts(reread.Paragraphs()))
}

func TestSetTextMapsTabsAndBreaks(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{Body: []string{"x"}})
	doc, err := docx.Open(path)
	require.NoError(t, err)

	p := doc.Paragraphs()[0]
	p.SetText("line one\nline\ttwo\r\nthree")
	assert.Equal(t, "line one\nline\ttwo\nthree", p.Text())
}

func TestClearKeepsParagraph(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{Body: []string{"a|b|c"}})
	doc, err := docx.Open(path)
	require.NoError(t, err)

	p := doc.Paragraphs()[0]
	p.Clear()
	assert.Equal(t, "", p.Text())
	assert.Len(t, doc.Paragraphs(), 1)
}

func TestAddPictureEmbedsMedia(t *testing.T) {
	dir := t.TempDir()
	path := docxtest.WriteTemplate(t, dir, "t.docx", docxtest.Section{
		Body:   []string{"body"},
		Header: []string{"[LOGO]"},
	})
	doc, err := docx.Open(path)
	require.NoError(t, err)

	hp := doc.Headers()[0].Paragraphs()[0]
	hp.Clear()
	require.NoError(t, hp.AddPicture(docx.Picture{
		Data:      docxtest.PNG(t, 4, 2),
		Format:    "png",
		WidthEMU:  docx.EMUPerInch,
		HeightEMU: docx.EMUPerInch / 2,
	}))
	assert.True(t, hp.HasPicture())
	assert.Equal(t, "", hp.Text())

	out := filepath.Join(dir, "out.docx")
	require.NoError(t, doc.SaveFile(out))

	reread, err := docx.Open(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"word/media/image1.png"}, reread.Media())
	assert.True(t, reread.Headers()[0].Paragraphs()[0].HasPicture())
}

func TestAddPictureRejectsUnknownFormat(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{Header: []string{"h"}})
	doc, err := docx.Open(path)
	require.NoError(t, err)

	err = doc.Headers()[0].Paragraphs()[0].AddPicture(docx.Picture{Data: []byte{1}, Format: "bmp", WidthEMU: 1, HeightEMU: 1})
	assert.Error(t, err)
}

func TestReplaceWithPicture(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{Header: []string{"[LO|GO]"}})
	doc, err := docx.Open(path)
	require.NoError(t, err)
	hp := doc.Headers()[0].Paragraphs()[0]

	err = hp.ReplaceWithPicture(docx.Picture{Data: []byte{1}, Format: "tiff", WidthEMU: 1, HeightEMU: 1})
	require.Error(t, err)
	assert.Equal(t, "[LOGO]", hp.Text())
	assert.False(t, hp.HasPicture())
	assert.Empty(t, doc.Media())

	require.NoError(t, hp.ReplaceWithPicture(docx.Picture{
		Data:      docxtest.PNG(t, 2, 2),
		Format:    "png",
		WidthEMU:  docx.EMUPerInch,
		HeightEMU: docx.EMUPerInch,
	}))
	assert.Equal(t, "", hp.Text())
	assert.True(t, hp.HasPicture())
}

func TestOpenDoesNotModifyTemplate(t *testing.T) {
	path := docxtest.WriteTemplate(t, t.TempDir(), "t.docx", docxtest.Section{Body: []string{"[YEAR]"}})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	doc, err := docx.Open(path)
	require.NoError(t, err)
	doc.Paragraphs()[0].SetText("2024")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOpenRejectsNonDocx(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.docx")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0644))

	_, err := docx.Open(bad)
	assert.ErrorIs(t, err, docx.ErrNotDocx)

	_, err = docx.Open(filepath.Join(dir, "missing.docx"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to read template"))
}
