package minutes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/minutes-generator/internal/docx"
	"github.com/feichai0017/minutes-generator/internal/docx/docxtest"
	"github.com/feichai0017/minutes-generator/internal/models"
	"github.com/feichai0017/minutes-generator/pkg/logger"
	"github.com/feichai0017/minutes-generator/pkg/storage/local"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

func newTestService(t *testing.T, dir string) (*MinutesService, *logger.TestLogger) {
	t.Helper()
	tl := logger.NewTestLogger()
	svc := NewService(&ServiceConfig{
		TemplatePath:    filepath.Join(dir, "Template.docx"),
		OutputDir:       filepath.Join(dir, "generated_docs"),
		LogoWidthInches: 1.0,
		Now:             func() time.Time { return fixedNow },
	}, nil, tl)
	return svc.(*MinutesService), tl
}

func texts(ps []*docx.Paragraph) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Text())
	}
	return out
}

func allText(doc *docx.Document) string {
	var parts []string
	parts = append(parts, texts(doc.Paragraphs())...)
	for _, h := range doc.Headers() {
		parts = append(parts, texts(h.Paragraphs())...)
	}
	for _, f := range doc.Footers() {
		parts = append(parts, texts(f.Paragraphs())...)
	}
	return strings.Join(parts, "\n")
}

func boardTemplate(t *testing.T, dir string) string {
	return docxtest.WriteTemplate(t, dir, "Template.docx", docxtest.Section{
		Header: []string{"[LOGO]", "[COMPANY_NAME]"},
		Body: []string{
			"Minutes of the |[MEETING_TYPE]| of [COMPANY_NAME]",
			"Held on [DATE] at [TIME] at [MEETING_ADDRESS]",
			"Chair: [CHAIRMAN_NAME]",
			"[DISCUSSION_TOPICS]",
			"[RESOLUTIONS]",
			"[CLOSING_REMARKS] The meeting closed at [CLOSING_TIME].",
			"No placeholders here",
		},
		Footer: []string{"[COMPANY_NAME] | [COMPANY_ADDRESS] | [YEAR]"},
	})
}

func sampleDetails() models.MeetingDetails {
	return models.MeetingDetails{
		CompanyName:      "6AMG",
		CompanyAddress:   "1 Main Street",
		MeetingAddress:   "Board Room",
		MeetingType:      "Annual General Meeting",
		ChairmanName:     "A. Chair",
		Date:             fixedNow,
		Time:             "10:00 am",
		DiscussionTopics: "Budget",
		Resolutions:      "Approved",
		ClosingRemarks:   "Thanks all.",
	}
}

func TestGenerateReplacesBodyAndFooter(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	svc, _ := newTestService(t, dir)

	doc, stats, err := svc.Generate(context.Background(), tmpl, GenerateRequest{Fields: sampleDetails().Fields()})
	require.NoError(t, err)

	body := texts(doc.Paragraphs())
	assert.Equal(t, "Minutes of the Annual General Meeting of 6AMG", body[0])
	assert.Equal(t, "Held on 2024-05-01 at 10:00 am at Board Room", body[1])
	assert.Equal(t, "Thanks all. The meeting closed at 10:00 am.", body[5])
	assert.Equal(t, "No placeholders here", body[6])

	footers := doc.Footers()
	require.Len(t, footers, 1)
	assert.Equal(t, []string{"6AMG  1 Main Street  2024"}, texts(footers[0].Paragraphs()))

	// headers only receive the logo, never text
	headers := doc.Headers()
	require.Len(t, headers, 1)
	assert.Equal(t, []string{"[LOGO]", "[COMPANY_NAME]"}, texts(headers[0].Paragraphs()))

	assert.Equal(t, 13, stats.Replacements)
	assert.False(t, stats.LogoInserted)
}

func TestGenerateLeavesNoPlaceholders(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	svc, _ := newTestService(t, dir)

	doc, _, err := svc.Generate(context.Background(), tmpl, GenerateRequest{Fields: sampleDetails().Fields()})
	require.NoError(t, err)

	var bodyAndFooter []string
	bodyAndFooter = append(bodyAndFooter, texts(doc.Paragraphs())...)
	bodyAndFooter = append(bodyAndFooter, texts(doc.Footers()[0].Paragraphs())...)
	for _, field := range sampleDetails().Fields().Fields() {
		for _, text := range bodyAndFooter {
			assert.NotContains(t, text, models.Placeholder(field.Key))
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	svc, _ := newTestService(t, dir)
	ctx := context.Background()
	fields := sampleDetails().Fields()

	doc, _, err := svc.Generate(ctx, tmpl, GenerateRequest{Fields: fields})
	require.NoError(t, err)
	first := filepath.Join(dir, "first.docx")
	require.NoError(t, doc.SaveFile(first))

	again, stats, err := svc.Generate(ctx, first, GenerateRequest{Fields: fields})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Replacements)
	assert.Equal(t, allText(doc), allText(again))
}

func TestGenerateTwiceFromSameTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	svc, _ := newTestService(t, dir)
	ctx := context.Background()
	req := GenerateRequest{Fields: sampleDetails().Fields()}

	first, firstStats, err := svc.Generate(ctx, tmpl, req)
	require.NoError(t, err)
	second, secondStats, err := svc.Generate(ctx, tmpl, req)
	require.NoError(t, err)

	assert.Equal(t, firstStats, secondStats)
	assert.Equal(t, allText(first), allText(second))
}

func TestGenerateLeavesUnknownPlaceholders(t *testing.T) {
	dir := t.TempDir()
	tmpl := docxtest.WriteTemplate(t, dir, "Template.docx", docxtest.Section{
		Body: []string{"[COMPANY_NAME] and [UNKNOWN_FIELD]"},
	})
	svc, tl := newTestService(t, dir)

	doc, _, err := svc.Generate(context.Background(), tmpl, GenerateRequest{
		Fields: models.NewFieldMapping(
			models.Field{Key: "company_name", Value: "Acme"},
			models.Field{Key: "chairman_name", Value: "Someone"},
		),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme and [UNKNOWN_FIELD]"}, texts(doc.Paragraphs()))
	assert.True(t, tl.Contains("DEBUG", "Placeholder not found"))
}

func TestGenerateKeysAreCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	tmpl := docxtest.WriteTemplate(t, dir, "Template.docx", docxtest.Section{
		Body: []string{"[COMPANY_NAME]"},
	})
	svc, _ := newTestService(t, dir)

	doc, _, err := svc.Generate(context.Background(), tmpl, GenerateRequest{
		Fields: models.FromMap(map[string]string{"Company_Name": "Acme"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, texts(doc.Paragraphs()))
}

func TestGenerateVisitsSharedFooterOnce(t *testing.T) {
	dir := t.TempDir()
	tmpl := docxtest.WriteTemplate(t, dir, "Template.docx",
		docxtest.Section{Body: []string{"one"}, Footer: []string{"[COMPANY_NAME]"}},
		docxtest.Section{Body: []string{"two"}},
	)
	svc, _ := newTestService(t, dir)

	doc, stats, err := svc.Generate(context.Background(), tmpl, GenerateRequest{
		Fields: models.NewFieldMapping(models.Field{Key: "company_name", Value: "[COMPANY_NAME] Ltd"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Replacements)
	assert.Equal(t, []string{"[COMPANY_NAME] Ltd"}, texts(doc.Footers()[0].Paragraphs()))
}

func TestGenerateMissingTemplate(t *testing.T) {
	dir := t.TempDir()
	svc, tl := newTestService(t, dir)

	doc, _, err := svc.Generate(context.Background(), filepath.Join(dir, "missing.docx"), GenerateRequest{})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Nil(t, doc)
	assert.True(t, tl.Contains("ERROR", "Failed to generate document"))
}

func TestGenerateDoesNotModifyTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	before, err := os.ReadFile(tmpl)
	require.NoError(t, err)

	svc, _ := newTestService(t, dir)
	img := docxtest.WriteImage(t, dir, "logo.png", 40, 20)
	_, _, err = svc.Generate(context.Background(), tmpl, GenerateRequest{Fields: sampleDetails().Fields(), LogoPath: img})
	require.NoError(t, err)

	after, err := os.ReadFile(tmpl)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInsertImageReplacesFirstHeaderPlaceholder(t *testing.T) {
	dir := t.TempDir()
	tmpl := docxtest.WriteTemplate(t, dir, "Template.docx",
		docxtest.Section{Body: []string{"a"}, Header: []string{"Title", "[LOGO]"}},
		docxtest.Section{Body: []string{"b"}, Header: []string{"[LOGO]"}},
	)
	img := docxtest.WriteImage(t, dir, "logo.png", 40, 20)
	svc, _ := newTestService(t, dir)

	doc, err := docx.Open(tmpl)
	require.NoError(t, err)
	assert.True(t, svc.InsertImage(context.Background(), doc, img, LogoPlaceholder))

	sections := doc.Sections()
	first := sections[0].Header.Paragraphs()
	assert.Equal(t, "Title", first[0].Text())
	assert.Equal(t, "", first[1].Text())
	assert.True(t, first[1].HasPicture())

	// scanning stops after the first match
	second := sections[1].Header.Paragraphs()
	assert.Equal(t, "[LOGO]", second[0].Text())
	assert.Len(t, doc.Media(), 1)
}

func TestInsertImageMissingFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	svc, tl := newTestService(t, dir)

	doc, err := docx.Open(tmpl)
	require.NoError(t, err)
	assert.False(t, svc.InsertImage(context.Background(), doc, filepath.Join(dir, "nope.png"), LogoPlaceholder))
	assert.Equal(t, []string{"[LOGO]", "[COMPANY_NAME]"}, texts(doc.Headers()[0].Paragraphs()))
	assert.Empty(t, doc.Media())
	assert.True(t, tl.Contains("WARN", "Logo image not found"))
}

func TestInsertImageUndecodableFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	bad := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))
	svc, tl := newTestService(t, dir)

	doc, err := docx.Open(tmpl)
	require.NoError(t, err)
	assert.False(t, svc.InsertImage(context.Background(), doc, bad, LogoPlaceholder))
	assert.Equal(t, "[LOGO]", doc.Headers()[0].Paragraphs()[0].Text())
	assert.True(t, tl.Contains("WARN", "Failed to load logo image"))
}

func TestInsertImageNoHeaderPlaceholder(t *testing.T) {
	dir := t.TempDir()
	tmpl := docxtest.WriteTemplate(t, dir, "Template.docx", docxtest.Section{
		Body: []string{"[LOGO]"},
	})
	img := docxtest.WriteImage(t, dir, "logo.png", 10, 10)
	svc, tl := newTestService(t, dir)

	doc, err := docx.Open(tmpl)
	require.NoError(t, err)
	assert.False(t, svc.InsertImage(context.Background(), doc, img, LogoPlaceholder))
	assert.Equal(t, "[LOGO]", doc.Paragraphs()[0].Text())
	assert.True(t, tl.Contains("WARN", "placeholder not found"))
}

func TestSaveNamesFileByDateAndCompany(t *testing.T) {
	dir := t.TempDir()
	tmpl := boardTemplate(t, dir)
	svc, _ := newTestService(t, dir)

	doc, err := docx.Open(tmpl)
	require.NoError(t, err)

	out, err := svc.Save(context.Background(), doc, "6AMG")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated_docs", "2024-05-01 6AMG Board Meetings.docx"), out)

	reread, err := docx.Open(out)
	require.NoError(t, err)
	assert.Equal(t, allText(doc), allText(reread))
}

func TestOutputFilenameStripsPunctuation(t *testing.T) {
	assert.Equal(t, "2024-05-01 Acme Inc Board Meetings.docx", OutputFilename(fixedNow, "Acme, Inc."))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "Acme Inc", Sanitize("Acme, Inc."))
	assert.Equal(t, "AcmeInc", SanitizeCompact("Acme, Inc."))
	assert.Equal(t, "Café Ltd", Sanitize("Café (Ltd)"))
	assert.Equal(t, "", Sanitize("!@#$%"))
}

func TestRunWithLogoAndArchive(t *testing.T) {
	dir := t.TempDir()
	boardTemplate(t, dir)
	img := docxtest.WriteImage(t, dir, "logo.png", 40, 20)

	tl := logger.NewTestLogger()
	store, err := local.NewLocalStorage(filepath.Join(dir, "archive"), tl)
	require.NoError(t, err)

	svc := NewService(&ServiceConfig{
		TemplatePath:    filepath.Join(dir, "Template.docx"),
		OutputDir:       filepath.Join(dir, "generated_docs"),
		DefaultLogo:     img,
		LogoWidthInches: 1.0,
		ArchivePrefix:   "minutes",
		Now:             func() time.Time { return fixedNow },
	}, store, tl)

	result, err := svc.Run(context.Background(), sampleDetails())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "2024-05-01 6AMG Board Meetings.docx", result.Filename)
	assert.True(t, result.Stats.LogoInserted)
	assert.Equal(t, "minutes/2024-05-01 6AMG Board Meetings.docx", result.Archived)
	assert.Empty(t, result.ArchiveError)
	assert.FileExists(t, result.Path)
	assert.FileExists(t, filepath.Join(dir, "archive", "minutes", result.Filename))
}

func TestRunLogoDisabled(t *testing.T) {
	dir := t.TempDir()
	boardTemplate(t, dir)
	img := docxtest.WriteImage(t, dir, "logo.png", 40, 20)

	svc := NewService(&ServiceConfig{
		TemplatePath: filepath.Join(dir, "Template.docx"),
		OutputDir:    filepath.Join(dir, "generated_docs"),
		DefaultLogo:  img,
		Now:          func() time.Time { return fixedNow },
	}, nil, logger.NewTestLogger())

	details := sampleDetails()
	details.LogoPath = NoLogo
	result, err := svc.Run(context.Background(), details)
	require.NoError(t, err)
	assert.False(t, result.Stats.LogoInserted)
	assert.Empty(t, result.Archived)

	doc, err := docx.Open(result.Path)
	require.NoError(t, err)
	assert.Empty(t, doc.Media())
}
