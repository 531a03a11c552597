package minutes

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/minutes-generator/config"
	"github.com/feichai0017/minutes-generator/internal/docx"
	"github.com/feichai0017/minutes-generator/internal/logo"
	"github.com/feichai0017/minutes-generator/internal/models"
	"github.com/feichai0017/minutes-generator/pkg/logger"
	"github.com/feichai0017/minutes-generator/pkg/storage"
)

type MinutesService struct {
	storage storage.Storage
	logger  logger.ContextLogger
	config  *ServiceConfig
}

type ServiceConfig struct {
	TemplatePath    string
	OutputDir       string
	DefaultLogo     string
	LogoWidthInches float64
	LogoMaxPixels   int
	LogoGrayscale   bool
	// ArchivePrefix is prepended to archived keys.
	ArchivePrefix string
	// Now is the clock used for output names; nil means time.Now.
	Now func() time.Time
}

// NewService builds a generator. store may be nil to disable archiving.
func NewService(cfg *ServiceConfig, store storage.Storage, log logger.Logger) MinutesGenerator {
	if cfg == nil {
		cfg = &ServiceConfig{
			TemplatePath:    "templates/Template.docx",
			OutputDir:       "generated_docs",
			LogoWidthInches: 1.0,
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LogoWidthInches <= 0 {
		cfg.LogoWidthInches = 1.0
	}

	return &MinutesService{
		storage: store,
		logger:  logger.NewContextLogger(log.Named("minutes")),
		config:  cfg,
	}
}

// GetService wires the generator and its archive backend from cfg.
func GetService(cfg *config.Config, log logger.Logger) (MinutesGenerator, error) {
	store, err := storage.NewStorage(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return NewService(&ServiceConfig{
		TemplatePath:    cfg.Generator.TemplatePath,
		OutputDir:       cfg.Generator.OutputDir,
		DefaultLogo:     cfg.Generator.DefaultLogo,
		LogoWidthInches: cfg.Generator.LogoWidthInches,
		LogoMaxPixels:   cfg.Generator.LogoMaxPixels,
		LogoGrayscale:   cfg.Generator.LogoGrayscale,
		ArchivePrefix:   cfg.Storage.Prefix,
	}, store, log), nil
}

// Generate loads the template and applies the logo and text substitutions.
// The template file is never modified.
func (s *MinutesService) Generate(ctx context.Context, templatePath string, req GenerateRequest) (doc *docx.Document, stats Stats, err error) {
	log := s.logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			doc, stats = nil, Stats{}
			err = fmt.Errorf("%w: %v", ErrGenerationFailed, r)
		}
		if err != nil {
			log.Error("Failed to generate document",
				logger.String("template", templatePath),
				logger.Error(err),
			)
		}
	}()

	doc, err = docx.Open(templatePath)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	if req.LogoPath != "" {
		stats.LogoInserted = s.InsertImage(ctx, doc, req.LogoPath, LogoPlaceholder)
	}

	var paragraphs []*docx.Paragraph
	paragraphs = append(paragraphs, doc.Paragraphs()...)
	for _, footer := range doc.Footers() {
		paragraphs = append(paragraphs, footer.Paragraphs()...)
	}

	for _, field := range req.Fields.Fields() {
		token := models.Placeholder(field.Key)
		found := 0
		for _, p := range paragraphs {
			found += p.Replace(token, field.Value)
		}
		if found == 0 {
			log.Debug("Placeholder not found in template", logger.String("placeholder", token))
		}
		stats.Replacements += found
	}

	log.Info("Document generated",
		logger.String("template", templatePath),
		logger.Int("replacements", stats.Replacements),
		logger.Bool("logoInserted", stats.LogoInserted),
	)
	return doc, stats, nil
}

// InsertImage puts the image at imagePath into the first header paragraph
// containing placeholder, scanning sections in order. It reports whether a
// picture was inserted; failures are logged and leave the document unchanged.
func (s *MinutesService) InsertImage(ctx context.Context, doc *docx.Document, imagePath, placeholder string) bool {
	log := s.logger.FromContext(ctx).With(logger.String("image", imagePath))

	if _, err := os.Stat(imagePath); err != nil {
		log.Warn("Logo image not found, skipping", logger.Error(err))
		return false
	}

	for _, section := range doc.Sections() {
		if section.Header == nil {
			continue
		}
		for _, p := range section.Header.Paragraphs() {
			if !p.Contains(placeholder) {
				continue
			}

			pic, err := logo.Prepare(imagePath, s.logoOptions())
			if err != nil {
				log.Warn("Failed to load logo image, skipping", logger.Error(err))
				return false
			}
			if err := p.ReplaceWithPicture(pic); err != nil {
				log.Warn("Failed to embed logo image", logger.Error(err))
				return false
			}
			log.Debug("Logo inserted",
				logger.Int("section", section.Index),
				logger.String("header", section.Header.Name),
			)
			return true
		}
	}

	log.Warn("Logo placeholder not found in any header", logger.String("placeholder", placeholder))
	return false
}

func (s *MinutesService) logoOptions() logo.Options {
	opts := logo.Options{WidthInches: s.config.LogoWidthInches}
	if s.config.LogoMaxPixels > 0 {
		opts.Preprocessors = append(opts.Preprocessors, logo.NewMaxWidthProcessor(s.config.LogoMaxPixels))
	}
	if s.config.LogoGrayscale {
		opts.Preprocessors = append(opts.Preprocessors, logo.NewGrayscaleProcessor())
	}
	return opts
}

// OutputFilename is "<YYYY-MM-DD> <company> Board Meetings.docx" with
// punctuation stripped from the company name.
func OutputFilename(date time.Time, companyName string) string {
	return fmt.Sprintf("%s %s Board Meetings.docx", date.Format(models.DateLayout), Sanitize(companyName))
}

// Save writes doc to the output directory and returns the full path. An
// existing file with the same name is replaced.
func (s *MinutesService) Save(ctx context.Context, doc *docx.Document, companyName string) (string, error) {
	log := s.logger.FromContext(ctx)

	if err := os.MkdirAll(s.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	out := filepath.Join(s.config.OutputDir, OutputFilename(s.config.Now(), companyName))
	if err := doc.SaveFile(out); err != nil {
		log.Error("Failed to save document", logger.String("path", out), logger.Error(err))
		return "", err
	}

	log.Info("Document saved", logger.String("path", out))
	return out, nil
}

// Run generates, saves and optionally archives the minutes for details.
func (s *MinutesService) Run(ctx context.Context, details models.MeetingDetails) (*Result, error) {
	req := GenerateRequest{
		Fields:   details.Fields(),
		LogoPath: s.resolveLogo(details.LogoPath),
	}

	doc, stats, err := s.Generate(ctx, s.config.TemplatePath, req)
	if err != nil {
		return nil, err
	}

	out, err := s.Save(ctx, doc, details.CompanyName)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ID:          uuid.New().String(),
		Path:        out,
		Filename:    filepath.Base(out),
		Stats:       stats,
		GeneratedAt: s.config.Now(),
	}

	if s.storage != nil {
		key, err := s.archive(ctx, doc, result.Filename)
		if err != nil {
			s.logger.FromContext(ctx).Error("Failed to archive document",
				logger.String("filename", result.Filename),
				logger.Error(err),
			)
			result.ArchiveError = err.Error()
		} else {
			result.Archived = key
		}
	}

	return result, nil
}

func (s *MinutesService) resolveLogo(requested string) string {
	switch requested {
	case "":
		return s.config.DefaultLogo
	case NoLogo:
		return ""
	default:
		return requested
	}
}

func (s *MinutesService) archive(ctx context.Context, doc *docx.Document, filename string) (string, error) {
	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return "", err
	}
	key := filename
	if s.config.ArchivePrefix != "" {
		key = path.Join(s.config.ArchivePrefix, filename)
	}
	return s.storage.Store(ctx, &buf, key)
}
