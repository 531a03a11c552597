package minutes

import (
	"context"
	"errors"
	"time"

	"github.com/feichai0017/minutes-generator/internal/docx"
	"github.com/feichai0017/minutes-generator/internal/models"
)

// LogoPlaceholder marks where the logo goes in a header.
const LogoPlaceholder = "[LOGO]"

// NoLogo disables the logo when passed as a logo path to Run.
const NoLogo = "none"

// ErrGenerationFailed wraps every template load or substitution failure.
var ErrGenerationFailed = errors.New("failed to generate the document")

type MinutesGenerator interface {
	Generate(ctx context.Context, templatePath string, req GenerateRequest) (*docx.Document, Stats, error)
	InsertImage(ctx context.Context, doc *docx.Document, imagePath, placeholder string) bool
	Save(ctx context.Context, doc *docx.Document, companyName string) (string, error)
	Run(ctx context.Context, details models.MeetingDetails) (*Result, error)
}

// GenerateRequest separates text substitutions from the optional logo.
type GenerateRequest struct {
	Fields   models.FieldMapping
	LogoPath string
}

type Stats struct {
	Replacements int  `json:"replacements"`
	LogoInserted bool `json:"logoInserted"`
}

// Result describes one generated and saved document.
type Result struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Archived     string    `json:"archived,omitempty"`
	ArchiveError string    `json:"archiveError,omitempty"`
	Stats        Stats     `json:"stats"`
	GeneratedAt  time.Time `json:"generatedAt"`
}
