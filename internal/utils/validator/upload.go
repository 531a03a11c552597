// Package validator checks uploaded files before they reach the generator.
package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/feichai0017/minutes-generator/pkg/logger"
)

// UploadValidator checks logo uploads.
type UploadValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

type ValidatorConfig struct {
	MaxFileSize  int64
	AllowedTypes map[string][]string // extension -> accepted sniffed MIME types
	MinDimension int
	MaxDimension int
}

// ValidationResult is returned for every inspected file.
type ValidationResult struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors,omitempty"`
	FileInfo FileInfo          `json:"fileInfo"`
}

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Error joins the validation messages.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// DefaultConfig accepts the image formats the generator can embed.
func DefaultConfig() *ValidatorConfig {
	return &ValidatorConfig{
		MaxFileSize: 10 * 1024 * 1024,
		AllowedTypes: map[string][]string{
			".png":  {"image/png"},
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".gif":  {"image/gif"},
			".bmp":  {"image/bmp"},
		},
		MinDimension: 1,
		MaxDimension: 10000,
	}
}

func NewUploadValidator(log logger.Logger, config *ValidatorConfig) *UploadValidator {
	if config == nil {
		config = DefaultConfig()
	}
	return &UploadValidator{
		logger: log,
		config: config,
	}
}

// ValidateFile inspects an uploaded logo. A returned error means the file
// could not be read; rule violations are reported in the result.
func (v *UploadValidator) ValidateFile(file *multipart.FileHeader) (*ValidationResult, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return v.Validate(f, file.Filename, file.Size)
}

// Validate inspects r as a file named filename of the given size.
func (v *UploadValidator) Validate(r io.ReadSeeker, filename string, size int64) (*ValidationResult, error) {
	result := &ValidationResult{
		IsValid: true,
		FileInfo: FileInfo{
			Filename:  filename,
			Size:      size,
			Extension: strings.ToLower(filepath.Ext(filename)),
		},
	}

	hash, err := calculateHash(r)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}
	result.FileInfo.Hash = hash

	mimeType, err := detectMimeType(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mime type: %w", err)
	}
	result.FileInfo.MimeType = mimeType

	result.add(v.basicValidation(result.FileInfo)...)
	if len(result.Errors) == 0 {
		result.add(v.validateMimeType(result.FileInfo)...)
	}
	if len(result.Errors) == 0 {
		result.add(v.validateImage(r, &result.FileInfo)...)
	}

	if !result.IsValid {
		v.logger.Warn("Upload rejected",
			logger.String("filename", filename),
			logger.String("mimeType", mimeType),
			logger.String("reason", result.Error()),
		)
	}
	return result, nil
}

func (r *ValidationResult) add(errs ...ValidationError) {
	if len(errs) == 0 {
		return
	}
	r.IsValid = false
	r.Errors = append(r.Errors, errs...)
}

func (v *UploadValidator) basicValidation(info FileInfo) []ValidationError {
	var errs []ValidationError

	if v.config.MaxFileSize > 0 && info.Size > v.config.MaxFileSize {
		errs = append(errs, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
			Field:   "size",
		})
	}
	if _, ok := v.config.AllowedTypes[info.Extension]; !ok {
		errs = append(errs, ValidationError{
			Code:    "INVALID_FILE_TYPE",
			Message: fmt.Sprintf("File type %q is not allowed", info.Extension),
			Field:   "extension",
		})
	}
	return errs
}

func (v *UploadValidator) validateMimeType(info FileInfo) []ValidationError {
	if slices.Contains(v.config.AllowedTypes[info.Extension], info.MimeType) {
		return nil
	}
	return []ValidationError{{
		Code:    "INVALID_MIME_TYPE",
		Message: fmt.Sprintf("Invalid MIME type %s for extension %s", info.MimeType, info.Extension),
		Field:   "mimeType",
	}}
}

var errInvalidImage = ValidationError{
	Code:    "INVALID_IMAGE",
	Message: "File is not a readable image",
	Field:   "content",
}

// validateImage checks the declared size from the image header before
// decoding the pixels.
func (v *UploadValidator) validateImage(r io.ReadSeeker, info *FileInfo) []ValidationError {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return []ValidationError{errInvalidImage}
	}
	info.Width, info.Height = cfg.Width, cfg.Height

	longest := max(info.Width, info.Height)
	shortest := min(info.Width, info.Height)
	if shortest < v.config.MinDimension || (v.config.MaxDimension > 0 && longest > v.config.MaxDimension) {
		return []ValidationError{{
			Code: "INVALID_DIMENSIONS",
			Message: fmt.Sprintf("Image is %dx%d, dimensions must be between %d and %d pixels",
				info.Width, info.Height, v.config.MinDimension, v.config.MaxDimension),
			Field: "dimensions",
		}}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return []ValidationError{errInvalidImage}
	}
	if _, err := imaging.Decode(r); err != nil {
		return []ValidationError{errInvalidImage}
	}
	return nil
}

func detectMimeType(r io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer[:n]), nil
}

func calculateHash(r io.ReadSeeker) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
