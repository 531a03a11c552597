package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/feichai0017/minutes-generator/internal/models"
	"github.com/feichai0017/minutes-generator/internal/service/minutes"
	"github.com/feichai0017/minutes-generator/internal/utils/validator"
	"github.com/feichai0017/minutes-generator/pkg/logger"
)

const generationFailedMessage = "Failed to generate the document."

// errLogoPath rejects client supplied logo paths; a logo is either the
// configured default, disabled or uploaded.
var errLogoPath = fmt.Errorf("logo must be empty, %q or an uploaded file", minutes.NoLogo)

type MinutesHandler struct {
	service   minutes.MinutesGenerator
	validator *validator.UploadValidator
	presets   models.FormPresets
	outputDir string
	logger    logger.ContextLogger
	now       func() time.Time
}

// MinutesResponse is returned after a successful generation.
type MinutesResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Path         string `json:"path"`
	Archived     string `json:"archived,omitempty"`
	Replacements int    `json:"replacements"`
	LogoInserted bool   `json:"logoInserted"`
	GeneratedAt  string `json:"generatedAt"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FormResponse lists the dropdown entries and prefilled text of the form.
type FormResponse struct {
	Choices          map[string][]string `json:"choices"`
	ChairmanName     string              `json:"chairmanName"`
	DiscussionTopics string              `json:"discussionTopics"`
	ClosingRemarks   string              `json:"closingRemarks"`
}

func NewMinutesHandler(
	service minutes.MinutesGenerator,
	uploads *validator.UploadValidator,
	presets models.FormPresets,
	outputDir string,
	log logger.Logger,
) *MinutesHandler {
	return &MinutesHandler{
		service:   service,
		validator: uploads,
		presets:   presets,
		outputDir: outputDir,
		logger:    logger.NewContextLogger(log.Named("api")),
		now:       time.Now,
	}
}

// GetForm returns the form presets.
func (h *MinutesHandler) GetForm(c *gin.Context) {
	c.JSON(http.StatusOK, FormResponse{
		Choices:          h.presets.Choices(),
		ChairmanName:     h.presets.ChairmanName,
		DiscussionTopics: h.presets.DiscussionTopics,
		ClosingRemarks:   h.presets.ClosingRemarks,
	})
}

// Generate accepts a JSON MeetingForm or the same fields as a multipart form
// with an optional "logo" file part.
func (h *MinutesHandler) Generate(c *gin.Context) {
	var form models.MeetingForm

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var (
			upload string
			err    error
		)
		form, upload, err = h.bindMultipart(c)
		if upload != "" {
			defer h.removeUpload(c, upload)
		}
		if err != nil {
			h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
			return
		}
	} else {
		if err := c.ShouldBindJSON(&form); err != nil {
			h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
		if err := checkLogo(form.Logo); err != nil {
			h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	details, err := form.Resolve(h.presets, h.now())
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid meeting details", err)
		return
	}
	if details.CompanyName == "" {
		h.handleError(c, http.StatusBadRequest, "Company name is required", nil)
		return
	}

	result, err := h.service.Run(c.Request.Context(), details)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, generationFailedMessage, err)
		return
	}

	c.JSON(http.StatusOK, MinutesResponse{
		ID:           result.ID,
		Filename:     result.Filename,
		Path:         result.Path,
		Archived:     result.Archived,
		Replacements: result.Stats.Replacements,
		LogoInserted: result.Stats.LogoInserted,
		GeneratedAt:  result.GeneratedAt.Format(time.RFC3339),
	})
}

func checkLogo(logo string) error {
	if logo != "" && logo != minutes.NoLogo {
		return errLogoPath
	}
	return nil
}

// bindMultipart reads the form fields and stores a logo upload. The returned
// upload path, when set, must be removed by the caller.
func (h *MinutesHandler) bindMultipart(c *gin.Context) (models.MeetingForm, string, error) {
	form := models.MeetingForm{
		Company:          choice(c, "company", "companyOther"),
		CompanyAddress:   choice(c, "companyAddress", "companyAddressOther"),
		MeetingAddress:   choice(c, "meetingAddress", "meetingAddressOther"),
		MeetingType:      c.PostForm("meetingType"),
		ChairmanName:     c.PostForm("chairmanName"),
		Date:             c.PostForm("date"),
		Time:             choice(c, "time", "customTime"),
		DiscussionTopics: c.PostForm("discussionTopics"),
		Resolutions:      c.PostForm("resolutions"),
		ClosingRemarks:   c.PostForm("closingRemarks"),
		Logo:             c.PostForm("logo"),
	}
	if err := checkLogo(form.Logo); err != nil {
		return form, "", err
	}

	header, err := c.FormFile("logo")
	if errors.Is(err, http.ErrMissingFile) {
		return form, "", nil
	}
	if err != nil {
		return form, "", err
	}

	result, err := h.validator.ValidateFile(header)
	if err != nil {
		return form, "", err
	}
	if !result.IsValid {
		return form, "", result
	}

	dir := filepath.Join(h.outputDir, "uploads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return form, "", err
	}
	dst := filepath.Join(dir, uuid.New().String()+result.FileInfo.Extension)
	if err := c.SaveUploadedFile(header, dst); err != nil {
		return form, dst, err
	}
	form.Logo = dst
	return form, dst, nil
}

func (h *MinutesHandler) removeUpload(c *gin.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.FromContext(c.Request.Context()).Warn("Failed to remove uploaded logo",
			logger.String("path", path),
			logger.Error(err),
		)
	}
}

func choice(c *gin.Context, selected, custom string) models.Choice {
	return models.Choice{Selected: c.PostForm(selected), Custom: c.PostForm(custom)}
}

// Download serves a generated document by file name.
func (h *MinutesHandler) Download(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		!strings.EqualFold(filepath.Ext(name), ".docx") {
		h.handleError(c, http.StatusBadRequest, "Invalid file name", nil)
		return
	}

	path := filepath.Join(h.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		h.handleError(c, http.StatusNotFound, "Document not found", err)
		return
	}
	c.FileAttachment(path, name)
}

// handleError 统一错误处理
func (h *MinutesHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.FromContext(c.Request.Context()).Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	// generation failures stay generic for the caller
	if err != nil && status < http.StatusInternalServerError {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
