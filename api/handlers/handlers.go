package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/minutes-generator/config"
	"github.com/feichai0017/minutes-generator/internal/service/minutes"
	"github.com/feichai0017/minutes-generator/internal/utils/validator"
	"github.com/feichai0017/minutes-generator/pkg/logger"
)

type Handlers struct {
	Minutes *MinutesHandler
}

func NewHandlers(
	minutesService minutes.MinutesGenerator,
	cfg *config.Config,
	logger logger.Logger,
) *Handlers {
	vcfg := validator.DefaultConfig()
	if cfg.Server.MaxUploadSize > 0 {
		vcfg.MaxFileSize = cfg.Server.MaxUploadSize
	}

	return &Handlers{
		Minutes: NewMinutesHandler(
			minutesService,
			validator.NewUploadValidator(logger, vcfg),
			cfg.Form,
			cfg.Generator.OutputDir,
			logger,
		),
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
	})
}
