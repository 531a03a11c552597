package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feichai0017/minutes-generator/internal/models"
	"github.com/feichai0017/minutes-generator/pkg/logger"
)

// Config is the application configuration shared by the server and the CLI.
type Config struct {
	Generator GeneratorConfig    `yaml:"generator"`
	Server    ServerConfig       `yaml:"server"`
	Log       logger.Config      `yaml:"log"`
	Storage   StorageConfig      `yaml:"storage"`
	Form      models.FormPresets `yaml:"form"`
}

// GeneratorConfig controls template lookup and output placement.
type GeneratorConfig struct {
	TemplatePath    string  `yaml:"templatePath"`
	OutputDir       string  `yaml:"outputDir"`
	DefaultLogo     string  `yaml:"defaultLogo"`
	LogoWidthInches float64 `yaml:"logoWidthInches"`
	// LogoMaxPixels downsizes wider logos before embedding; 0 keeps the original.
	LogoMaxPixels int  `yaml:"logoMaxPixels"`
	LogoGrayscale bool `yaml:"logoGrayscale"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	MaxUploadSize int64  `yaml:"maxUploadSize"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			TemplatePath:    "templates/Template.docx",
			OutputDir:       "generated_docs",
			DefaultLogo:     "assets/logo.png",
			LogoWidthInches: 1.0,
			LogoMaxPixels:   1200,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MaxUploadSize: 10 << 20,
		},
		Log: logger.Config{
			Level:    "info",
			Encoding: "console",
		},
		Storage: StorageConfig{
			Type: StorageTypeNone,
		},
		Form: models.DefaultFormPresets(),
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. A missing file is not an error; an empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Generator.TemplatePath, "MINUTES_TEMPLATE_PATH")
	setString(&c.Generator.OutputDir, "MINUTES_OUTPUT_DIR")
	setString(&c.Generator.DefaultLogo, "MINUTES_DEFAULT_LOGO")
	setString(&c.Server.Addr, "MINUTES_SERVER_ADDR")
	setString(&c.Log.Level, "MINUTES_LOG_LEVEL")

	if v := os.Getenv("MINUTES_LOGO_WIDTH_INCHES"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid MINUTES_LOGO_WIDTH_INCHES %q: %w", v, err)
		}
		c.Generator.LogoWidthInches = w
	}

	c.Storage.applyEnv()
	return nil
}

// Validate rejects configurations the generator cannot run with.
func (c *Config) Validate() error {
	if c.Generator.TemplatePath == "" {
		return errors.New("generator.templatePath is required")
	}
	if c.Generator.OutputDir == "" {
		return errors.New("generator.outputDir is required")
	}
	if c.Generator.LogoWidthInches <= 0 {
		return fmt.Errorf("generator.logoWidthInches must be positive, got %v", c.Generator.LogoWidthInches)
	}
	return c.Storage.Validate()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
