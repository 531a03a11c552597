// Command minutesgen generates board meeting minutes from a YAML details file
// and prunes archived documents.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/minutes-generator/config"
	"github.com/feichai0017/minutes-generator/internal/models"
	"github.com/feichai0017/minutes-generator/internal/service/minutes"
	"github.com/feichai0017/minutes-generator/pkg/logger"
	"github.com/feichai0017/minutes-generator/pkg/storage"
)

const usage = `usage:
  minutesgen generate -details meeting.yaml [-config config.yaml] [-template path] [-out dir] [-logo path|none]
  minutesgen prune [-config config.yaml] [-older-than 720h]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "generate":
		err = generate(ctx, os.Args[2:])
	case "prune":
		err = prune(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(configPath string) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	// CLI output goes to stdout; keep the logs on stderr
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
	log, err := logger.NewLogger(logger.FromConfig(cfg.Log))
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func generate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	detailsPath := fs.String("details", "", "YAML file with the meeting details")
	templatePath := fs.String("template", "", "template override")
	outDir := fs.String("out", "", "output directory override")
	logoPath := fs.String("logo", "", `logo override; "none" disables the logo`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *detailsPath == "" {
		return errors.New("-details is required")
	}

	cfg, log, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if *templatePath != "" {
		cfg.Generator.TemplatePath = *templatePath
	}
	if *outDir != "" {
		cfg.Generator.OutputDir = *outDir
	}

	form, err := readDetails(*detailsPath)
	if err != nil {
		return err
	}
	if *logoPath != "" {
		form.Logo = *logoPath
	}
	details, err := form.Resolve(cfg.Form, time.Now())
	if err != nil {
		return err
	}

	svc, err := minutes.GetService(cfg, log)
	if err != nil {
		return err
	}
	result, err := svc.Run(ctx, details)
	if err != nil {
		return err
	}

	fmt.Println(result.Path)
	return nil
}

func readDetails(path string) (models.MeetingForm, error) {
	var form models.MeetingForm
	data, err := os.ReadFile(path)
	if err != nil {
		return form, fmt.Errorf("failed to read details file: %w", err)
	}
	if err := yaml.Unmarshal(data, &form); err != nil {
		return form, fmt.Errorf("failed to parse details file %s: %w", path, err)
	}
	return form, nil
}

func prune(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML config file")
	olderThan := fs.Duration("older-than", 30*24*time.Hour, "delete archived documents older than this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, log, err := setup(*configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := storage.NewStorage(cfg.Storage, log)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("archiving is disabled; set storage.type")
	}

	threshold := time.Now().Add(-*olderThan)
	log.Info("Pruning archive", logger.Time("before", threshold))
	return store.CleanupBefore(ctx, threshold)
}
