package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/SAP-F-2025/question-bank-service/internal/app"
	"github.com/SAP-F-2025/question-bank-service/internal/bank"
	"github.com/SAP-F-2025/question-bank-service/internal/config"
	"github.com/SAP-F-2025/question-bank-service/internal/loader"
	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/seed"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
)

const usage = `usage: quizbank <command> [flags]

commands:
  serve                      run the HTTP API (default)
  validate [file]            check a question file, or the embedded set
  seed                       write the embedded set to postgres
  export [-format f] [-o f]  write the configured bank as csv, xlsx, json or yaml
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = serve(ctx, args)
	case "validate":
		err = validate(ctx, args, stdout)
	case "seed":
		err = seedDatabase(ctx, args)
	case "export":
		err = export(ctx, args, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "quizbank %s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, utils.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, utils.NewLogger(cfg.Environment, os.Stderr), nil
}

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.String("port", "", "listen port, overrides PORT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Port = *port
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.LogError(err, "Failed to release resources")
		}
	}()

	return a.Run(ctx)
}

func validate(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	name := seed.Name
	var (
		questions []models.Question
		err       error
	)
	switch path := fs.Arg(0); {
	case path == "":
		questions, err = seed.Questions()
	case isSpreadsheet(path):
		name = path
		questions, err = importSpreadsheet(ctx, path, stdout)
	default:
		name = path
		questions, err = loader.LoadFile(path)
	}
	if err != nil {
		return err
	}

	b, err := bank.New(questions)
	if err != nil {
		var malformed *bank.MalformedBankError
		if errors.As(err, &malformed) {
			for _, issue := range malformed.Issues {
				fmt.Fprintf(stdout, "%s: %s (%s)\n", issue.Field, issue.Message, issue.Rule)
			}
		}
		return err
	}

	fmt.Fprintf(stdout, "%s: %d questions, %d tags, checksum %s\n", name, b.Len(), len(b.Tags()), b.Checksum())
	return nil
}

func isSpreadsheet(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

func importSpreadsheet(ctx context.Context, path string, stdout io.Writer) ([]models.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	svc := services.NewImportExportService(utils.NewNopLogger().Slog(), validator.New())
	result, err := svc.ImportQuestions(ctx, f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if result.Status != models.ImportCompleted {
		for _, e := range result.Errors {
			fmt.Fprintf(stdout, "row %d %s: %s\n", e.Row, e.Column, e.Message)
		}
		return nil, fmt.Errorf("%w: %d rows rejected", bank.ErrMalformedRecord, result.ErrorCount)
	}
	return result.Questions, nil
}

func seedDatabase(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	questions, err := seed.Questions()
	if err != nil {
		return err
	}
	// Refuse to write a set the bank would reject on load.
	if _, err := bank.New(questions); err != nil {
		return err
	}

	repo, closeRepo, err := app.OpenRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := services.NewRepositorySource(repo).Store(ctx, questions); err != nil {
		return err
	}
	logger.Info("Seeded question bank", "source", seed.Name, "count", len(questions))
	return nil
}

func export(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", "json", "csv, xlsx, json or yaml")
	tag := fs.String("tag", "", "only export questions carrying this tag")
	out := fs.String("o", "", "output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	source, closeSource, err := app.NewSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	bankSvc, err := services.NewQuestionBankService(ctx, source, logger.Slog())
	if err != nil {
		return err
	}

	questions := bankSvc.GetAll(ctx)
	if *tag != "" {
		questions = bankSvc.FilterByTag(ctx, *tag)
	}

	var data []byte
	switch f := strings.ToLower(*format); f {
	case string(loader.FormatJSON), string(loader.FormatYAML):
		data, err = loader.Encode(questions, loader.Format(f))
	case string(models.ExportCSV), string(models.ExportXLSX):
		svc := services.NewImportExportService(logger.Slog(), validator.New())
		data, err = svc.ExportQuestions(ctx, questions, models.ExportFormat(f))
	default:
		return fmt.Errorf("unsupported export format %q", *format)
	}
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = io.Copy(stdout, bytes.NewReader(data))
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}
