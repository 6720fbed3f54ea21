package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/entities"
	"github.com/mrlokans/assessment-importer/internal/entrypoint"
	"github.com/mrlokans/assessment-importer/internal/importers"
	"github.com/mrlokans/assessment-importer/internal/logger"
)

// ImportCommand imports one assessment package file from the command line.
type ImportCommand struct {
	Kind         entities.ContentKind
	FilePath     string
	ImporterID   uint
	DatabasePath string
	Verbose      bool
	DryRun       bool

	out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	var kind string
	var importer uint
	fs.StringVar(&kind, "kind", "", "Content kind: exam, comprehensive-training or specialized-training (required)")
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the exported .json or .xml package (required)")
	fs.UintVar(&importer, "importer", 0, "Id of the importing account (required unless -dry-run)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the sqlite database file")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print the package outline")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse and validate without touching the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -kind <kind> -file <path> -importer <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import an assessment package exported by an authoring tool.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -kind exam -file midterm.json -importer 1\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -kind specialized-training -file training.xml -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	cmd.Kind = entities.ParseContentKind(kind)
	if !cmd.Kind.Valid() {
		return fmt.Errorf("invalid -kind %q", kind)
	}
	cmd.ImporterID = importer
	if cmd.ImporterID == 0 && !cmd.DryRun {
		return fmt.Errorf("required flag -importer not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run() error {
	content, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read package file: %w", err)
	}
	fileName := filepath.Base(cmd.FilePath)

	if cmd.DryRun {
		return cmd.check(fileName, content)
	}

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	cfg := config.NewConfig()
	cfg.Database.Driver = config.DatabaseDriverSQLite
	cfg.Database.Path = absDBPath
	cfg.Database.LogLevel = "silent"

	log := logger.NewNop()
	if cmd.Verbose {
		if log, err = logger.New("dev"); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer log.Sync()
	}

	app, err := entrypoint.NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Pipeline.Import(context.Background(), importers.Request{
		Kind:       cmd.Kind,
		FileName:   fileName,
		Content:    bytes.NewReader(content),
		ImporterID: cmd.ImporterID,
	})
	cmd.printResult(res)
	return err
}

// check runs parse and validation only, under the configured import limits.
func (cmd *ImportCommand) check(fileName string, content []byte) error {
	cfg := config.NewConfig()
	p := importers.NewPipeline(nil, nil, importers.Options{
		MaxFileSize:  cfg.Import.MaxFileSize,
		ItemScoreMin: cfg.Import.ItemScoreMin,
		ItemScoreMax: cfg.Import.ItemScoreMax,
		Log:          logger.NewNop(),
	})

	env, err := p.Check(importers.Request{
		Kind:     cmd.Kind,
		FileName: fileName,
		Content:  bytes.NewReader(content),
	})
	var ie *importers.Error
	if errors.As(err, &ie) && len(ie.Violations) > 0 {
		fmt.Fprintf(cmd.out, "%d validation error(s):\n", len(ie.Violations))
		for _, violation := range ie.Violations {
			fmt.Fprintf(cmd.out, "  - %s\n", violation)
		}
		return err
	}
	if err != nil {
		return err
	}

	if cmd.Verbose {
		cmd.printOutline(env)
	}
	fmt.Fprintf(cmd.out, "%s %q is valid. Use without -dry-run to import.\n", cmd.Kind, env.Package.Name)
	return nil
}

func (cmd *ImportCommand) printOutline(env *importers.Envelope) {
	pkg := env.Package
	fmt.Fprintf(cmd.out, "Package %q (origin %s)\n", pkg.Name, pkg.ID)
	for _, s := range pkg.Subjects {
		fmt.Fprintf(cmd.out, "  subject %q\n", s.Name)
	}
	for _, m := range pkg.Modules {
		fmt.Fprintf(cmd.out, "  module %q: %d question(s)\n", m.Name, len(m.Questions))
	}
	if n := len(pkg.Questions); n > 0 {
		fmt.Fprintf(cmd.out, "  %d loose question(s)\n", n)
	}
}

func (cmd *ImportCommand) printResult(res importers.Result) {
	if res.Success {
		fmt.Fprintf(cmd.out, "Imported %s %q as package %d\n", res.Kind, res.PackageName, res.PackageID)
		fmt.Fprintf(cmd.out, "  sections: %d (%d subjects, %d modules)\n", res.Counts.Sections(), res.Counts.Subjects, res.Counts.Modules)
		fmt.Fprintf(cmd.out, "  items:    %d\n", res.Counts.Items)
		fmt.Fprintf(cmd.out, "  checks:   %d\n", res.Counts.Checks)
		fmt.Fprintf(cmd.out, "  settings: %d\n", res.Counts.Settings)
		if res.ArchiveID != "" {
			fmt.Fprintf(cmd.out, "  archived as %s\n", res.ArchiveID)
		}
		return
	}

	fmt.Fprintf(cmd.out, "Import failed (%s): %s\n", res.ErrorKind, res.Error)
	for _, v := range res.Violations {
		fmt.Fprintf(cmd.out, "  - %s\n", v)
	}
}

// ExitCode maps an import failure to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, importers.ErrValidation), errors.Is(err, importers.ErrParse):
		return 2
	case errors.Is(err, importers.ErrDuplicate):
		return 3
	default:
		return 1
	}
}
