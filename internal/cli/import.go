package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/marked/internal/audit"
	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/database"
	auditrepo "github.com/mrlokans/marked/internal/database/audit"
	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/utils"
)

// ImportCommand imports a bookmark export into the local database without
// going through the HTTP server or the task queue.
type ImportCommand struct {
	FilePath       string
	DatabasePath   string
	Format         string
	UserID         uint
	WrapInFolder   bool
	WrapFolderName string
	TrackingFile   string
	MaxBytes       int64
	Verbose        bool

	Out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{Out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	var userID uint64
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the bookmark export (.html, .htm or .csv) (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Format, "format", "", "Export format; detected from the file when empty ("+formatList()+")")
	fs.Uint64Var(&userID, "user", 0, "ID of the user that owns the imported links")
	fs.BoolVar(&cmd.WrapInFolder, "wrap", false, "Place the whole import under a single new folder")
	fs.StringVar(&cmd.WrapFolderName, "wrap-name", importers.DefaultWrapFolderName, "Name of the wrapping folder")
	fs.StringVar(&cmd.TrackingFile, "tracking-params", "", "YAML file with additional tracking parameters to strip")
	fs.Int64Var(&cmd.MaxBytes, "max-bytes", config.DefaultMaxUploadBytes, "Refuse files larger than this many bytes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import a browser, Raindrop or CSV bookmark export into the local database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file bookmarks.html\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import -file export.csv -format raindrop-csv -wrap -wrap-name Raindrop\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		fs.Usage()
		return fmt.Errorf("required flag -file not provided")
	}
	cmd.UserID = uint(userID)
	return nil
}

func (cmd *ImportCommand) Run() error {
	ctx := context.Background()

	content, err := readExport(cmd.FilePath, cmd.MaxBytes)
	if err != nil {
		return err
	}

	format, err := cmd.resolveFormat(content)
	if err != nil {
		return err
	}

	canon, err := newCanonicalizer(cmd.TrackingFile)
	if err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	log := commandLogger(cmd.Verbose)
	defer log.Sync()

	jobRepo := jobs.NewRepository(db.DB)
	job := &entities.ImportJob{
		UserID:         cmd.UserID,
		SourceType:     string(format),
		FileName:       utils.SanitizeFilename(cmd.FilePath),
		WrapInFolder:   cmd.WrapInFolder,
		WrapFolderName: cmd.WrapFolderName,
	}
	if err := jobRepo.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}

	auditor := audit.NewService(auditrepo.NewRepository(db.DB), log)
	defer auditor.Wait()

	pipeline := importers.NewPipeline(database.NewImportStore(db.DB), jobRepo, canon, log)
	opts := importers.Options{WrapInFolder: cmd.WrapInFolder, WrapFolderName: cmd.WrapFolderName}

	fmt.Fprintf(cmd.Out, "Importing %s as %s (job %s)\n", job.FileName, format, job.ID)
	result, err := pipeline.ProcessImportJob(ctx, job.ID, cmd.UserID, content, format, opts)
	auditor.LogImport(job, result, err)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	printResult(cmd.Out, result)
	return nil
}

func (cmd *ImportCommand) resolveFormat(content string) (importers.ImportFormat, error) {
	detection, err := importers.ResolveFormat(filepath.Base(cmd.FilePath), content, cmd.Format)
	if err != nil {
		return "", err
	}
	if cmd.Verbose && cmd.Format == "" {
		fmt.Fprintf(cmd.Out, "Detected %s (confidence %.2f)\n", detection.Format, detection.Confidence)
	}
	return detection.Format, nil
}

func printResult(w io.Writer, result *importers.Result) {
	fmt.Fprintf(w, "\n=== Import Results ===\n")
	fmt.Fprintf(w, "Created: %d\n", result.LinksCreated)
	fmt.Fprintf(w, "Already saved: %d\n", result.LinksSkipped)
	fmt.Fprintf(w, "Failed: %d\n", len(result.FailedBookmarks))

	if len(result.FailedBookmarks) > 0 {
		fmt.Fprintf(w, "\n=== Failed Bookmarks ===\n")
		for _, fb := range result.FailedBookmarks {
			where := fmt.Sprintf("#%d", fb.Index)
			if fb.Line > 0 {
				where += fmt.Sprintf(" (line %d)", fb.Line)
			}
			fmt.Fprintf(w, "%s %q %s: %s\n", where, fb.Title, fb.URL, fb.Reason)
		}
	}
}

// readExport reads path, refusing files above maxBytes.
func readExport(path string, maxBytes int64) (string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return "", err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", importers.ErrFileTooLarge, info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func formatList() string {
	names := make([]string, len(importers.AllFormats))
	for i, f := range importers.AllFormats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
