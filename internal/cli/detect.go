package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/importers"
)

// DetectCommand reports which export format a file is and how many
// bookmarks it holds, without touching the database.
type DetectCommand struct {
	FilePath string
	MaxBytes int64
	Parse    bool

	Out io.Writer
}

func NewDetectCommand() *DetectCommand {
	return &DetectCommand{Out: os.Stdout}
}

func (cmd *DetectCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to the bookmark export (required)")
	fs.Int64Var(&cmd.MaxBytes, "max-bytes", config.DefaultMaxUploadBytes, "Refuse files larger than this many bytes")
	fs.BoolVar(&cmd.Parse, "parse", true, "Also parse the file and count bookmarks")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s detect -file <path>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Detect the format of a bookmark export.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		fs.Usage()
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *DetectCommand) Run() error {
	content, err := readExport(cmd.FilePath, cmd.MaxBytes)
	if err != nil {
		return err
	}

	detection, err := importers.DetectFormat(filepath.Base(cmd.FilePath), content)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Out, "Format: %s\n", detection.Format)
	fmt.Fprintf(cmd.Out, "Confidence: %.2f\n", detection.Confidence)

	if !cmd.Parse {
		return nil
	}
	forest, err := importers.Parse(detection.Format, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Out, "Bookmarks: %d\n", importers.CountBookmarks(forest))
	return nil
}
