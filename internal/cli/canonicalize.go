package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
)

// CanonicalizeCommand prints the canonical form of each URL argument.
type CanonicalizeCommand struct {
	URLs         []string
	TrackingFile string
	JSON         bool

	Out io.Writer
}

func NewCanonicalizeCommand() *CanonicalizeCommand {
	return &CanonicalizeCommand{Out: os.Stdout}
}

func (cmd *CanonicalizeCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("canonicalize", flag.ExitOnError)

	fs.StringVar(&cmd.TrackingFile, "tracking-params", "", "YAML file with additional tracking parameters to strip")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the full result as JSON lines")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s canonicalize [options] <url>...\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the canonical key of each URL.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s canonicalize 'http://www.example.com/a/?utm_source=x'\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.URLs = fs.Args()
	if len(cmd.URLs) == 0 {
		fs.Usage()
		return fmt.Errorf("at least one url is required")
	}
	return nil
}

// Run prints one line per URL. Invalid URLs are reported inline and make
// Run return an error once every URL has been printed.
func (cmd *CanonicalizeCommand) Run() error {
	canon, err := newCanonicalizer(cmd.TrackingFile)
	if err != nil {
		return err
	}

	invalid := 0
	enc := json.NewEncoder(cmd.Out)
	for _, raw := range cmd.URLs {
		res, err := canon.Canonicalize(raw)
		if err != nil {
			invalid++
			fmt.Fprintf(cmd.Out, "%s\terror: %v\n", raw, err)
			continue
		}
		if cmd.JSON {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(cmd.Out, "%s\t%s\n", raw, res.URLKey)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d urls could not be canonicalized", invalid, len(cmd.URLs))
	}
	return nil
}
