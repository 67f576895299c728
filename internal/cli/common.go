package cli

import (
	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/logger"
)

// newCanonicalizer builds a canonicalizer with the extra tracking parameters
// listed in trackingFile, if one is given.
func newCanonicalizer(trackingFile string) (*canonical.Canonicalizer, error) {
	if trackingFile == "" {
		return canonical.Default(), nil
	}
	extra, err := canonical.LoadTrackingParams(trackingFile)
	if err != nil {
		return nil, err
	}
	return canonical.New(extra...), nil
}

func commandLogger(verbose bool) logger.Logger {
	if verbose {
		return logger.New("debug", true)
	}
	return logger.New("warn", true)
}
