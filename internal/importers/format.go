package importers

import (
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
)

// ImportFormat is the closed set of supported export formats.
type ImportFormat string

const (
	FormatChrome       ImportFormat = "chrome"
	FormatFirefox      ImportFormat = "firefox"
	FormatSafari       ImportFormat = "safari"
	FormatEdge         ImportFormat = "edge"
	FormatRaindropHTML ImportFormat = "raindrop-html"
	FormatRaindropCSV  ImportFormat = "raindrop-csv"
	FormatCSV          ImportFormat = "csv"
)

// AllFormats lists every ImportFormat.
var AllFormats = []ImportFormat{
	FormatChrome,
	FormatFirefox,
	FormatSafari,
	FormatEdge,
	FormatRaindropHTML,
	FormatRaindropCSV,
	FormatCSV,
}

// ParseFormat validates a user supplied format tag.
func ParseFormat(s string) (ImportFormat, error) {
	f := ImportFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// IsHTML reports whether the format is a Netscape bookmark file.
func (f ImportFormat) IsHTML() bool {
	switch f {
	case FormatChrome, FormatFirefox, FormatSafari, FormatEdge, FormatRaindropHTML:
		return true
	}
	return false
}

var importExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".csv":  true,
}

// IsValidImportExtension reports whether filename has an accepted extension.
func IsValidImportExtension(filename string) bool {
	return importExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Detection is the classifier's verdict. Confidence is in (0, 1]; higher is more certain.
type Detection struct {
	Format     ImportFormat `json:"format"`
	Confidence float64      `json:"confidence"`
}

// sniffLimit bounds how much of the file is inspected for signatures.
const sniffLimit = 256 * 1024

const (
	netscapeDoctype = "netscape-bookmark-file-1"

	confidenceGenericDoctype = 0.4
	confidenceGenericList    = 0.3
	confidenceGenericCSV     = 0.7
)

// htmlSignature describes the markers one exporter leaves in its files.
// Markers are matched against lowercased content.
type htmlSignature struct {
	format  ImportFormat
	markers []string
	base    float64
}

// htmlSignatures is ordered from most to least distinctive. On equal
// confidence the earlier entry wins.
var htmlSignatures = []htmlSignature{
	{
		format:  FormatRaindropHTML,
		markers: []string{"data-cover=", "data-important=", "<title>raindrop", "<h1>raindrop"},
		base:    0.85,
	},
	{
		format: FormatFirefox,
		markers: []string{
			">bookmarks menu<", ">bookmarks toolbar<", "icon_uri=", "last_charset=",
			"shortcuturl=", `href="place:`, "unfiled_bookmarks_folder=",
		},
		base: 0.7,
	},
	{
		format:  FormatSafari,
		markers: []string{"com.apple.readinglist", ">reading list<", "<h3 folded"},
		base:    0.7,
	},
	{
		format:  FormatEdge,
		markers: []string{">favorites bar<", ">favourites bar<", ">other favorites<", ">other favourites<"},
		base:    0.75,
	},
	{
		format:  FormatChrome,
		markers: []string{">bookmarks bar<", ">other bookmarks<", ">mobile bookmarks<"},
		base:    0.75,
	},
}

// raindropColumns are CSV header tokens only Raindrop exports carry.
var raindropColumns = []string{"folder", "excerpt", "cover", "highlights", "favorite", "created", "note"}

// DetectFormat classifies an export from its file name and content. An empty
// filename skips the extension check and sniffs the content instead.
func DetectFormat(filename, content string) (Detection, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if filename != "" && !importExtensions[ext] {
		return Detection{}, &ValidationError{Field: "file", Err: fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)}
	}

	content = stripBOM(content)
	if strings.TrimSpace(content) == "" {
		return Detection{}, &ValidationError{Field: "file", Err: ErrEmptyFile}
	}

	head := content
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}

	switch ext {
	case ".csv":
		return detectCSV(head)
	case ".html", ".htm":
		return detectHTML(strings.ToLower(head))
	}

	lower := strings.ToLower(head)
	if strings.Contains(lower, netscapeDoctype) || strings.Contains(lower, "<dl") || strings.Contains(lower, "<html") {
		return detectHTML(lower)
	}
	return detectCSV(head)
}

// ResolveFormat picks the format for an upload. Without a requested tag it
// returns the detected format. A requested tag still has to pass the
// signature check and may only choose a variant within the detected family.
func ResolveFormat(filename, content, requested string) (Detection, error) {
	var format ImportFormat
	if strings.TrimSpace(requested) != "" {
		f, err := ParseFormat(requested)
		if err != nil {
			return Detection{}, &ValidationError{Field: "format", Err: err}
		}
		format = f
	}

	detection, err := DetectFormat(filename, content)
	if err != nil || format == "" {
		return detection, err
	}
	if format.IsHTML() != detection.Format.IsHTML() {
		return Detection{}, &ValidationError{
			Field: "format",
			Err:   fmt.Errorf("%w: file looks like %s, not %s", ErrFormatMismatch, detection.Format, format),
		}
	}
	return Detection{Format: format, Confidence: detection.Confidence}, nil
}

func detectHTML(lower string) (Detection, error) {
	hasDoctype := strings.Contains(lower, netscapeDoctype)
	if !hasDoctype && !strings.Contains(lower, "<dl") {
		return Detection{}, &ValidationError{Field: "file", Err: fmt.Errorf("%w: no netscape bookmark structure", ErrUnrecognizedFormat)}
	}

	best := Detection{Format: FormatChrome, Confidence: confidenceGenericList}
	if hasDoctype {
		best.Confidence = confidenceGenericDoctype
	}

	for _, sig := range htmlSignatures {
		hits := 0
		for _, marker := range sig.markers {
			if strings.Contains(lower, marker) {
				hits++
			}
		}
		if sig.format == FormatRaindropHTML && commentMentions(lower, "raindrop") {
			hits++
		}
		if hits == 0 {
			continue
		}

		confidence := sig.base + 0.05*float64(hits-1)
		if confidence > 0.99 {
			confidence = 0.99
		}
		if confidence > best.Confidence {
			best = Detection{Format: sig.format, Confidence: confidence}
		}
	}
	return best, nil
}

// commentMentions reports whether any HTML comment contains word.
func commentMentions(lower, word string) bool {
	rest := lower
	for {
		start := strings.Index(rest, "<!--")
		if start < 0 {
			return false
		}
		rest = rest[start+4:]
		end := strings.Index(rest, "-->")
		if end < 0 {
			return strings.Contains(rest, word)
		}
		if strings.Contains(rest[:end], word) {
			return true
		}
		rest = rest[end+3:]
	}
}

func detectCSV(head string) (Detection, error) {
	reader := csv.NewReader(strings.NewReader(head))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Detection{}, &ValidationError{Field: "file", Err: fmt.Errorf("%w: unreadable csv header: %v", ErrUnrecognizedFormat, err)}
	}

	columns := headerIndex(header)
	if _, ok := columns["url"]; !ok {
		return Detection{}, &ValidationError{Field: "file", Err: fmt.Errorf("%w: csv header has no url column", ErrUnrecognizedFormat)}
	}

	hits := 0
	for _, col := range raindropColumns {
		if _, ok := columns[col]; ok {
			hits++
		}
	}
	_, hasFolder := columns["folder"]
	if hasFolder || hits >= 2 {
		confidence := 0.75 + 0.05*float64(hits)
		if confidence > 0.95 {
			confidence = 0.95
		}
		return Detection{Format: FormatRaindropCSV, Confidence: confidence}, nil
	}
	return Detection{Format: FormatCSV, Confidence: confidenceGenericCSV}, nil
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
