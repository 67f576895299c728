package importers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse turns an export file into a bookmark forest using the parser for format.
func Parse(format ImportFormat, content string) ([]*ParsedBookmarkNode, error) {
	content = stripBOM(content)

	switch format {
	case FormatChrome, FormatFirefox, FormatSafari, FormatEdge, FormatRaindropHTML:
		return ParseNetscapeHTML(content, format)
	case FormatRaindropCSV:
		return ParseRaindropCSV(content)
	case FormatCSV:
		return ParseGenericCSV(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// parseEpoch reads a Unix timestamp in seconds, milliseconds or microseconds.
// Firefox writes microseconds in some versions, Chrome and Safari seconds.
func parseEpoch(s string) (time.Time, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}

	switch {
	case n >= 1e15:
		return time.UnixMicro(n).UTC(), true
	case n >= 1e12:
		return time.UnixMilli(n).UTC(), true
	default:
		return time.Unix(n, 0).UTC(), true
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts the date formats seen in CSV exports.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return parseEpoch(s)
}

// splitTags splits on any of seps, trimming and dropping blanks and repeats.
func splitTags(s string, seps string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})

	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// webURL returns s if it is an absolute http(s) URL, otherwise "".
func webURL(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	return ""
}
