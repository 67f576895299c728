package importers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat_HTML(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected ImportFormat
	}{
		{"chrome", chromeExport, FormatChrome},
		{"firefox", firefoxExport, FormatFirefox},
		{"safari", safariExport, FormatSafari},
		{"edge", edgeExport, FormatEdge},
		{"raindrop", raindropExport, FormatRaindropHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detection, err := DetectFormat("bookmarks.html", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, detection.Format)
			assert.Greater(t, detection.Confidence, confidenceGenericDoctype)
			assert.LessOrEqual(t, detection.Confidence, 1.0)
		})
	}
}

func TestDetectFormat_GenericDoctypeFallsBackToChrome(t *testing.T) {
	content := "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n<DL><p>\n<DT><A HREF=\"https://a.com/\">A</A>\n</DL>"

	detection, err := DetectFormat("export.htm", content)
	require.NoError(t, err)
	assert.Equal(t, FormatChrome, detection.Format)
	assert.Equal(t, confidenceGenericDoctype, detection.Confidence)

	specific, err := DetectFormat("export.html", chromeExport)
	require.NoError(t, err)
	assert.Greater(t, specific.Confidence, detection.Confidence)
}

func TestDetectFormat_RaindropCommentOutranksDoctype(t *testing.T) {
	content := "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n<!-- exported by Raindrop -->\n<DL><p>\n<DT><A HREF=\"https://a.com/\">A</A>\n</DL>"

	detection, err := DetectFormat("export.html", content)
	require.NoError(t, err)
	assert.Equal(t, FormatRaindropHTML, detection.Format)
}

func TestDetectFormat_RaindropLinkInChromeFile(t *testing.T) {
	// A bookmark pointing at raindrop.io is not a Raindrop export.
	content := strings.Replace(chromeExport, "https://news.ycombinator.com/", "https://raindrop.io/", 1)

	detection, err := DetectFormat("bookmarks.html", content)
	require.NoError(t, err)
	assert.Equal(t, FormatChrome, detection.Format)
}

func TestDetectFormat_CSV(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected ImportFormat
	}{
		{"folder column means raindrop", "url,folder,tags\nhttps://a.com,Dev,go\n", FormatRaindropCSV},
		{"full raindrop header", raindropCSVExport, FormatRaindropCSV},
		{"plain", "url,title\nhttps://a.com,A\n", FormatCSV},
		{"header case and spacing", " URL , Title \nhttps://a.com,A\n", FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detection, err := DetectFormat("links.csv", tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, detection.Format)
		})
	}
}

func TestDetectFormat_RaindropCSVBeatsGenericConfidence(t *testing.T) {
	raindrop, err := DetectFormat("a.csv", "url,folder,tags\n")
	require.NoError(t, err)
	generic, err := DetectFormat("b.csv", "url,title\n")
	require.NoError(t, err)

	assert.Greater(t, raindrop.Confidence, generic.Confidence)
}

func TestDetectFormat_SniffsWithoutFilename(t *testing.T) {
	detection, err := DetectFormat("", "url,title\nhttps://a.com,A\n")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, detection.Format)

	detection, err = DetectFormat("", firefoxExport)
	require.NoError(t, err)
	assert.Equal(t, FormatFirefox, detection.Format)
}

func TestDetectFormat_StripsBOM(t *testing.T) {
	detection, err := DetectFormat("links.csv", "\ufeffurl,title\nhttps://a.com,A\n")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, detection.Format)
}

func TestDetectFormat_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		want     error
	}{
		{"unsupported extension", "bookmarks.json", "{}", ErrUnsupportedExtension},
		{"empty file", "bookmarks.html", "  \n", ErrEmptyFile},
		{"html without bookmark list", "page.html", "<html><body>hello</body></html>", ErrUnrecognizedFormat},
		{"csv without url column", "links.csv", "title,link\nA,https://a.com\n", ErrUnrecognizedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectFormat(tt.filename, tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestIsValidImportExtension(t *testing.T) {
	assert.True(t, IsValidImportExtension("bookmarks.html"))
	assert.True(t, IsValidImportExtension("Bookmarks.HTM"))
	assert.True(t, IsValidImportExtension("raindrop.csv"))
	assert.False(t, IsValidImportExtension("bookmarks.json"))
	assert.False(t, IsValidImportExtension("bookmarks"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Raindrop-HTML ")
	require.NoError(t, err)
	assert.Equal(t, FormatRaindropHTML, f)

	_, err = ParseFormat("opera")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestResolveFormat(t *testing.T) {
	t.Run("detects without a requested tag", func(t *testing.T) {
		d, err := ResolveFormat("bookmarks.html", firefoxExport, "")
		require.NoError(t, err)
		assert.Equal(t, FormatFirefox, d.Format)
	})

	t.Run("requested tag picks the variant within the family", func(t *testing.T) {
		d, err := ResolveFormat("bookmarks.html", chromeExport, "safari")
		require.NoError(t, err)
		assert.Equal(t, FormatSafari, d.Format)
		assert.True(t, d.Format.IsHTML())

		d, err = ResolveFormat("export.csv", raindropCSVExport, "csv")
		require.NoError(t, err)
		assert.Equal(t, FormatCSV, d.Format)
	})

	t.Run("requested tag does not bypass the signature check", func(t *testing.T) {
		_, err := ResolveFormat("bookmarks.html", "hello, this is not a bookmark file", "chrome")
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)

		_, err = ResolveFormat("bookmarks.csv", "name,title\nA,B\n", "csv")
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
	})

	t.Run("requested tag from the other family", func(t *testing.T) {
		_, err := ResolveFormat("bookmarks.html", chromeExport, "raindrop-csv")
		assert.ErrorIs(t, err, ErrFormatMismatch)

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "format", validation.Field)
	})

	t.Run("unknown and empty", func(t *testing.T) {
		_, err := ResolveFormat("bookmarks.html", chromeExport, "opera")
		assert.ErrorIs(t, err, ErrUnknownFormat)

		_, err = ResolveFormat("bookmarks.html", "  ", "chrome")
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}
