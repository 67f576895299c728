package importers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRaindropCSV(t *testing.T) {
	forest, err := ParseRaindropCSV(raindropCSVExport)
	require.NoError(t, err)
	require.Len(t, forest, 2)

	dev := forest[0]
	assert.Equal(t, "Dev", dev.Name)
	require.Len(t, dev.Children, 2)

	golang := dev.Children[0]
	assert.Equal(t, "Go", golang.Name)
	require.Len(t, golang.Children, 2)

	blog := golang.Children[0]
	assert.Equal(t, "https://go.dev/blog/", blog.URL)
	assert.Equal(t, "Go blog", blog.Title)
	assert.Equal(t, "Official blog", blog.Description, "excerpt is used when the note is empty")
	assert.Equal(t, []string{"go", "blog"}, blog.Tags)
	assert.Equal(t, "https://go.dev/cover.png", blog.CoverURL)
	assert.Equal(t, 2, blog.Line)
	require.NotNil(t, blog.AddedAt)
	assert.Equal(t, time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC), *blog.AddedAt)

	gin := golang.Children[1]
	assert.Equal(t, "My web framework", gin.Description)

	broken := dev.Children[1]
	assert.Equal(t, 4, broken.Line)
	var parseErr *ParseError
	require.ErrorAs(t, broken.Err, &parseErr)
	assert.Equal(t, 4, parseErr.Line)

	top := forest[1]
	assert.Equal(t, NodeBookmark, top.Kind)
	assert.Equal(t, "https://example.org/", top.URL)
}

func TestParseGenericCSV(t *testing.T) {
	content := "URL,Name,Category,Labels,Date_Added\n" +
		"https://a.com/,A,Work > Tools,x;y,2024-03-01\n" +
		"\n" +
		",,,\n" +
		"https://b.com/,B,,,\n"

	forest, err := ParseGenericCSV(content)
	require.NoError(t, err)
	require.Len(t, forest, 2)

	work := forest[0]
	assert.Equal(t, "Work", work.Name)
	require.Len(t, work.Children, 1)
	tools := work.Children[0]
	assert.Equal(t, "Tools", tools.Name)
	require.Len(t, tools.Children, 1)

	a := tools.Children[0]
	assert.Equal(t, "A", a.Title)
	assert.Equal(t, []string{"x", "y"}, a.Tags)
	require.NotNil(t, a.AddedAt)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *a.AddedAt)

	assert.Equal(t, "https://b.com/", forest[1].URL)
	assert.Equal(t, 2, CountBookmarks(forest))
}

func TestParseGenericCSV_MalformedRowIsRecorded(t *testing.T) {
	content := "url,title\n" +
		"https://a.com/,\"unterminated\n"

	forest, err := ParseGenericCSV(content)
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Error(t, forest[0].Err)
}

func TestParseCSV_InvalidDocument(t *testing.T) {
	_, err := ParseGenericCSV("")
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = ParseRaindropCSV("title,link\nA,https://a.com\n")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestSplitFolderPath(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitFolderPath("a/b"))
	assert.Equal(t, []string{"a/b", "c"}, splitFolderPath("a/b > c"))
	assert.Equal(t, []string{"a"}, splitFolderPath(" /a/ "))
	assert.Nil(t, splitFolderPath(""))
}
