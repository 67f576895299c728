package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// csvDialect maps node fields to header names, in priority order.
type csvDialect struct {
	title       []string
	description []string
	folder      []string
	tags        []string
	created     []string
	cover       []string
}

var genericCSVDialect = csvDialect{
	title:       []string{"title", "name"},
	description: []string{"description", "note", "excerpt"},
	folder:      []string{"folder", "folder_path", "path", "category"},
	tags:        []string{"tags", "labels"},
	created:     []string{"created", "created_at", "added", "date_added"},
}

// Raindrop exports: id,title,note,excerpt,url,folder,tags,created,cover,highlights,favorite
var raindropCSVDialect = csvDialect{
	title:       []string{"title"},
	description: []string{"note", "excerpt"},
	folder:      []string{"folder"},
	tags:        []string{"tags"},
	created:     []string{"created"},
	cover:       []string{"cover"},
}

// ParseGenericCSV parses a CSV with a url column and optional
// title/description/folder/tags/created columns.
func ParseGenericCSV(content string) ([]*ParsedBookmarkNode, error) {
	return parseCSV(content, genericCSVDialect)
}

// ParseRaindropCSV parses a Raindrop.io CSV export.
func ParseRaindropCSV(content string) ([]*ParsedBookmarkNode, error) {
	return parseCSV(content, raindropCSVDialect)
}

func parseCSV(content string, dialect csvDialect) ([]*ParsedBookmarkNode, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrInvalidDocument)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrInvalidDocument, err)
	}

	index := headerIndex(header)
	if _, ok := index["url"]; !ok {
		return nil, fmt.Errorf("%w: missing required header: url", ErrInvalidDocument)
	}

	forest := newForestBuilder()
	lineNum := 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err == nil && len(record) > 0 {
			lineNum, _ = reader.FieldPos(0)
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) && csvErr.StartLine > 0 {
				lineNum = csvErr.StartLine
			}
			forest.add(nil, &ParsedBookmarkNode{
				Kind: NodeBookmark,
				Line: lineNum,
				Err:  &ParseError{Line: lineNum, Message: "malformed csv row", Err: err},
			})
			continue
		}
		if blankRecord(record) {
			continue
		}

		node := &ParsedBookmarkNode{
			Kind:        NodeBookmark,
			URL:         getCSVValue(record, index, "url"),
			Title:       firstCSVValue(record, index, dialect.title),
			Description: firstCSVValue(record, index, dialect.description),
			Tags:        splitTags(firstCSVValue(record, index, dialect.tags), ",;"),
			CoverURL:    webURL(firstCSVValue(record, index, dialect.cover)),
			Line:        lineNum,
		}
		if added, ok := parseTimestamp(firstCSVValue(record, index, dialect.created)); ok {
			node.AddedAt = &added
		}
		if node.URL == "" {
			node.Err = &ParseError{Line: lineNum, Message: "row has no url"}
		}

		forest.add(splitFolderPath(firstCSVValue(record, index, dialect.folder)), node)
	}

	return forest.roots, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(stripBOM(h)))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return index
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func firstCSVValue(record []string, headerIndex map[string]int, headers []string) string {
	for _, h := range headers {
		if v := getCSVValue(record, headerIndex, h); v != "" {
			return v
		}
	}
	return ""
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// splitFolderPath accepts "A/B" and "A > B" path notations.
func splitFolderPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	sep := "/"
	if strings.Contains(path, " > ") {
		sep = " > "
	}

	var segments []string
	for _, segment := range strings.Split(path, sep) {
		if segment = strings.TrimSpace(segment); segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// forestBuilder assembles folders from flat path columns, keeping the order
// in which each folder was first seen.
type forestBuilder struct {
	roots   []*ParsedBookmarkNode
	folders map[string]*ParsedBookmarkNode
}

func newForestBuilder() *forestBuilder {
	return &forestBuilder{folders: make(map[string]*ParsedBookmarkNode)}
}

func (b *forestBuilder) add(path []string, node *ParsedBookmarkNode) {
	if len(path) == 0 {
		b.roots = append(b.roots, node)
		return
	}
	parent := b.folder(path)
	parent.Children = append(parent.Children, node)
}

func (b *forestBuilder) folder(path []string) *ParsedBookmarkNode {
	key := strings.Join(path, "\x00")
	if f, ok := b.folders[key]; ok {
		return f
	}

	f := newFolder(path[len(path)-1])
	if len(path) == 1 {
		b.roots = append(b.roots, f)
	} else {
		parent := b.folder(path[:len(path)-1])
		parent.Children = append(parent.Children, f)
	}
	b.folders[key] = f
	return f
}
