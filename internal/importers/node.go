package importers

import "time"

type NodeKind string

const (
	NodeFolder   NodeKind = "folder"
	NodeBookmark NodeKind = "bookmark"
)

// ParsedBookmarkNode is one node of the forest produced by a parser.
// Folders carry Name and Children in document order; bookmarks carry the link
// fields. A bookmark with Err set was malformed in the source and is reported
// as a failed item when the pipeline reaches it.
type ParsedBookmarkNode struct {
	Kind     NodeKind
	Name     string
	Children []*ParsedBookmarkNode

	URL         string
	Title       string
	Description string
	AddedAt     *time.Time
	IconURL     string
	CoverURL    string
	Tags        []string

	Line int // source line for line-oriented formats
	Err  error
}

func (n *ParsedBookmarkNode) IsFolder() bool {
	return n.Kind == NodeFolder
}

func newFolder(name string) *ParsedBookmarkNode {
	return &ParsedBookmarkNode{Kind: NodeFolder, Name: name}
}

// CountBookmarks returns the number of bookmark leaves in the forest,
// malformed ones included.
func CountBookmarks(forest []*ParsedBookmarkNode) int {
	count := 0
	for _, n := range forest {
		if n.IsFolder() {
			count += CountBookmarks(n.Children)
		} else {
			count++
		}
	}
	return count
}
