package importers

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	untitledFolderName = "Untitled folder"
	readingListName    = "Reading List"
	safariReadingList  = "com.apple.readinglist"
)

// ParseNetscapeHTML parses a NETSCAPE-Bookmark-file-1 document as written by
// browsers and Raindrop. Folders are <DT><H3> entries followed by a nested
// <DL>; bookmarks are <DT><A HREF> entries with an optional <DD> description.
//
// The HTML parser lowercases attribute names, so ADD_DATE and add_date are
// read the same way.
func ParseNetscapeHTML(content string, format ImportFormat) ([]*ParsedBookmarkNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	root := doc.Find("dl").First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("%w: no bookmark list found", ErrInvalidDocument)
	}
	// Safari writes its top level <DT> entries straight into the body, so the
	// first list belongs to a folder rather than enclosing the document.
	switch goquery.NodeName(root.Parent()) {
	case "dt", "dd":
		root = doc.Find("body").First()
	}

	p := &netscapeParser{format: format}
	return p.walkList(root), nil
}

type netscapeParser struct {
	format ImportFormat
}

func (p *netscapeParser) walkList(list *goquery.Selection) []*ParsedBookmarkNode {
	var nodes []*ParsedBookmarkNode

	children := list.Children()
	for i := 0; i < children.Length(); i++ {
		child := children.Eq(i)
		switch goquery.NodeName(child) {
		case "dt":
			node, consumed := p.entry(child, children.Eq(i+1))
			if consumed {
				i++
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		case "p", "dl":
			// Stray <p> wrappers and lists without a heading are flattened
			// into the enclosing folder.
			nodes = append(nodes, p.walkList(child)...)
		}
	}
	return nodes
}

// entry converts one <DT>. next is the following sibling; consumed reports
// whether it belonged to this entry and must not be walked again.
func (p *netscapeParser) entry(dt, next *goquery.Selection) (node *ParsedBookmarkNode, consumed bool) {
	if h3 := dt.ChildrenFiltered("h3").First(); h3.Length() > 0 {
		folder := newFolder(folderName(h3))

		list := dt.ChildrenFiltered("dl").First()
		if list.Length() == 0 {
			switch goquery.NodeName(next) {
			case "dd":
				// Firefox folder descriptions push the list inside the <DD>.
				if dl := next.ChildrenFiltered("dl").First(); dl.Length() > 0 {
					list = dl
					consumed = true
				}
			case "dl":
				list = next
				consumed = true
			}
		}
		if list.Length() > 0 {
			folder.Children = p.walkList(list)
		}
		return folder, consumed
	}

	a := dt.ChildrenFiltered("a").First()
	if a.Length() == 0 {
		return nil, false
	}

	bookmark := p.bookmark(a)
	if goquery.NodeName(next) == "dd" {
		if bookmark != nil {
			bookmark.Description = ownText(next)
		}
		consumed = true
	}
	return bookmark, consumed
}

func (p *netscapeParser) bookmark(a *goquery.Selection) *ParsedBookmarkNode {
	href := strings.TrimSpace(a.AttrOr("href", ""))
	node := &ParsedBookmarkNode{
		Kind:  NodeBookmark,
		URL:   href,
		Title: strings.TrimSpace(a.Text()),
	}

	if href == "" {
		node.Err = &ParseError{Message: "bookmark has no href"}
		return node
	}
	// Firefox smart folders (recent tags, most visited) are queries, not links.
	if p.format == FormatFirefox && strings.HasPrefix(strings.ToLower(href), "place:") {
		return nil
	}

	if added, ok := parseEpoch(a.AttrOr("add_date", "")); ok {
		node.AddedAt = &added
	}

	// ICON usually holds an inline data: URI; only remote icons are kept.
	for _, attr := range []string{"icon_uri", "icon"} {
		if icon := webURL(a.AttrOr(attr, "")); icon != "" {
			node.IconURL = icon
			break
		}
	}

	node.CoverURL = webURL(a.AttrOr("data-cover", ""))
	node.Tags = splitTags(a.AttrOr("tags", ""), ",")
	return node
}

func folderName(h3 *goquery.Selection) string {
	name := strings.TrimSpace(h3.Text())
	if strings.EqualFold(h3.AttrOr("id", ""), safariReadingList) || strings.EqualFold(name, safariReadingList) {
		return readingListName
	}
	if name == "" {
		return untitledFolderName
	}
	return name
}

// ownText returns the text nodes directly under s, ignoring nested lists.
func ownText(s *goquery.Selection) string {
	text := s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
		return goquery.NodeName(c) == "#text"
	}).Text()
	return strings.TrimSpace(text)
}
