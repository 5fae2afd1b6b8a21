package bookmarkfile

import (
	"encoding/json"

	"github.com/user/bookmark-service/internal/entity"
)

// chromeNode is a node as stored in the Chrome profile Bookmarks file.
type chromeNode struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	URL       string        `json:"url"`
	DateAdded string        `json:"date_added"`
	Children  []*chromeNode `json:"children"`
}

// Field order matches what chrome.bookmarks.getTree reports.
type chromeRoots struct {
	BookmarkBar *chromeNode `json:"bookmark_bar"`
	Other       *chromeNode `json:"other"`
	Synced      *chromeNode `json:"synced"`
}

func parseChromeRoots(raw json.RawMessage) (*entity.BookmarkNode, error) {
	var roots chromeRoots
	if err := json.Unmarshal(raw, &roots); err != nil {
		return nil, err
	}

	root := &entity.BookmarkNode{ID: "0"}
	for _, r := range []*chromeNode{roots.BookmarkBar, roots.Other, roots.Synced} {
		if r != nil {
			root.Children = append(root.Children, r.toEntity())
		}
	}
	return root, nil
}

func (c *chromeNode) toEntity() *entity.BookmarkNode {
	n := &entity.BookmarkNode{ID: c.ID, Title: c.Name}
	if c.Type == "url" || (c.Type == "" && c.URL != "") {
		n.URL = c.URL
	}
	if c.DateAdded != "" {
		n.Extra = map[string]json.RawMessage{"date_added": rawString(c.DateAdded)}
	}
	for _, child := range c.Children {
		if child == nil {
			continue
		}
		n.Children = append(n.Children, child.toEntity())
	}
	return n
}

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
