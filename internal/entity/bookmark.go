package entity

import (
	"encoding/json"
	"fmt"
)

// NodeKind classifies a BookmarkNode for traversal.
type NodeKind int

const (
	// NodeEmpty has neither URL nor children and contributes nothing to an analysis.
	NodeEmpty NodeKind = iota
	NodeLeaf
	NodeFolder
)

// BookmarkNode is one node of a bookmark tree as delivered by the host
// bookmark store. Fields the service does not interpret (parentId, index,
// dateAdded, ...) are carried verbatim in Extra, as are id, title and url
// keys whose decoded value is empty, so "title": "" survives re-encoding.
type BookmarkNode struct {
	ID       string
	Title    string
	URL      string
	Children []*BookmarkNode
	Extra    map[string]json.RawMessage
}

// Kind reports how the analyzer treats n. A URL makes a node a leaf even
// when children are also present.
func (n *BookmarkNode) Kind() NodeKind {
	switch {
	case n == nil:
		return NodeEmpty
	case n.URL != "":
		return NodeLeaf
	case len(n.Children) > 0:
		return NodeFolder
	default:
		return NodeEmpty
	}
}

var knownNodeKeys = map[string]struct{}{
	"id":       {},
	"title":    {},
	"url":      {},
	"children": {},
}

func (n *BookmarkNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = BookmarkNode{}
	if v, ok := raw["id"]; ok {
		id, err := decodeID(v)
		if err != nil {
			return fmt.Errorf("bookmark id: %w", err)
		}
		n.ID = id
	}
	if v, ok := raw["title"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &n.Title); err != nil {
			return fmt.Errorf("bookmark title: %w", err)
		}
	}
	if v, ok := raw["url"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &n.URL); err != nil {
			return fmt.Errorf("bookmark url: %w", err)
		}
	}
	if v, ok := raw["children"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &n.Children); err != nil {
			return fmt.Errorf("bookmark children: %w", err)
		}
	}

	for k, v := range raw {
		if _, known := knownNodeKeys[k]; known && !n.decodedEmpty(k) {
			continue
		}
		if n.Extra == nil {
			n.Extra = make(map[string]json.RawMessage)
		}
		n.Extra[k] = v
	}
	return nil
}

func (n *BookmarkNode) decodedEmpty(key string) bool {
	switch key {
	case "id":
		return n.ID == ""
	case "title":
		return n.Title == ""
	case "url":
		return n.URL == ""
	}
	return false
}

func (n BookmarkNode) MarshalJSON() ([]byte, error) {
	out := n.Fields()
	if n.Children != nil {
		out["children"] = n.Children
	}
	return json.Marshal(out)
}

// Fields returns the node's own fields (everything but children) as a
// JSON-ready map. Extra fields come first so the typed fields win on clash.
func (n *BookmarkNode) Fields() map[string]any {
	out := make(map[string]any, len(n.Extra)+3)
	for k, v := range n.Extra {
		out[k] = v
	}
	if n.ID != "" {
		out["id"] = n.ID
	}
	if n.Title != "" {
		out["title"] = n.Title
	}
	if n.URL != "" {
		out["url"] = n.URL
	}
	return out
}

// decodeID accepts both string and numeric ids; Chrome uses strings, some
// exports use numbers.
func decodeID(v json.RawMessage) (string, error) {
	if string(v) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var num json.Number
	if err := json.Unmarshal(v, &num); err != nil {
		return "", err
	}
	return num.String(), nil
}

// CountLeaves returns the number of leaf nodes under root.
func CountLeaves(root *BookmarkNode) int {
	count := 0
	stack := []*BookmarkNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n.Kind() {
		case NodeLeaf:
			count++
		case NodeFolder:
			stack = append(stack, n.Children...)
		}
	}
	return count
}
