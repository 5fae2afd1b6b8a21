package bookmarkfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/repository"
)

var ErrUnsupportedFormat = errors.New("unsupported bookmark file format")

// Provider reads the bookmark tree from a file on every call, so edits made
// by the browser between runs are picked up.
type Provider struct {
	path string
}

var _ repository.BookmarkTreeProvider = (*Provider)(nil)

func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

func (p *Provider) GetTree(ctx context.Context) (*entity.BookmarkNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks file: %w", err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.path, err)
	}
	return root, nil
}

// Parse accepts either a Chrome profile Bookmarks file (an object with a
// "roots" key) or a chrome.bookmarks.getTree dump (a node or an array of nodes).
func Parse(data []byte) (*entity.BookmarkNode, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}

	switch data[0] {
	case '[':
		var nodes []*entity.BookmarkNode
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, err
		}
		if len(nodes) == 1 {
			return nodes[0], nil
		}
		return &entity.BookmarkNode{Children: nodes}, nil

	case '{':
		var probe struct {
			Roots json.RawMessage `json:"roots"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, err
		}
		if probe.Roots != nil {
			return parseChromeRoots(probe.Roots)
		}
		var node entity.BookmarkNode
		if err := json.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		return &node, nil
	}
	return nil, ErrUnsupportedFormat
}
