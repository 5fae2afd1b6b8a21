package repository

import (
	"context"

	"github.com/user/bookmark-service/internal/entity"
)

// BookmarkTreeProvider returns the root of the user's bookmark tree.
type BookmarkTreeProvider interface {
	GetTree(ctx context.Context) (*entity.BookmarkNode, error)
}
