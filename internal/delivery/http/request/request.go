package request

import "github.com/user/bookmark-service/internal/entity"

// MessageRequest mirrors the runtime message a UI sends, e.g. {"action": "analyzeBookmarks"}.
type MessageRequest struct {
	Action string `json:"action"`
}

type AnalyzeRequest struct {
	Tree *entity.BookmarkNode `json:"tree"`
}
