package entity

import (
	"encoding/json"
)

// PageMetadata is what a successful fetch extracts from a bookmarked page.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
}

// FetchOutcome is the result of enriching one unique bookmark: either page
// metadata or a broken marker. Metadata is nil exactly when Broken is set.
type FetchOutcome struct {
	Broken   bool
	Metadata *PageMetadata
}

func Enriched(meta PageMetadata) FetchOutcome {
	return FetchOutcome{Metadata: &meta}
}

func Broken() FetchOutcome {
	return FetchOutcome{Broken: true}
}

// AnalysisResult is the record produced for one bookmark leaf.
type AnalysisResult struct {
	Bookmark  BookmarkNode
	Duplicate bool
	// Outcome is nil for duplicates, which are never fetched.
	Outcome *FetchOutcome
}

func NewDuplicateResult(leaf *BookmarkNode) AnalysisResult {
	return AnalysisResult{Bookmark: leafCopy(leaf), Duplicate: true}
}

func NewEnrichedResult(leaf *BookmarkNode, outcome FetchOutcome) AnalysisResult {
	return AnalysisResult{Bookmark: leafCopy(leaf), Outcome: &outcome}
}

func (r AnalysisResult) IsBroken() bool {
	return r.Outcome != nil && r.Outcome.Broken
}

// MarshalJSON flattens the bookmark's own fields and overlays the
// enrichment keys, so a fetched page title replaces the bookmark title.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	out := r.Bookmark.Fields()
	switch {
	case r.Duplicate:
		out["duplicate"] = true
	case r.Outcome == nil:
	case r.Outcome.Broken:
		out["broken"] = true
	default:
		out["title"] = r.Outcome.Metadata.Title
		out["description"] = r.Outcome.Metadata.Description
		out["keywords"] = r.Outcome.Metadata.Keywords
		out["broken"] = false
	}
	return json.Marshal(out)
}

// leafCopy detaches the result from the input tree; a leaf's children are
// never part of its result record.
func leafCopy(n *BookmarkNode) BookmarkNode {
	c := *n
	c.Children = nil
	return c
}
