package extractor

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/bookmark-service/internal/entity"
)

// ExtractMetadata parses HTML content and extracts the page title and the
// description and keywords meta tags. Missing values are empty strings.
func ExtractMetadata(r io.Reader) (entity.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return entity.PageMetadata{}, err
	}

	// Only the first matching meta counts, even when its content is empty.
	return entity.PageMetadata{
		Title:       doc.Find("title").First().Text(),
		Description: doc.Find(`meta[name="description"]`).First().AttrOr("content", ""),
		Keywords:    doc.Find(`meta[name="keywords"]`).First().AttrOr("content", ""),
	}, nil
}

// ExtractMetadataFromString is ExtractMetadata for an already rendered document.
func ExtractMetadataFromString(html string) (entity.PageMetadata, error) {
	return ExtractMetadata(strings.NewReader(html))
}
