package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/user/bookmark-service/internal/entity"
)

const (
	titleColumnWidth = 50
	urlColumnWidth   = 70
)

// writeTable renders results in traversal order with a summary footer.
func writeTable(w io.Writer, results []entity.AnalysisResult, summary entity.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Status", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleColumnWidth, WidthMaxEnforcer: text.Trim},
		{Name: "URL", WidthMax: urlColumnWidth, WidthMaxEnforcer: text.Trim},
	})

	for i, r := range results {
		t.AppendRow(table.Row{i + 1, status(r), title(r), r.Bookmark.URL})
	}
	t.AppendFooter(table.Row{"", "", "", summaryLine(summary)})
	t.Render()
}

func status(r entity.AnalysisResult) string {
	switch {
	case r.Duplicate:
		return "duplicate"
	case r.IsBroken():
		return "broken"
	default:
		return "ok"
	}
}

// title prefers the fetched page title over the bookmark's own.
func title(r entity.AnalysisResult) string {
	if r.Outcome != nil && r.Outcome.Metadata != nil && r.Outcome.Metadata.Title != "" {
		return r.Outcome.Metadata.Title
	}
	return r.Bookmark.Title
}
