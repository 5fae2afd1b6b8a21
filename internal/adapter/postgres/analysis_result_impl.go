package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/bookmark-service/internal/entity"
)

// saveResults replaces the stored results of a run, keeping traversal order
// in the position column.
func saveResults(ctx context.Context, tx pgx.Tx, runID string, results []entity.AnalysisResult) error {
	if _, err := tx.Exec(ctx, `DELETE FROM analysis_results WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("clear results of run %s: %w", runID, err)
	}
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO analysis_results (run_id, position, bookmark, duplicate, broken, page_title, description, keywords)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	batch := &pgx.Batch{}
	for i, res := range results {
		bookmark, err := json.Marshal(res.Bookmark)
		if err != nil {
			return fmt.Errorf("encode bookmark %d: %w", i, err)
		}
		var title, description, keywords *string
		if res.Outcome != nil && res.Outcome.Metadata != nil {
			title = &res.Outcome.Metadata.Title
			description = &res.Outcome.Metadata.Description
			keywords = &res.Outcome.Metadata.Keywords
		}
		batch.Queue(query, runID, i, bookmark, res.Duplicate, res.IsBroken(), title, description, keywords)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert results of run %s: %w", runID, err)
	}
	return nil
}

// loadResults retrieves the results of a run in traversal order.
func loadResults(ctx context.Context, db *pgxpool.Pool, runID string) ([]entity.AnalysisResult, error) {
	query := `
		SELECT bookmark, duplicate, broken, page_title, description, keywords
		FROM analysis_results
		WHERE run_id = $1
		ORDER BY position ASC;
	`
	rows, err := db.Query(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []entity.AnalysisResult{}
	for rows.Next() {
		var (
			bookmark                     []byte
			duplicate, broken            bool
			title, description, keywords *string
		)
		if err := rows.Scan(&bookmark, &duplicate, &broken, &title, &description, &keywords); err != nil {
			return nil, err
		}

		var node entity.BookmarkNode
		if err := json.Unmarshal(bookmark, &node); err != nil {
			return nil, fmt.Errorf("decode bookmark: %w", err)
		}

		switch {
		case duplicate:
			results = append(results, entity.NewDuplicateResult(&node))
		case broken:
			results = append(results, entity.NewEnrichedResult(&node, entity.Broken()))
		default:
			results = append(results, entity.NewEnrichedResult(&node, entity.Enriched(entity.PageMetadata{
				Title:       deref(title),
				Description: deref(description),
				Keywords:    deref(keywords),
			})))
		}
	}
	return results, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
