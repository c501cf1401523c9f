package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/senti/internal/models"
	"github.com/desertthunder/senti/internal/shared"
)

// AnalysisRepository persists results classified while no user was logged in.
type AnalysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository creates a new [AnalysisRepository] with the given database connection
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts a under scope, assigning its ID and, when unset, its creation time.
func (r *AnalysisRepository) Create(ctx context.Context, scope string, a *models.Analysis) error {
	if strings.TrimSpace(scope) == "" {
		return fmt.Errorf("%w: scope is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("%w: analysis text is empty", shared.ErrInvalidInput)
	}
	if !a.Sentiment.Valid() {
		return fmt.Errorf("%w: unknown sentiment %q", shared.ErrInvalidInput, a.Sentiment)
	}

	sequence, err := NextSequence(ctx, r.db, "analyses")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	a.ID = shared.GenerateID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO analyses (id, sequence, scope, text, sentiment, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, a.ID, sequence, scope, a.Text, string(a.Sentiment), a.Confidence, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// List returns the analyses stored under scope, newest first. A non-positive limit returns all of them.
func (r *AnalysisRepository) List(ctx context.Context, scope string, limit int) ([]models.Analysis, error) {
	query := `
		SELECT id, text, sentiment, confidence, created_at
		FROM analyses
		WHERE scope = ?
		ORDER BY sequence DESC
	`
	args := []any{scope}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var result []models.Analysis
	for rows.Next() {
		var (
			a         models.Analysis
			sentiment string
		)
		if err := rows.Scan(&a.ID, &a.Text, &sentiment, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		a.Sentiment = models.Label(sentiment)
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return result, nil
}

// Clear deletes every analysis stored under scope and returns how many were removed.
func (r *AnalysisRepository) Clear(ctx context.Context, scope string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM analyses WHERE scope = ?`, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to clear analyses: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}
