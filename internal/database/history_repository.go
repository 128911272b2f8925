package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

const (
	historyPreviewRunes = 120
	defaultListLimit    = 50
	maxListLimit        = 500
)

// HistoryRepository handles classification_history rows.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a history record, assigning an id when missing.
func (r *HistoryRepository) Create(ctx context.Context, h *domain.ClassificationHistory) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query := `
		INSERT INTO classification_history (
			id, text_hash, text_preview, source_hint, category, reason_code, geography, domain
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		h.ID,
		h.TextHash,
		h.TextPreview,
		h.SourceHint,
		h.Category,
		h.ReasonCode,
		h.Geography,
		h.Domain,
	).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create classification history: %w", err)
	}

	return nil
}

// Record persists one classification. It satisfies processor.Recorder.
func (r *HistoryRepository) Record(ctx context.Context, in domain.ClassificationInput, res domain.ClassificationResult) error {
	h := NewHistory(in, res)
	return r.Create(ctx, &h)
}

// NewHistory builds the history row for a classification.
func NewHistory(in domain.ClassificationInput, res domain.ClassificationResult) domain.ClassificationHistory {
	sum := sha256.Sum256([]byte(in.Text))

	h := domain.ClassificationHistory{
		TextHash:    hex.EncodeToString(sum[:]),
		TextPreview: truncate(in.Text, historyPreviewRunes),
		SourceHint:  in.SourceHint,
		Category:    res.Category.String(),
		ReasonCode:  string(res.Reason),
	}
	if geo, ok := res.Category.Geography(); ok {
		h.Geography = geo.String()
	}
	if d, ok := res.Category.Domain(); ok {
		h.Domain = d.String()
	}
	return h
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// List returns history newest first.
func (r *HistoryRepository) List(ctx context.Context, limit, offset int) ([]domain.ClassificationHistory, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	query := `
		SELECT id, text_hash, text_preview, source_hint, category, reason_code, geography, domain, created_at
		FROM classification_history
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	history := []domain.ClassificationHistory{}
	if err := r.db.SelectContext(ctx, &history, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list classification history: %w", err)
	}

	return history, nil
}

// Count returns the number of history rows.
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM classification_history`); err != nil {
		return 0, fmt.Errorf("failed to count classification history: %w", err)
	}
	return n, nil
}

// CountByReason breaks history down by reason code, most frequent first.
func (r *HistoryRepository) CountByReason(ctx context.Context) ([]domain.ReasonCount, error) {
	query := `
		SELECT reason_code, COUNT(*) AS count
		FROM classification_history
		GROUP BY reason_code
		ORDER BY count DESC, reason_code ASC
	`

	counts := []domain.ReasonCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count history by reason: %w", err)
	}

	return counts, nil
}
