package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/domain"
)

// ErrRuleNotFound is returned when a keyword rule id does not exist.
var ErrRuleNotFound = errors.New("keyword rule not found")

// KeywordRuleRepository handles keyword_rules rows.
type KeywordRuleRepository struct {
	db *sqlx.DB
}

// NewKeywordRuleRepository creates a new keyword rule repository.
func NewKeywordRuleRepository(db *sqlx.DB) *KeywordRuleRepository {
	return &KeywordRuleRepository{db: db}
}

// Create inserts a rule.
func (r *KeywordRuleRepository) Create(ctx context.Context, rule *domain.KeywordRule) error {
	if rule.Scope == "" {
		rule.Scope = domain.ScopeAll
	}

	query := `
		INSERT INTO keyword_rules (category, keyword, scope, priority, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rule.Category,
		rule.Keyword,
		rule.Scope,
		rule.Priority,
		rule.Enabled,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create keyword rule: %w", err)
	}

	return nil
}

// GetByID returns one rule.
func (r *KeywordRuleRepository) GetByID(ctx context.Context, id int) (*domain.KeywordRule, error) {
	var rule domain.KeywordRule
	query := `
		SELECT id, category, keyword, scope, priority, enabled, created_at, updated_at
		FROM keyword_rules
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get keyword rule: %w", err)
	}

	return &rule, nil
}

// List returns rules ordered by priority then id. enabledOnly drops
// disabled rules.
func (r *KeywordRuleRepository) List(ctx context.Context, enabledOnly bool) ([]domain.KeywordRule, error) {
	query := `
		SELECT id, category, keyword, scope, priority, enabled, created_at, updated_at
		FROM keyword_rules
	`
	if enabledOnly {
		query += " WHERE enabled = TRUE"
	}
	query += " ORDER BY priority DESC, id ASC"

	rules := []domain.KeywordRule{}
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list keyword rules: %w", err)
	}

	return rules, nil
}

// Delete removes a rule.
func (r *KeywordRuleRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM keyword_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete keyword rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrRuleNotFound, id)
	}

	return nil
}
