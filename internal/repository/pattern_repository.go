package repository

import (
	"database/sql"

	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

// PatternRepository reads learned match patterns. Patterns are written by an
// external calibration job; this side only consumes them.
type PatternRepository interface {
	GetActivePatterns(limit int) ([]domain.LearnedMatchPattern, error)
	GetHighSuccessPatterns(limit int, minSuccessRate float64) ([]domain.LearnedMatchPattern, error)
}

type patternRepository struct {
	db *sql.DB
}

func NewPatternRepository(db *sql.DB) PatternRepository {
	return &patternRepository{db: db}
}

const patternColumns = `
	id, source_statement_type, target_statement_type,
	source_account_code, target_account_code,
	source_account_name, target_account_name,
	relationship_type, relationship_formula,
	priority, success_rate, average_confidence, is_active,
	created_at, updated_at
`

func (r *patternRepository) GetActivePatterns(limit int) ([]domain.LearnedMatchPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM learned_match_patterns
		WHERE is_active = true
		ORDER BY priority DESC, success_rate DESC
		LIMIT $1
	`
	return r.queryPatterns(query, limit)
}

func (r *patternRepository) GetHighSuccessPatterns(limit int, minSuccessRate float64) ([]domain.LearnedMatchPattern, error) {
	query := `
		SELECT ` + patternColumns + `
		FROM learned_match_patterns
		WHERE is_active = true AND success_rate >= $2
		ORDER BY success_rate DESC, priority DESC
		LIMIT $1
	`
	return r.queryPatterns(query, limit, minSuccessRate)
}

func (r *patternRepository) queryPatterns(query string, args ...interface{}) ([]domain.LearnedMatchPattern, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query learned patterns")
		return nil, err
	}
	defer rows.Close()

	var patterns []domain.LearnedMatchPattern
	for rows.Next() {
		var p domain.LearnedMatchPattern
		var sourceCode, targetCode, formula sql.NullString
		var avgConfidence sql.NullFloat64

		err := rows.Scan(
			&p.ID,
			&p.SourceStatementType,
			&p.TargetStatementType,
			&sourceCode,
			&targetCode,
			&p.SourceAccountName,
			&p.TargetAccountName,
			&p.RelationshipType,
			&formula,
			&p.Priority,
			&p.SuccessRate,
			&avgConfidence,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan learned pattern")
			continue
		}

		if sourceCode.Valid {
			p.SourceAccountCode = &sourceCode.String
		}
		if targetCode.Valid {
			p.TargetAccountCode = &targetCode.String
		}
		if formula.Valid {
			p.RelationshipFormula = &formula.String
		}
		if avgConfidence.Valid {
			p.AverageConfidence = &avgConfidence.Float64
		}

		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}
