package repository

import (
	"database/sql"
	"fmt"

	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

// MatchResultRepository persists reconciliation runs and their results.
type MatchResultRepository interface {
	CreateRun(run *domain.ReconciliationRun) error
	UpdateRun(run *domain.ReconciliationRun) error
	GetRunByID(runID string) (*domain.ReconciliationRun, error)
	// ReplaceResults atomically swaps in the result set for a
	// (property, period): any previous run's results for the same key are
	// removed and the new set inserted, in one transaction. A retried run
	// therefore never leaves partial or duplicated results behind.
	ReplaceResults(propertyID, periodID int64, results []domain.MatchResult) error
	GetResultsByRunID(runID string) ([]domain.MatchResult, error)
}

type matchResultRepository struct {
	db *sql.DB
}

func NewMatchResultRepository(db *sql.DB) MatchResultRepository {
	return &matchResultRepository{db: db}
}

func (r *matchResultRepository) CreateRun(run *domain.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (
			run_id, property_id, period_id, status,
			total_matches, total_discrepancy, alignment_method, alignment_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		run.RunID,
		run.PropertyID,
		run.PeriodID,
		run.Status,
		run.TotalMatches,
		run.TotalDiscrepancy,
		string(run.AlignmentMethod),
		run.AlignmentConfidence,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create reconciliation run")
		return err
	}

	return nil
}

func (r *matchResultRepository) UpdateRun(run *domain.ReconciliationRun) error {
	query := `
		UPDATE reconciliation_runs
		SET status = $1, total_matches = $2, total_discrepancy = $3,
			alignment_method = $4, alignment_confidence = $5,
			error_message = $6, updated_at = NOW()
		WHERE run_id = $7
	`

	_, err := r.db.Exec(
		query,
		run.Status,
		run.TotalMatches,
		run.TotalDiscrepancy,
		string(run.AlignmentMethod),
		run.AlignmentConfidence,
		run.ErrorMessage,
		run.RunID,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update reconciliation run")
		return err
	}

	return nil
}

func (r *matchResultRepository) GetRunByID(runID string) (*domain.ReconciliationRun, error) {
	query := `
		SELECT id, run_id, property_id, period_id, status,
			total_matches, total_discrepancy, alignment_method, alignment_confidence,
			error_message, created_at, updated_at
		FROM reconciliation_runs
		WHERE run_id = $1
	`

	var run domain.ReconciliationRun
	var errMsg sql.NullString

	err := r.db.QueryRow(query, runID).Scan(
		&run.ID,
		&run.RunID,
		&run.PropertyID,
		&run.PeriodID,
		&run.Status,
		&run.TotalMatches,
		&run.TotalDiscrepancy,
		&run.AlignmentMethod,
		&run.AlignmentConfidence,
		&errMsg,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get reconciliation run")
		return nil, err
	}

	if errMsg.Valid {
		run.ErrorMessage = &errMsg.String
	}

	return &run, nil
}

func (r *matchResultRepository) ReplaceResults(propertyID, periodID int64, results []domain.MatchResult) error {
	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM match_results
		WHERE run_id IN (
			SELECT run_id FROM reconciliation_runs
			WHERE property_id = $1 AND period_id = $2
		)
	`, propertyID, periodID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to clear prior results")
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO match_results (
			run_id, rule_name, source_record_id, target_record_id,
			source_statement_type, target_statement_type,
			source_account_name, target_account_name,
			source_amount, target_amount,
			amount_difference, amount_difference_pct,
			confidence, algorithm, relationship_type, formula
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare result insert")
		return err
	}
	defer stmt.Close()

	for _, result := range results {
		_, err = stmt.Exec(
			result.RunID,
			result.RuleName,
			result.SourceRecordID,
			result.TargetRecordID,
			string(result.SourceStatementType),
			string(result.TargetStatementType),
			result.SourceAccountName,
			result.TargetAccountName,
			result.SourceAmount,
			result.TargetAmount,
			result.AmountDifference,
			result.AmountDifferencePct,
			result.Confidence,
			string(result.Algorithm),
			string(result.RelationshipType),
			result.Formula,
		)
		if err != nil {
			// all-or-nothing: one bad row aborts the whole batch
			logger.GetLogger().WithError(err).
				WithField("source_record_id", result.SourceRecordID).
				Error("Failed to insert match result")
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit match results")
		return err
	}

	return nil
}

func (r *matchResultRepository) GetResultsByRunID(runID string) ([]domain.MatchResult, error) {
	query := `
		SELECT id, run_id, rule_name, source_record_id, target_record_id,
			source_statement_type, target_statement_type,
			source_account_name, target_account_name,
			source_amount, target_amount,
			amount_difference, amount_difference_pct,
			confidence, algorithm, relationship_type, formula, created_at
		FROM match_results
		WHERE run_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query match results")
		return nil, err
	}
	defer rows.Close()

	var results []domain.MatchResult
	for rows.Next() {
		var m domain.MatchResult
		var formula sql.NullString

		err := rows.Scan(
			&m.ID,
			&m.RunID,
			&m.RuleName,
			&m.SourceRecordID,
			&m.TargetRecordID,
			&m.SourceStatementType,
			&m.TargetStatementType,
			&m.SourceAccountName,
			&m.TargetAccountName,
			&m.SourceAmount,
			&m.TargetAmount,
			&m.AmountDifference,
			&m.AmountDifferencePct,
			&m.Confidence,
			&m.Algorithm,
			&m.RelationshipType,
			&formula,
			&m.CreatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan match result")
			continue
		}

		if formula.Valid {
			m.Formula = &formula.String
		}

		results = append(results, m)
	}

	return results, rows.Err()
}
