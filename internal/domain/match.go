package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchAlgorithm tags which tier produced a match
type MatchAlgorithm string

const (
	AlgorithmLearnedPattern    MatchAlgorithm = "learned_pattern"
	AlgorithmAdaptiveDiscovery MatchAlgorithm = "adaptive_discovery"
	AlgorithmCanonicalRule     MatchAlgorithm = "canonical_rule"
)

// RelationshipType distinguishes plain equality from derived values
type RelationshipType string

const (
	RelationshipEquality RelationshipType = "equality"
	RelationshipFormula  RelationshipType = "formula"
)

// MatchResult asserts that a source record is semantically equivalent to
// (or formulaically derived from) a target record. Unique per
// (source_record_id, target_record_id) within one reconciliation run.
type MatchResult struct {
	ID                   int64            `json:"id" db:"id"`
	RunID                string           `json:"run_id" db:"run_id"`
	RuleName             string           `json:"rule_name" db:"rule_name"`
	SourceRecordID       int64            `json:"source_record_id" db:"source_record_id"`
	TargetRecordID       int64            `json:"target_record_id" db:"target_record_id"`
	SourceStatementType  StatementType    `json:"source_statement_type" db:"source_statement_type"`
	TargetStatementType  StatementType    `json:"target_statement_type" db:"target_statement_type"`
	SourceAccountName    string           `json:"source_account_name" db:"source_account_name"`
	TargetAccountName    string           `json:"target_account_name" db:"target_account_name"`
	SourceAmount         decimal.Decimal  `json:"source_amount" db:"source_amount"`
	TargetAmount         decimal.Decimal  `json:"target_amount" db:"target_amount"`
	AmountDifference     decimal.Decimal  `json:"amount_difference" db:"amount_difference"`
	AmountDifferencePct  decimal.Decimal  `json:"amount_difference_pct" db:"amount_difference_pct"`
	Confidence           float64          `json:"confidence" db:"confidence"`
	Algorithm            MatchAlgorithm   `json:"algorithm" db:"algorithm"`
	RelationshipType     RelationshipType `json:"relationship_type" db:"relationship_type"`
	Formula              *string          `json:"formula,omitempty" db:"formula"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`
}

// Pair identifies the match by its record pair
func (m *MatchResult) Pair() MatchPair {
	return MatchPair{SourceRecordID: m.SourceRecordID, TargetRecordID: m.TargetRecordID}
}

// MatchPair is the dedup key within a reconciliation run
type MatchPair struct {
	SourceRecordID int64
	TargetRecordID int64
}

// RunStatus represents the status of a reconciliation run
type RunStatus string

const (
	RunPending    RunStatus = "PENDING"
	RunProcessing RunStatus = "PROCESSING"
	RunCompleted  RunStatus = "COMPLETED"
	RunFailed     RunStatus = "FAILED"
)

// ReconciliationRun is one engine invocation for a (property, period) pair
type ReconciliationRun struct {
	ID                  int64           `json:"id" db:"id"`
	RunID               string          `json:"run_id" db:"run_id"`
	PropertyID          int64           `json:"property_id" db:"property_id"`
	PeriodID            int64           `json:"period_id" db:"period_id"`
	Status              RunStatus       `json:"status" db:"status"`
	TotalMatches        int             `json:"total_matches" db:"total_matches"`
	TotalDiscrepancy    decimal.Decimal `json:"total_discrepancy" db:"total_discrepancy"`
	AlignmentMethod     AlignmentMethod `json:"alignment_method" db:"alignment_method"`
	AlignmentConfidence float64         `json:"alignment_confidence" db:"alignment_confidence"`
	ErrorMessage        *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

// ReconciliationSummary is the per-run output surface
type ReconciliationSummary struct {
	RunID               string          `json:"run_id"`
	PropertyID          int64           `json:"property_id"`
	PeriodID            int64           `json:"period_id"`
	AlignmentMethod     AlignmentMethod `json:"alignment_method"`
	AlignmentConfidence float64         `json:"alignment_confidence"`
	WindowMonths        int             `json:"window_months"`
	TotalMatches        int             `json:"total_matches"`
	TotalDiscrepancy    decimal.Decimal `json:"total_discrepancy"`
	Matches             []MatchResult   `json:"matches"`
}
