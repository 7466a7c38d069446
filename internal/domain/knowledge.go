package domain

import "time"

// DiscoveredAccountCode is a per-property chart-of-accounts entry learned by
// an external discovery job. Read-only input here.
type DiscoveredAccountCode struct {
	ID              int64         `json:"id" db:"id"`
	PropertyID      int64         `json:"property_id" db:"property_id"`
	StatementType   StatementType `json:"statement_type" db:"statement_type"`
	AccountCode     string        `json:"account_code" db:"account_code"`
	AccountName     string        `json:"account_name" db:"account_name"`
	AccountType     string        `json:"account_type" db:"account_type"`
	OccurrenceCount int           `json:"occurrence_count" db:"occurrence_count"`
}

// AccountCodeSynonym maps a property-specific account naming to a canonical
// concept, with the confidence accumulated by the learning job.
type AccountCodeSynonym struct {
	ID                   int64         `json:"id" db:"id"`
	StatementType        StatementType `json:"statement_type" db:"statement_type"`
	CanonicalAccountCode string        `json:"canonical_account_code" db:"canonical_account_code"`
	CanonicalAccountName string        `json:"canonical_account_name" db:"canonical_account_name"`
	SynonymName          string        `json:"synonym_name" db:"synonym_name"`
	CombinedConfidence   float64       `json:"combined_confidence" db:"combined_confidence"`
}

// LearnedMatchPattern is a persisted matching rule with its historical
// performance. Written by an external calibration job, read here.
type LearnedMatchPattern struct {
	ID                  int64            `json:"id" db:"id"`
	SourceStatementType StatementType    `json:"source_statement_type" db:"source_statement_type"`
	TargetStatementType StatementType    `json:"target_statement_type" db:"target_statement_type"`
	SourceAccountCode   *string          `json:"source_account_code,omitempty" db:"source_account_code"`
	TargetAccountCode   *string          `json:"target_account_code,omitempty" db:"target_account_code"`
	SourceAccountName   string           `json:"source_account_name" db:"source_account_name"`
	TargetAccountName   string           `json:"target_account_name" db:"target_account_name"`
	RelationshipType    RelationshipType `json:"relationship_type" db:"relationship_type"`
	RelationshipFormula *string          `json:"relationship_formula,omitempty" db:"relationship_formula"`
	Priority            int              `json:"priority" db:"priority"`
	SuccessRate         float64          `json:"success_rate" db:"success_rate"`
	AverageConfidence   *float64         `json:"average_confidence,omitempty" db:"average_confidence"`
	IsActive            bool             `json:"is_active" db:"is_active"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at" db:"updated_at"`
}
