package domain

import "time"

// StatementAvailability summarizes what data exists for one statement type
type StatementAvailability struct {
	StatementType StatementType `json:"statement_type"`
	RowCount      int           `json:"row_count"`
	SampleCodes   []string      `json:"sample_codes,omitempty"`
}

// SimilarAccount is a candidate substitute for a missing canonical account
type SimilarAccount struct {
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	Confidence  float64 `json:"confidence"`
	MatchBasis  string  `json:"match_basis"` // code_prefix | name_substring | synonym
}

// MissingAccount reports a canonical account not found in the period's data
type MissingAccount struct {
	StatementType StatementType    `json:"statement_type"`
	AccountCode   string           `json:"account_code"`
	AccountName   string           `json:"account_name"`
	Similar       []SimilarAccount `json:"similar,omitempty"`
}

// SuggestedFix is an actionable remediation for one missing account
type SuggestedFix struct {
	StatementType StatementType   `json:"statement_type"`
	AccountName   string          `json:"account_name"`
	Action        string          `json:"action"` // use_similar_account | upload_statement
	UseAccount    *SimilarAccount `json:"use_account,omitempty"`
	Description   string          `json:"description"`
}

// DiagnosticsReport explains why reconciliation for a (property, period)
// is incomplete and what could fix it.
type DiagnosticsReport struct {
	PropertyID       int64                   `json:"property_id"`
	PeriodID         int64                   `json:"period_id"`
	GeneratedAt      time.Time               `json:"generated_at"`
	TotalRows        int                     `json:"total_rows"`
	Availability     []StatementAvailability `json:"availability"`
	MissingAccounts  []MissingAccount        `json:"missing_accounts,omitempty"`
	SuggestedFixes   []SuggestedFix          `json:"suggested_fixes,omitempty"`
	RelevantPatterns []LearnedMatchPattern   `json:"relevant_patterns,omitempty"`
	Recommendations  []string                `json:"recommendations"`
}
