package domain

import (
	"github.com/shopspring/decimal"
)

// PeriodType classifies how a statement reports its window
type PeriodType string

const (
	SingleMonth   PeriodType = "SINGLE_MONTH"
	RollingWindow PeriodType = "ROLLING_WINDOW"
)

// AlignmentMethod tags how the begin period was resolved
type AlignmentMethod string

const (
	CashBeginMatch     AlignmentMethod = "cash_begin_match"
	CashBeginNoMatch   AlignmentMethod = "cash_begin_no_match"
	CashBeginMissing   AlignmentMethod = "cash_begin_missing"
	PriorMonthFallback AlignmentMethod = "prior_month_fallback"
	ResolverFallback   AlignmentMethod = "resolver_fallback"
)

// CashMatchDiagnostics records how the begin-period cash search went
type CashMatchDiagnostics struct {
	CandidateCount  int             `json:"candidate_count"`
	BestDifference  decimal.Decimal `json:"best_difference"`
	WithinTolerance bool            `json:"within_tolerance"`
}

// AlignmentContext is the per-run value object produced by the period
// alignment resolver. Computed once per (property, end period) run and
// passed by argument to every consumer; never persisted.
type AlignmentContext struct {
	PropertyID    int64  `json:"property_id"`
	EndPeriodID   int64  `json:"end_period_id"`
	EndYear       int    `json:"end_year"`
	EndMonth      int    `json:"end_month"`
	BeginPeriodID *int64 `json:"begin_period_id,omitempty"`
	BeginYear     int    `json:"begin_year,omitempty"`
	BeginMonth    int    `json:"begin_month,omitempty"`

	// WindowMonths is always >= 1
	WindowMonths int `json:"window_months"`

	PeriodTypes map[StatementType]PeriodType `json:"period_types"`

	CFBeginningCash decimal.Decimal `json:"cf_beginning_cash"`
	CFEndingCash    decimal.Decimal `json:"cf_ending_cash"`
	CFCashDelta     decimal.Decimal `json:"cf_cash_delta"`
	BSBeginningCash decimal.Decimal `json:"bs_beginning_cash"`
	BSEndingCash    decimal.Decimal `json:"bs_ending_cash"`
	BSCashDelta     decimal.Decimal `json:"bs_cash_delta"`

	Method     AlignmentMethod      `json:"alignment_method"`
	Confidence float64              `json:"confidence"`
	CashMatch  CashMatchDiagnostics `json:"cash_match"`
}

// HasBeginPeriod reports whether a begin period was resolved.
func (c *AlignmentContext) HasBeginPeriod() bool {
	return c.BeginPeriodID != nil
}
