package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementType identifies the kind of financial statement a record came from
type StatementType string

const (
	BalanceSheet      StatementType = "BALANCE_SHEET"
	IncomeStatement   StatementType = "INCOME_STATEMENT"
	CashFlow          StatementType = "CASH_FLOW"
	RentRoll          StatementType = "RENT_ROLL"
	MortgageStatement StatementType = "MORTGAGE_STATEMENT"
)

// AllStatementTypes lists every statement type in a stable order
var AllStatementTypes = []StatementType{
	BalanceSheet,
	IncomeStatement,
	CashFlow,
	RentRoll,
	MortgageStatement,
}

// Property represents a physical asset that owns financial periods
type Property struct {
	ID        int64     `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FinancialPeriod is a reporting window owned by exactly one property.
// Immutable once created by the upstream extraction pipeline.
type FinancialPeriod struct {
	ID         int64     `json:"id" db:"id"`
	PropertyID int64     `json:"property_id" db:"property_id"`
	Year       int       `json:"year" db:"year"`
	Month      int       `json:"month" db:"month"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
}

// MonthsUntil returns the calendar-month distance from p to other.
// Positive when other is later than p.
func (p FinancialPeriod) MonthsUntil(other FinancialPeriod) int {
	return (other.Year-p.Year)*12 + (other.Month - p.Month)
}

// StatementRecord is one parsed line item. Created by extraction,
// never mutated here, only read.
type StatementRecord struct {
	ID               int64            `json:"id" db:"id"`
	PropertyID       int64            `json:"property_id" db:"property_id"`
	PeriodID         int64            `json:"period_id" db:"period_id"`
	StatementType    StatementType    `json:"statement_type" db:"statement_type"`
	AccountCode      *string          `json:"account_code,omitempty" db:"account_code"`
	AccountName      string           `json:"account_name" db:"account_name"`
	Balance          *decimal.Decimal `json:"balance,omitempty" db:"balance"`
	PeriodAmount     *decimal.Decimal `json:"period_amount,omitempty" db:"period_amount"`
	MonthlyRent      *decimal.Decimal `json:"monthly_rent,omitempty" db:"monthly_rent"`
	PrincipalBalance *decimal.Decimal `json:"principal_balance,omitempty" db:"principal_balance"`
	InterestAmount   *decimal.Decimal `json:"interest_amount,omitempty" db:"interest_amount"`
	IsTotal          bool             `json:"is_total" db:"is_total"`
	IsSubtotal       bool             `json:"is_subtotal" db:"is_subtotal"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}

// primaryAmountField maps each statement type to its primary amount column.
// Closed accessor table; no runtime field probing.
var primaryAmountField = map[StatementType]func(*StatementRecord) *decimal.Decimal{
	BalanceSheet:      func(r *StatementRecord) *decimal.Decimal { return r.Balance },
	IncomeStatement:   func(r *StatementRecord) *decimal.Decimal { return r.PeriodAmount },
	CashFlow:          func(r *StatementRecord) *decimal.Decimal { return r.PeriodAmount },
	RentRoll:          func(r *StatementRecord) *decimal.Decimal { return r.MonthlyRent },
	MortgageStatement: func(r *StatementRecord) *decimal.Decimal { return r.PrincipalBalance },
}

// PrimaryAmount returns the record's primary amount for its statement type.
// The second return is false when the column is absent on this record.
func (r *StatementRecord) PrimaryAmount() (decimal.Decimal, bool) {
	accessor, ok := primaryAmountField[r.StatementType]
	if !ok {
		return decimal.Zero, false
	}
	if v := accessor(r); v != nil {
		return *v, true
	}
	return decimal.Zero, false
}

// Interest returns the interest-paid amount of a mortgage line item.
func (r *StatementRecord) Interest() (decimal.Decimal, bool) {
	if r.StatementType != MortgageStatement || r.InterestAmount == nil {
		return decimal.Zero, false
	}
	return *r.InterestAmount, true
}

// StatementHeader carries per-statement summary metadata where the source
// document provided it (report window dates, cash summary fields).
type StatementHeader struct {
	ID                int64            `json:"id" db:"id"`
	PropertyID        int64            `json:"property_id" db:"property_id"`
	PeriodID          int64            `json:"period_id" db:"period_id"`
	StatementType     StatementType    `json:"statement_type" db:"statement_type"`
	ReportPeriodStart *time.Time       `json:"report_period_start,omitempty" db:"report_period_start"`
	ReportPeriodEnd   *time.Time       `json:"report_period_end,omitempty" db:"report_period_end"`
	BeginningCash     *decimal.Decimal `json:"beginning_cash,omitempty" db:"beginning_cash"`
	EndingCash        *decimal.Decimal `json:"ending_cash,omitempty" db:"ending_cash"`
}
