package matcher

import (
	"property-recon/internal/domain"
)

// Relationship describes one semantic equivalence between a line item in the
// source statement and a line item (or aggregate) in the target statement.
// The canonical codes/names give baseline coverage for properties whose
// chart-of-accounts has not been learned yet; the discovery fields drive the
// adaptive tier.
type Relationship struct {
	Name       string
	SourceType domain.StatementType
	TargetType domain.StatementType

	SourceCodes []string
	SourceNames []string
	TargetCodes []string
	TargetNames []string

	DiscoverySourceKeywords []string
	DiscoverySourcePrefix   string
	DiscoveryTargetKeywords []string
	DiscoveryTargetPrefix   string

	RelationshipType domain.RelationshipType
	Formula          string
	BaseConfidence   float64

	// TargetAggregate compares the source line against the sum of the
	// target statement's detail rows instead of a single line.
	TargetAggregate bool
	// TargetInterest reads the mortgage interest column instead of the
	// statement's primary amount.
	TargetInterest bool
}

// relationshipCatalog is the fixed set of cross-statement equivalences the
// engine asserts. Each entry is evaluated independently; a failure in one
// never blocks the others.
var relationshipCatalog = []Relationship{
	{
		Name:                    "current_period_earnings_vs_net_income",
		SourceType:              domain.BalanceSheet,
		TargetType:              domain.IncomeStatement,
		SourceCodes:             []string{"3990", "3995"},
		SourceNames:             []string{"current period earnings", "current year earnings"},
		TargetCodes:             []string{"9090"},
		TargetNames:             []string{"net income", "net profit"},
		DiscoverySourceKeywords: []string{"current period earnings", "current year earnings", "ytd earnings"},
		DiscoverySourcePrefix:   "39",
		DiscoveryTargetKeywords: []string{"net income", "net profit", "net operating income"},
		DiscoveryTargetPrefix:   "90",
		RelationshipType:        domain.RelationshipEquality,
		BaseConfidence:          75,
	},
	{
		Name:                    "base_rentals_vs_rent_roll_total",
		SourceType:              domain.IncomeStatement,
		TargetType:              domain.RentRoll,
		SourceCodes:             []string{"4010", "4015"},
		SourceNames:             []string{"base rental", "base rent", "rental income"},
		DiscoverySourceKeywords: []string{"base rent", "rental income", "scheduled rent"},
		DiscoverySourcePrefix:   "40",
		DiscoveryTargetKeywords: []string{"rent", "unit"},
		RelationshipType:        domain.RelationshipFormula,
		Formula:                 "sum(rent_roll.monthly_rent)",
		BaseConfidence:          70,
		TargetAggregate:         true,
	},
	{
		Name:                    "long_term_debt_vs_mortgage_principal",
		SourceType:              domain.BalanceSheet,
		TargetType:              domain.MortgageStatement,
		SourceCodes:             []string{"2710", "2720"},
		SourceNames:             []string{"long-term debt", "long term debt", "mortgage payable", "notes payable"},
		TargetNames:             []string{"principal balance", "outstanding principal", "loan balance"},
		DiscoverySourceKeywords: []string{"long-term debt", "long term debt", "mortgage payable"},
		DiscoverySourcePrefix:   "27",
		DiscoveryTargetKeywords: []string{"principal", "loan balance"},
		RelationshipType:        domain.RelationshipEquality,
		BaseConfidence:          75,
	},
	{
		Name:                    "interest_expense_vs_mortgage_interest",
		SourceType:              domain.IncomeStatement,
		TargetType:              domain.MortgageStatement,
		SourceCodes:             []string{"6910", "6915"},
		SourceNames:             []string{"interest expense", "mortgage interest"},
		TargetNames:             []string{"interest", "principal balance"},
		DiscoverySourceKeywords: []string{"interest expense", "mortgage interest"},
		DiscoverySourcePrefix:   "69",
		DiscoveryTargetKeywords: []string{"interest"},
		RelationshipType:        domain.RelationshipEquality,
		BaseConfidence:          70,
		TargetInterest:          true,
	},
	{
		Name:                    "ending_cash_vs_balance_sheet_cash",
		SourceType:              domain.CashFlow,
		TargetType:              domain.BalanceSheet,
		SourceNames:             []string{"ending cash", "cash at end"},
		TargetNames:             []string{"cash"},
		DiscoverySourceKeywords: []string{"ending cash", "cash at end"},
		DiscoveryTargetKeywords: []string{"cash"},
		DiscoveryTargetPrefix:   "10",
		RelationshipType:        domain.RelationshipFormula,
		Formula:                 "sum(balance_sheet.cash_accounts)",
		BaseConfidence:          80,
		TargetAggregate:         true,
	},
}
