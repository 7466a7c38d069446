package matcher

import (
	"strings"

	"github.com/shopspring/decimal"

	"property-recon/internal/alignment"
	"property-recon/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// evaluateRelationship applies one catalog entry against the loaded records.
// Returns nil when either side cannot be located.
func (e *Engine) evaluateRelationship(
	rel *Relationship,
	records map[domain.StatementType][]domain.StatementRecord,
	algorithm domain.MatchAlgorithm,
) *domain.MatchResult {
	source := findRecord(records[rel.SourceType], rel.SourceCodes, rel.SourceNames)
	if source == nil {
		return nil
	}
	sourceAmount, ok := source.PrimaryAmount()
	if !ok {
		return nil
	}

	var target *domain.StatementRecord
	var targetAmount decimal.Decimal

	if rel.TargetAggregate {
		target, targetAmount, ok = aggregateTarget(records[rel.TargetType], rel.TargetNames)
	} else {
		target = findRecord(records[rel.TargetType], rel.TargetCodes, rel.TargetNames)
		if target != nil {
			if rel.TargetInterest {
				targetAmount, ok = target.Interest()
			} else {
				targetAmount, ok = target.PrimaryAmount()
			}
		}
	}
	if target == nil || !ok {
		return nil
	}

	diff, pct := comparisonMetrics(sourceAmount, targetAmount)

	match := &domain.MatchResult{
		RuleName:            rel.Name,
		SourceRecordID:      source.ID,
		TargetRecordID:      target.ID,
		SourceStatementType: rel.SourceType,
		TargetStatementType: rel.TargetType,
		SourceAccountName:   source.AccountName,
		TargetAccountName:   target.AccountName,
		SourceAmount:        sourceAmount,
		TargetAmount:        targetAmount,
		AmountDifference:    diff,
		AmountDifferencePct: pct,
		Confidence:          discountConfidence(rel.BaseConfidence, pct),
		Algorithm:           algorithm,
		RelationshipType:    rel.RelationshipType,
	}
	if rel.Formula != "" {
		formula := rel.Formula
		match.Formula = &formula
	}

	return match
}

// windowedCashDeltaMatch checks the cash-flow net change against the
// balance-sheet cash movement over the resolved window.
func (e *Engine) windowedCashDeltaMatch(
	ctx *domain.AlignmentContext,
	records map[domain.StatementType][]domain.StatementRecord,
) *domain.MatchResult {
	if !ctx.HasBeginPeriod() {
		return nil
	}

	source := findRecord(records[domain.CashFlow], nil, []string{"net change in cash", "net increase", "net decrease"})
	if source == nil {
		return nil
	}
	sourceAmount, ok := source.PrimaryAmount()
	if !ok {
		return nil
	}

	delta, err := e.resolver.WindowDelta(ctx, alignment.AccountSelector{NamePattern: "cash"})
	if err != nil || !delta.HasBegin || !delta.HasEnd {
		return nil
	}

	target, _, ok := aggregateTarget(records[domain.BalanceSheet], []string{"cash"})
	if target == nil || !ok {
		return nil
	}

	diff, pct := comparisonMetrics(sourceAmount, delta.Delta)
	formula := "bs_cash(end) - bs_cash(begin)"

	return &domain.MatchResult{
		RuleName:            "cash_delta_over_window",
		SourceRecordID:      source.ID,
		TargetRecordID:      target.ID,
		SourceStatementType: domain.CashFlow,
		TargetStatementType: domain.BalanceSheet,
		SourceAccountName:   source.AccountName,
		TargetAccountName:   target.AccountName,
		SourceAmount:        sourceAmount,
		TargetAmount:        delta.Delta,
		AmountDifference:    diff,
		AmountDifferencePct: pct,
		Confidence:          discountConfidence(70, pct),
		Algorithm:           domain.AlgorithmCanonicalRule,
		RelationshipType:    domain.RelationshipFormula,
		Formula:             &formula,
	}
}

// findRecord locates a line item by exact code first, then by name
// containment, in catalog order.
func findRecord(records []domain.StatementRecord, codes []string, names []string) *domain.StatementRecord {
	for _, code := range codes {
		for i := range records {
			if records[i].AccountCode != nil && *records[i].AccountCode == code {
				return &records[i]
			}
		}
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		for i := range records {
			if strings.Contains(strings.ToLower(records[i].AccountName), lower) {
				return &records[i]
			}
		}
	}
	return nil
}

// aggregateTarget sums the detail rows of a statement, optionally filtered
// by name substrings. The first contributing record stands in as the target
// record of the match.
func aggregateTarget(records []domain.StatementRecord, nameFilters []string) (*domain.StatementRecord, decimal.Decimal, bool) {
	total := decimal.Zero
	var representative *domain.StatementRecord

	for i := range records {
		rec := &records[i]
		if rec.IsTotal || rec.IsSubtotal {
			continue
		}
		if len(nameFilters) > 0 && !nameContainsAny(rec.AccountName, nameFilters) {
			continue
		}
		amount, ok := rec.PrimaryAmount()
		if !ok {
			continue
		}
		total = total.Add(amount)
		if representative == nil {
			representative = rec
		}
	}

	return representative, total, representative != nil
}

func nameContainsAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// comparisonMetrics returns |source-target| and the difference as a
// percentage of the larger magnitude. Both zero compares as 0% difference.
func comparisonMetrics(source, target decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	diff := source.Sub(target).Abs()

	denominator := source.Abs()
	if target.Abs().GreaterThan(denominator) {
		denominator = target.Abs()
	}
	if denominator.IsZero() {
		return diff, decimal.Zero
	}

	pct := diff.Div(denominator).Mul(oneHundred)
	return diff, pct
}

// discountConfidence reduces the base confidence by the percentage
// difference when it exceeds 1%, floored at 50.
func discountConfidence(base float64, pct decimal.Decimal) float64 {
	one := decimal.NewFromInt(1)
	if pct.LessThanOrEqual(one) {
		return base
	}

	pctFloat, _ := pct.Float64()
	confidence := base - pctFloat
	if confidence < 50 {
		confidence = 50
	}
	return confidence
}
