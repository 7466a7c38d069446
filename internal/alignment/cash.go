package alignment

import (
	"strings"

	"github.com/shopspring/decimal"

	"property-recon/internal/cache"
	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

// cashCodePrefix is the chart-of-accounts convention for cash accounts.
const cashCodePrefix = "10"

var beginningCashPatterns = []string{
	"beginning cash",
	"cash at beginning",
	"cash - beginning",
	"beginning balance",
}

var endingCashPatterns = []string{
	"ending cash",
	"cash at end",
	"cash - ending",
	"ending balance",
}

type cashFlowCash struct {
	beginning    decimal.Decimal
	ending       decimal.Decimal
	hasBeginning bool
	hasEnding    bool
}

// extractCashFlowCash reads the cash-flow statement's beginning/ending cash
// for the end period. Priority: dedicated total rows in the cash
// reconciliation section, then header summary fields, then summing line
// items by name pattern.
func (r *Resolver) extractCashFlowCash(propertyID, periodID int64) cashFlowCash {
	var cf cashFlowCash

	records, err := r.statements.GetRecords(propertyID, periodID, domain.CashFlow)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to load cash-flow records")
		records = nil
	}

	// (a) dedicated total rows
	if v, ok := totalRowAmount(records, beginningCashPatterns); ok {
		cf.beginning, cf.hasBeginning = v, true
	}
	if v, ok := totalRowAmount(records, endingCashPatterns); ok {
		cf.ending, cf.hasEnding = v, true
	}
	if cf.hasBeginning && cf.hasEnding {
		return cf
	}

	// (b) header summary fields
	header, err := r.statements.GetHeader(propertyID, periodID, domain.CashFlow)
	if err == nil && header != nil {
		if !cf.hasBeginning && header.BeginningCash != nil {
			cf.beginning, cf.hasBeginning = *header.BeginningCash, true
		}
		if !cf.hasEnding && header.EndingCash != nil {
			cf.ending, cf.hasEnding = *header.EndingCash, true
		}
	}
	if cf.hasBeginning && cf.hasEnding {
		return cf
	}

	// (c) sum line items by name pattern
	if !cf.hasBeginning {
		if v, ok := sumByNamePatterns(records, beginningCashPatterns); ok {
			cf.beginning, cf.hasBeginning = v, true
		}
	}
	if !cf.hasEnding {
		if v, ok := sumByNamePatterns(records, endingCashPatterns); ok {
			cf.ending, cf.hasEnding = v, true
		}
	}

	return cf
}

// balanceSheetTotalCash computes the total cash position on a period's
// balance sheet. Priority: sum of non-total detail lines naming cash, an
// explicit "total cash" line (largest magnitude), then the cash account-code
// prefix. Results are memoized per (property, period) for the run.
func (r *Resolver) balanceSheetTotalCash(propertyID, periodID int64) (decimal.Decimal, bool) {
	key := cache.PeriodCashKey{PropertyID: propertyID, PeriodID: periodID}
	if value, ok, hit := r.cashCache.Get(key); hit {
		return value, ok
	}

	value, ok := r.computeBalanceSheetCash(propertyID, periodID)
	r.cashCache.Put(key, value, ok)
	return value, ok
}

func (r *Resolver) computeBalanceSheetCash(propertyID, periodID int64) (decimal.Decimal, bool) {
	records, err := r.statements.GetRecords(propertyID, periodID, domain.BalanceSheet)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("period_id", periodID).
			Warn("Failed to load balance-sheet records")
		return decimal.Zero, false
	}
	if len(records) == 0 {
		return decimal.Zero, false
	}

	// (a) sum of detail lines naming cash
	total := decimal.Zero
	found := false
	for i := range records {
		rec := &records[i]
		if rec.IsTotal || rec.IsSubtotal {
			continue
		}
		if !strings.Contains(strings.ToLower(rec.AccountName), "cash") {
			continue
		}
		if amount, ok := rec.PrimaryAmount(); ok {
			total = total.Add(amount)
			found = true
		}
	}
	if found {
		return total, true
	}

	// (b) explicit total-cash line, largest magnitude wins
	best := decimal.Zero
	for i := range records {
		rec := &records[i]
		if !strings.Contains(strings.ToLower(rec.AccountName), "total cash") {
			continue
		}
		amount, ok := rec.PrimaryAmount()
		if !ok {
			continue
		}
		if !found || amount.Abs().GreaterThan(best.Abs()) {
			best = amount
			found = true
		}
	}
	if found {
		return best, true
	}

	// (c) cash account-code prefix
	for i := range records {
		rec := &records[i]
		if rec.IsTotal || rec.IsSubtotal || rec.AccountCode == nil {
			continue
		}
		if !strings.HasPrefix(*rec.AccountCode, cashCodePrefix) {
			continue
		}
		if amount, ok := rec.PrimaryAmount(); ok {
			total = total.Add(amount)
			found = true
		}
	}

	return total, found
}

// totalRowAmount finds a total row whose name matches one of the patterns.
func totalRowAmount(records []domain.StatementRecord, patterns []string) (decimal.Decimal, bool) {
	for i := range records {
		rec := &records[i]
		if !rec.IsTotal {
			continue
		}
		if !nameMatchesAny(rec.AccountName, patterns) {
			continue
		}
		if amount, ok := rec.PrimaryAmount(); ok {
			return amount, true
		}
	}
	return decimal.Zero, false
}

// sumByNamePatterns sums non-total line items matching the patterns.
func sumByNamePatterns(records []domain.StatementRecord, patterns []string) (decimal.Decimal, bool) {
	total := decimal.Zero
	found := false
	for i := range records {
		rec := &records[i]
		if rec.IsTotal || rec.IsSubtotal {
			continue
		}
		if !nameMatchesAny(rec.AccountName, patterns) {
			continue
		}
		if amount, ok := rec.PrimaryAmount(); ok {
			total = total.Add(amount)
			found = true
		}
	}
	return total, found
}

func nameMatchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
