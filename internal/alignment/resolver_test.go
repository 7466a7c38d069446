package alignment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-recon/internal/cache"
	"property-recon/internal/config"
	"property-recon/internal/domain"
)

type recordKey struct {
	periodID      int64
	statementType domain.StatementType
}

type fakeStatements struct {
	periods     map[int64]domain.FinancialPeriod
	records     map[recordKey][]domain.StatementRecord
	headers     map[recordKey]*domain.StatementHeader
	recordCalls map[recordKey]int
}

func newFakeStatements() *fakeStatements {
	return &fakeStatements{
		periods:     make(map[int64]domain.FinancialPeriod),
		records:     make(map[recordKey][]domain.StatementRecord),
		headers:     make(map[recordKey]*domain.StatementHeader),
		recordCalls: make(map[recordKey]int),
	}
}

func (f *fakeStatements) addPeriod(id, propertyID int64, year, month int) {
	f.periods[id] = domain.FinancialPeriod{
		ID:         id,
		PropertyID: propertyID,
		Year:       year,
		Month:      month,
		StartDate:  time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStatements) addBalanceSheetCash(periodID int64, name string, amount string) {
	key := recordKey{periodID, domain.BalanceSheet}
	balance := decimal.RequireFromString(amount)
	f.records[key] = append(f.records[key], domain.StatementRecord{
		ID:            int64(len(f.records[key])) + periodID*100,
		PeriodID:      periodID,
		StatementType: domain.BalanceSheet,
		AccountName:   name,
		Balance:       &balance,
	})
}

func (f *fakeStatements) GetRecords(propertyID, periodID int64, statementType domain.StatementType) ([]domain.StatementRecord, error) {
	key := recordKey{periodID, statementType}
	f.recordCalls[key]++
	return f.records[key], nil
}

func (f *fakeStatements) GetAllRecords(propertyID, periodID int64) ([]domain.StatementRecord, error) {
	var all []domain.StatementRecord
	for _, st := range domain.AllStatementTypes {
		all = append(all, f.records[recordKey{periodID, st}]...)
	}
	return all, nil
}

func (f *fakeStatements) GetHeader(propertyID, periodID int64, statementType domain.StatementType) (*domain.StatementHeader, error) {
	return f.headers[recordKey{periodID, statementType}], nil
}

func (f *fakeStatements) GetPeriod(periodID int64) (*domain.FinancialPeriod, error) {
	if p, ok := f.periods[periodID]; ok {
		return &p, nil
	}
	return nil, assert.AnError
}

func (f *fakeStatements) GetPeriodByMonth(propertyID int64, year, month int) (*domain.FinancialPeriod, error) {
	for _, p := range f.periods {
		if p.PropertyID == propertyID && p.Year == year && p.Month == month {
			period := p
			return &period, nil
		}
	}
	return nil, nil
}

func (f *fakeStatements) GetPriorPeriods(propertyID int64, before domain.FinancialPeriod, limit int) ([]domain.FinancialPeriod, error) {
	var prior []domain.FinancialPeriod
	for _, p := range f.periods {
		if p.PropertyID != propertyID {
			continue
		}
		if p.Year*12+p.Month < before.Year*12+before.Month {
			prior = append(prior, p)
		}
	}
	// nearest first
	for i := 0; i < len(prior); i++ {
		for j := i + 1; j < len(prior); j++ {
			if prior[j].Year*12+prior[j].Month > prior[i].Year*12+prior[i].Month {
				prior[i], prior[j] = prior[j], prior[i]
			}
		}
	}
	if len(prior) > limit {
		prior = prior[:limit]
	}
	return prior, nil
}

func newTestResolver(statements *fakeStatements) *Resolver {
	cashCache := cache.NewPeriodCashCache(time.Minute, 64)
	return NewResolver(statements, cashCache, config.EngineConfig{
		CashMatchTolerance:    "1.00",
		CandidateWindowMonths: 24,
		LearnedPatternLimit:   20,
	})
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestResolve_CashBeginMatch(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)
	statements.addPeriod(8, 1, 2024, 8)
	statements.addPeriod(7, 1, 2024, 7)

	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:      12,
		StatementType: domain.CashFlow,
		BeginningCash: decimalPtr("100000.00"),
		EndingCash:    decimalPtr("112500.00"),
	}

	statements.addBalanceSheetCash(8, "Operating Cash", "99999.50")
	statements.addBalanceSheetCash(7, "Operating Cash", "95000.00")

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	require.NotNil(t, ctx)
	require.True(t, ctx.HasBeginPeriod())
	assert.Equal(t, int64(8), *ctx.BeginPeriodID, "August should win the cash search")
	assert.Equal(t, domain.CashBeginMatch, ctx.Method)
	assert.GreaterOrEqual(t, ctx.Confidence, 0.5)
	assert.Equal(t, 4, ctx.WindowMonths, "August to December spans 4 months")
	assert.True(t, ctx.CashMatch.WithinTolerance)

	// accepted candidate must sit within tolerance of the cash-flow figure
	diff := decimal.RequireFromString("99999.50").Sub(ctx.CFBeginningCash).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("1.00")))

	// invariant: begin differs from end whenever the cash search accepted
	assert.NotEqual(t, ctx.EndPeriodID, *ctx.BeginPeriodID)
}

func TestResolve_CashBeginMissingFallsBackToPriorMonth(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)
	statements.addPeriod(11, 1, 2024, 11)

	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:      12,
		StatementType: domain.CashFlow,
		BeginningCash: decimalPtr("0"),
	}

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	require.True(t, ctx.HasBeginPeriod())
	assert.Equal(t, int64(11), *ctx.BeginPeriodID)
	assert.Equal(t, domain.PriorMonthFallback, ctx.Method)
	assert.Equal(t, 0.5, ctx.Confidence)
	assert.Equal(t, 1, ctx.WindowMonths)
}

func TestResolve_CashBeginMissingNoPriorPeriod(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	assert.False(t, ctx.HasBeginPeriod())
	assert.Equal(t, domain.CashBeginMissing, ctx.Method)
	assert.Equal(t, float64(0), ctx.Confidence)
	assert.Equal(t, 1, ctx.WindowMonths)
}

func TestResolve_NoCandidateWithinTolerance(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)
	statements.addPeriod(11, 1, 2024, 11)

	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:      12,
		StatementType: domain.CashFlow,
		BeginningCash: decimalPtr("100000.00"),
	}
	statements.addBalanceSheetCash(11, "Operating Cash", "90000.00")

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	// search fails, prior-month fallback takes over
	require.True(t, ctx.HasBeginPeriod())
	assert.Equal(t, domain.PriorMonthFallback, ctx.Method)
	assert.Equal(t, 0.5, ctx.Confidence)
	assert.Equal(t, 1, ctx.WindowMonths)
	assert.False(t, ctx.CashMatch.WithinTolerance)
	assert.Equal(t, 1, ctx.CashMatch.CandidateCount)
}

func TestResolve_UnknownPeriodReturnsFallbackContext(t *testing.T) {
	resolver := newTestResolver(newFakeStatements())
	ctx := resolver.Resolve(1, 999)

	require.NotNil(t, ctx)
	assert.Equal(t, domain.ResolverFallback, ctx.Method)
	assert.Equal(t, 0.25, ctx.Confidence)
	assert.Equal(t, 1, ctx.WindowMonths)
}

func TestResolve_WindowMonthsAlwaysPositive(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)
	statements.addPeriod(11, 1, 2024, 11)

	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:      12,
		StatementType: domain.CashFlow,
		BeginningCash: decimalPtr("50000.00"),
	}
	statements.addBalanceSheetCash(11, "Cash in Bank", "50000.00")

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	assert.GreaterOrEqual(t, ctx.WindowMonths, 1)
}

func TestClassifyPeriodTypes(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)

	start := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:          12,
		StatementType:     domain.CashFlow,
		ReportPeriodStart: &start,
		ReportPeriodEnd:   &end,
	}

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	assert.Equal(t, domain.RollingWindow, ctx.PeriodTypes[domain.CashFlow])
	assert.Equal(t, domain.SingleMonth, ctx.PeriodTypes[domain.IncomeStatement])
	assert.Equal(t, domain.SingleMonth, ctx.PeriodTypes[domain.BalanceSheet])
	assert.Equal(t, domain.SingleMonth, ctx.PeriodTypes[domain.RentRoll])
	assert.Equal(t, domain.SingleMonth, ctx.PeriodTypes[domain.MortgageStatement])
}

func TestBalanceSheetCashIsMemoized(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)
	statements.addPeriod(8, 1, 2024, 8)

	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:      12,
		StatementType: domain.CashFlow,
		BeginningCash: decimalPtr("75000.00"),
	}
	statements.addBalanceSheetCash(8, "Operating Cash", "75000.00")

	resolver := newTestResolver(statements)

	key := recordKey{8, domain.BalanceSheet}
	resolver.balanceSheetTotalCash(1, 8)
	first := statements.recordCalls[key]
	resolver.balanceSheetTotalCash(1, 8)
	assert.Equal(t, first, statements.recordCalls[key], "second lookup should hit the cache")
}

func TestBalanceSheetCashPriorityChain(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(5, 1, 2024, 5)

	// detail lines win over the total-cash line
	statements.addBalanceSheetCash(5, "Operating Cash", "1000.00")
	statements.addBalanceSheetCash(5, "Petty Cash", "50.00")
	key := recordKey{5, domain.BalanceSheet}
	total := decimal.RequireFromString("9999.00")
	statements.records[key] = append(statements.records[key], domain.StatementRecord{
		ID:            999,
		PeriodID:      5,
		StatementType: domain.BalanceSheet,
		AccountName:   "Total Cash",
		Balance:       &total,
		IsTotal:       true,
	})

	resolver := newTestResolver(statements)
	cash, ok := resolver.balanceSheetTotalCash(1, 5)

	require.True(t, ok)
	assert.True(t, cash.Equal(decimal.RequireFromString("1050.00")))
}

func TestBalanceSheetCashCodePrefixFallback(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(5, 1, 2024, 5)

	key := recordKey{5, domain.BalanceSheet}
	code := "1010"
	amount := decimal.RequireFromString("4200.00")
	statements.records[key] = append(statements.records[key], domain.StatementRecord{
		ID:            1,
		PeriodID:      5,
		StatementType: domain.BalanceSheet,
		AccountCode:   &code,
		AccountName:   "Checking Account",
		Balance:       &amount,
	})

	resolver := newTestResolver(statements)
	cash, ok := resolver.balanceSheetTotalCash(1, 5)

	require.True(t, ok)
	assert.True(t, cash.Equal(amount))
}

func TestWindowDelta(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)
	statements.addPeriod(8, 1, 2024, 8)

	statements.headers[recordKey{12, domain.CashFlow}] = &domain.StatementHeader{
		PeriodID:      12,
		StatementType: domain.CashFlow,
		BeginningCash: decimalPtr("80000.00"),
	}
	statements.addBalanceSheetCash(8, "Operating Cash", "80000.00")
	statements.addBalanceSheetCash(12, "Operating Cash", "95000.00")

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)
	require.Equal(t, domain.CashBeginMatch, ctx.Method)

	delta, err := resolver.WindowDelta(ctx, AccountSelector{NamePattern: "cash"})
	require.NoError(t, err)
	assert.True(t, delta.HasBegin)
	assert.True(t, delta.HasEnd)
	assert.True(t, delta.Delta.Equal(decimal.RequireFromString("15000.00")))
	assert.True(t, delta.BeginValue.Equal(decimal.RequireFromString("80000.00")))
	assert.True(t, delta.EndValue.Equal(decimal.RequireFromString("95000.00")))
}

func TestWindowDelta_EmptySelector(t *testing.T) {
	statements := newFakeStatements()
	statements.addPeriod(12, 1, 2024, 12)

	resolver := newTestResolver(statements)
	ctx := resolver.Resolve(1, 12)

	_, err := resolver.WindowDelta(ctx, AccountSelector{})
	assert.Error(t, err)
}
