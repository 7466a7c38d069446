package alignment

import (
	"github.com/shopspring/decimal"

	"property-recon/internal/cache"
	"property-recon/internal/config"
	"property-recon/internal/domain"
	"property-recon/internal/repository"
	"property-recon/pkg/logger"
)

// Resolver infers the begin period for statements reported over a rolling
// window. All lookups go through the statement repository; candidate cash
// totals are memoized in a run-scoped cache.
type Resolver struct {
	statements      repository.StatementRepository
	cashCache       *cache.PeriodCashCache
	tolerance       decimal.Decimal
	candidateWindow int
}

func NewResolver(statements repository.StatementRepository, cashCache *cache.PeriodCashCache, cfg config.EngineConfig) *Resolver {
	tolerance, err := decimal.NewFromString(cfg.CashMatchTolerance)
	if err != nil || tolerance.LessThanOrEqual(decimal.Zero) {
		tolerance = decimal.RequireFromString("1.00")
	}

	candidateWindow := cfg.CandidateWindowMonths
	if candidateWindow < 1 {
		candidateWindow = 24
	}

	return &Resolver{
		statements:      statements,
		cashCache:       cashCache,
		tolerance:       tolerance,
		candidateWindow: candidateWindow,
	}
}

// Resolve computes the alignment context for one (property, end period) run.
// It never returns an error: any internal failure degrades to a fallback
// context so the reconciliation run can proceed at low confidence.
func (r *Resolver) Resolve(propertyID, endPeriodID int64) (ctx *domain.AlignmentContext) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"property_id": propertyID,
				"period_id":   endPeriodID,
				"panic":       rec,
			}).Error("Alignment resolution panicked")
			ctx = r.fallbackContext(propertyID, endPeriodID)
		}
	}()

	endPeriod, err := r.statements.GetPeriod(endPeriodID)
	if err != nil || endPeriod == nil {
		logger.GetLogger().WithError(err).WithField("period_id", endPeriodID).
			Warn("End period not found, using fallback context")
		return r.fallbackContext(propertyID, endPeriodID)
	}

	ctx = &domain.AlignmentContext{
		PropertyID:   propertyID,
		EndPeriodID:  endPeriodID,
		EndYear:      endPeriod.Year,
		EndMonth:     endPeriod.Month,
		WindowMonths: 1,
		PeriodTypes:  r.classifyPeriodTypes(propertyID, endPeriodID),
	}

	cf := r.extractCashFlowCash(propertyID, endPeriodID)
	ctx.CFBeginningCash = cf.beginning
	ctx.CFEndingCash = cf.ending
	ctx.CFCashDelta = cf.ending.Sub(cf.beginning)

	if endCash, ok := r.balanceSheetTotalCash(propertyID, endPeriodID); ok {
		ctx.BSEndingCash = endCash
	}

	r.inferBeginPeriod(ctx, *endPeriod, cf)
	r.applyPriorMonthFallback(ctx, *endPeriod)

	if ctx.HasBeginPeriod() {
		if beginCash, ok := r.balanceSheetTotalCash(propertyID, *ctx.BeginPeriodID); ok {
			ctx.BSBeginningCash = beginCash
			ctx.BSCashDelta = ctx.BSEndingCash.Sub(beginCash)
		}
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"property_id":      propertyID,
		"end_period_id":    endPeriodID,
		"alignment_method": ctx.Method,
		"confidence":       ctx.Confidence,
		"window_months":    ctx.WindowMonths,
	}).Info("Alignment resolved")

	return ctx
}

// classifyPeriodTypes determines single-month vs rolling-window per
// statement type using the statement's own header dates. Types without
// header metadata default to single-month.
func (r *Resolver) classifyPeriodTypes(propertyID, periodID int64) map[domain.StatementType]domain.PeriodType {
	types := make(map[domain.StatementType]domain.PeriodType, len(domain.AllStatementTypes))
	for _, st := range domain.AllStatementTypes {
		types[st] = domain.SingleMonth
	}

	for _, st := range []domain.StatementType{domain.IncomeStatement, domain.CashFlow} {
		header, err := r.statements.GetHeader(propertyID, periodID, st)
		if err != nil || header == nil {
			continue
		}
		if header.ReportPeriodStart == nil || header.ReportPeriodEnd == nil {
			continue
		}
		start, end := *header.ReportPeriodStart, *header.ReportPeriodEnd
		if start.Year() != end.Year() || start.Month() != end.Month() {
			types[st] = domain.RollingWindow
		}
	}

	return types
}

// inferBeginPeriod searches prior periods for one whose balance-sheet cash
// matches the cash-flow beginning cash within tolerance.
func (r *Resolver) inferBeginPeriod(ctx *domain.AlignmentContext, endPeriod domain.FinancialPeriod, cf cashFlowCash) {
	if !cf.hasBeginning || cf.beginning.IsZero() {
		ctx.Method = domain.CashBeginMissing
		ctx.Confidence = 0
		return
	}

	candidates, err := r.statements.GetPriorPeriods(ctx.PropertyID, endPeriod, r.candidateWindow)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to enumerate candidate periods")
		ctx.Method = domain.CashBeginNoMatch
		ctx.Confidence = 0.1
		return
	}

	var best *domain.FinancialPeriod
	bestDiff := decimal.Zero
	evaluated := 0

	for i := range candidates {
		candidate := candidates[i]
		if candidate.ID == ctx.EndPeriodID {
			continue
		}

		cash, ok := r.balanceSheetTotalCash(ctx.PropertyID, candidate.ID)
		if !ok {
			continue
		}
		evaluated++

		diff := cash.Sub(cf.beginning).Abs()
		if best == nil || diff.LessThan(bestDiff) {
			best = &candidate
			bestDiff = diff
		}
	}

	ctx.CashMatch.CandidateCount = evaluated
	if best != nil {
		ctx.CashMatch.BestDifference = bestDiff
	}

	if best == nil || bestDiff.GreaterThan(r.tolerance) {
		ctx.Method = domain.CashBeginNoMatch
		ctx.Confidence = 0.1
		return
	}

	beginID := best.ID
	ctx.BeginPeriodID = &beginID
	ctx.BeginYear = best.Year
	ctx.BeginMonth = best.Month
	ctx.Method = domain.CashBeginMatch
	ctx.CashMatch.WithinTolerance = true

	// confidence drops linearly with the residual difference, floored at 0.5
	ratio, _ := bestDiff.Div(r.tolerance).Float64()
	confidence := 1 - ratio
	if confidence < 0.5 {
		confidence = 0.5
	}
	ctx.Confidence = confidence

	ctx.WindowMonths = best.MonthsUntil(endPeriod)
	if ctx.WindowMonths < 1 {
		ctx.WindowMonths = 1
	}
}

// applyPriorMonthFallback fills in the single prior consecutive period when
// the cash search did not accept a begin period.
func (r *Resolver) applyPriorMonthFallback(ctx *domain.AlignmentContext, endPeriod domain.FinancialPeriod) {
	if ctx.Method == domain.CashBeginMatch {
		return
	}

	year, month := endPeriod.Year, endPeriod.Month-1
	if month < 1 {
		year, month = year-1, 12
	}

	prior, err := r.statements.GetPeriodByMonth(ctx.PropertyID, year, month)
	if err != nil || prior == nil {
		ctx.WindowMonths = 1
		return
	}

	beginID := prior.ID
	ctx.BeginPeriodID = &beginID
	ctx.BeginYear = prior.Year
	ctx.BeginMonth = prior.Month
	ctx.Method = domain.PriorMonthFallback
	ctx.WindowMonths = 1
	if ctx.Confidence < 0.5 {
		ctx.Confidence = 0.5
	}
}

func (r *Resolver) fallbackContext(propertyID, endPeriodID int64) *domain.AlignmentContext {
	types := make(map[domain.StatementType]domain.PeriodType, len(domain.AllStatementTypes))
	for _, st := range domain.AllStatementTypes {
		types[st] = domain.SingleMonth
	}

	return &domain.AlignmentContext{
		PropertyID:   propertyID,
		EndPeriodID:  endPeriodID,
		WindowMonths: 1,
		PeriodTypes:  types,
		Method:       domain.ResolverFallback,
		Confidence:   0.25,
	}
}
