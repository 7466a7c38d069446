package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-recon/internal/alignment"
	"property-recon/internal/cache"
	"property-recon/internal/config"
	"property-recon/internal/domain"
	"property-recon/internal/matcher"
	"property-recon/internal/repository"
	"property-recon/pkg/logger"
)

// cashCacheTTL bounds run-scoped memoization; a run never lives this long.
const cashCacheTTL = 5 * time.Minute

// ReconciliationService runs the alignment resolver and matching engine for
// one (property, end period) and persists the result set atomically.
//
// Concurrent runs for the same (property, period) must be serialized by the
// caller (external lock keyed on the pair); this service assumes at most one
// in-flight run per key.
type ReconciliationService interface {
	Reconcile(propertyID, endPeriodID int64) (*domain.ReconciliationSummary, error)
	ResolveAlignment(propertyID, endPeriodID int64) *domain.AlignmentContext
	GetRunStatus(runID string) (*domain.ReconciliationRun, error)
	GetRunSummary(runID string) (*domain.ReconciliationSummary, error)
}

type reconciliationService struct {
	statements repository.StatementRepository
	knowledge  repository.KnowledgeRepository
	patterns   repository.PatternRepository
	matches    repository.MatchResultRepository
	engineCfg  config.EngineConfig
}

func NewReconciliationService(
	statements repository.StatementRepository,
	knowledge repository.KnowledgeRepository,
	patterns repository.PatternRepository,
	matches repository.MatchResultRepository,
	engineCfg config.EngineConfig,
) ReconciliationService {
	return &reconciliationService{
		statements: statements,
		knowledge:  knowledge,
		patterns:   patterns,
		matches:    matches,
		engineCfg:  engineCfg,
	}
}

func (s *reconciliationService) Reconcile(propertyID, endPeriodID int64) (*domain.ReconciliationSummary, error) {
	runID := uuid.New().String()
	run := &domain.ReconciliationRun{
		RunID:            runID,
		PropertyID:       propertyID,
		PeriodID:         endPeriodID,
		Status:           domain.RunProcessing,
		TotalDiscrepancy: decimal.Zero,
	}

	if err := s.matches.CreateRun(run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":      runID,
		"property_id": propertyID,
		"period_id":   endPeriodID,
	}).Info("Starting reconciliation run")

	// the resolver, cache, and engine are built fresh per run so nothing
	// caches across runs
	resolver := s.newResolver()
	ctx := resolver.Resolve(propertyID, endPeriodID)

	engine := matcher.NewEngine(s.statements, s.knowledge, s.patterns, resolver, s.engineCfg.LearnedPatternLimit)
	results := engine.FindAllMatches(runID, ctx)

	if err := s.matches.ReplaceResults(propertyID, endPeriodID, results); err != nil {
		s.markRunFailed(run, err.Error())
		return nil, fmt.Errorf("failed to persist match results: %w", err)
	}

	run.Status = domain.RunCompleted
	run.TotalMatches = len(results)
	run.TotalDiscrepancy = totalDiscrepancy(results)
	run.AlignmentMethod = ctx.Method
	run.AlignmentConfidence = ctx.Confidence

	if err := s.matches.UpdateRun(run); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update run")
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":  runID,
		"matches": len(results),
	}).Info("Reconciliation run completed")

	return &domain.ReconciliationSummary{
		RunID:               runID,
		PropertyID:          propertyID,
		PeriodID:            endPeriodID,
		AlignmentMethod:     ctx.Method,
		AlignmentConfidence: ctx.Confidence,
		WindowMonths:        ctx.WindowMonths,
		TotalMatches:        len(results),
		TotalDiscrepancy:    run.TotalDiscrepancy,
		Matches:             results,
	}, nil
}

// ResolveAlignment exposes the resolver alone, for inspection.
func (s *reconciliationService) ResolveAlignment(propertyID, endPeriodID int64) *domain.AlignmentContext {
	return s.newResolver().Resolve(propertyID, endPeriodID)
}

func (s *reconciliationService) GetRunStatus(runID string) (*domain.ReconciliationRun, error) {
	return s.matches.GetRunByID(runID)
}

func (s *reconciliationService) GetRunSummary(runID string) (*domain.ReconciliationSummary, error) {
	run, err := s.matches.GetRunByID(runID)
	if err != nil {
		return nil, err
	}

	results, err := s.matches.GetResultsByRunID(runID)
	if err != nil {
		return nil, err
	}

	return &domain.ReconciliationSummary{
		RunID:               run.RunID,
		PropertyID:          run.PropertyID,
		PeriodID:            run.PeriodID,
		AlignmentMethod:     run.AlignmentMethod,
		AlignmentConfidence: run.AlignmentConfidence,
		TotalMatches:        run.TotalMatches,
		TotalDiscrepancy:    run.TotalDiscrepancy,
		Matches:             results,
	}, nil
}

func (s *reconciliationService) newResolver() *alignment.Resolver {
	cashCache := cache.NewPeriodCashCache(cashCacheTTL, s.engineCfg.CandidateWindowMonths*2)
	return alignment.NewResolver(s.statements, cashCache, s.engineCfg)
}

func (s *reconciliationService) markRunFailed(run *domain.ReconciliationRun, errorMsg string) {
	run.Status = domain.RunFailed
	run.ErrorMessage = &errorMsg
	if err := s.matches.UpdateRun(run); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to mark run failed")
	}
}

func totalDiscrepancy(results []domain.MatchResult) decimal.Decimal {
	total := decimal.Zero
	for i := range results {
		total = total.Add(results[i].AmountDifference)
	}
	return total
}
