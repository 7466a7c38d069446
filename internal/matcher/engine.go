package matcher

import (
	"property-recon/internal/alignment"
	"property-recon/internal/domain"
	"property-recon/internal/repository"
	"property-recon/pkg/logger"
)

// Engine produces confidence-scored equivalence assertions between records
// of different statement types. Three tiers run in order: learned patterns,
// adaptively-discovered accounts, then canonical rules. The first tier to
// claim a (source, target) pair wins; later tiers skip it.
type Engine struct {
	statements   repository.StatementRepository
	knowledge    repository.KnowledgeRepository
	patterns     repository.PatternRepository
	resolver     *alignment.Resolver
	patternLimit int
}

func NewEngine(
	statements repository.StatementRepository,
	knowledge repository.KnowledgeRepository,
	patterns repository.PatternRepository,
	resolver *alignment.Resolver,
	patternLimit int,
) *Engine {
	if patternLimit < 1 {
		patternLimit = 20
	}
	return &Engine{
		statements:   statements,
		knowledge:    knowledge,
		patterns:     patterns,
		resolver:     resolver,
		patternLimit: patternLimit,
	}
}

// FindAllMatches runs all three tiers for the context's property and end
// period. Deterministic for fixed inputs; per-rule failures are logged and
// skipped so one bad rule never aborts the run.
func (e *Engine) FindAllMatches(runID string, ctx *domain.AlignmentContext) []domain.MatchResult {
	records := e.loadRecords(ctx.PropertyID, ctx.EndPeriodID)

	results := make([]domain.MatchResult, 0)
	seen := make(map[domain.MatchPair]bool)

	appendResult := func(m *domain.MatchResult) {
		if m == nil {
			return
		}
		if seen[m.Pair()] {
			return
		}
		seen[m.Pair()] = true
		m.RunID = runID
		results = append(results, *m)
	}

	// Tier A: learned patterns
	for _, m := range e.learnedMatches(ctx, records) {
		match := m
		appendResult(&match)
	}

	// Tiers B and C per relationship. Discovery gates an adaptive attempt;
	// the canonical attempt then covers whatever is still unclaimed. The two
	// attempts are isolated separately so a failure in discovery never costs
	// the relationship its canonical baseline.
	for i := range relationshipCatalog {
		rel := &relationshipCatalog[i]

		e.withRuleIsolation(rel.Name+"_adaptive", func() {
			if e.discoveryQualifies(ctx.PropertyID, rel) {
				if m := e.evaluateRelationship(rel, records, domain.AlgorithmAdaptiveDiscovery); m != nil {
					appendResult(m)
				}
			}
		})
		e.withRuleIsolation(rel.Name, func() {
			if m := e.evaluateRelationship(rel, records, domain.AlgorithmCanonicalRule); m != nil {
				appendResult(m)
			}
		})
	}

	// window-based cash movement check, only meaningful with a resolved
	// begin period
	e.withRuleIsolation("cash_delta_over_window", func() {
		appendResult(e.windowedCashDeltaMatch(ctx, records))
	})

	logger.GetLogger().WithFields(map[string]interface{}{
		"run_id":      runID,
		"property_id": ctx.PropertyID,
		"period_id":   ctx.EndPeriodID,
		"matches":     len(results),
	}).Info("Matching completed")

	return results
}

// withRuleIsolation runs one rule, converting a panic into a logged skip.
func (e *Engine) withRuleIsolation(ruleName string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"rule":  ruleName,
				"panic": rec,
			}).Error("Rule evaluation panicked, skipping")
		}
	}()
	fn()
}

func (e *Engine) loadRecords(propertyID, periodID int64) map[domain.StatementType][]domain.StatementRecord {
	records := make(map[domain.StatementType][]domain.StatementRecord, len(domain.AllStatementTypes))
	for _, st := range domain.AllStatementTypes {
		recs, err := e.statements.GetRecords(propertyID, periodID, st)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("statement_type", st).
				Warn("Failed to load records for matching")
			continue
		}
		records[st] = recs
	}
	return records
}
