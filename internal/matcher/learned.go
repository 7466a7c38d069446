package matcher

import (
	"fmt"

	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

const defaultLearnedConfidence = 80

// learnedMatches is tier A: apply persisted patterns in
// (priority desc, success_rate desc) order.
func (e *Engine) learnedMatches(
	ctx *domain.AlignmentContext,
	records map[domain.StatementType][]domain.StatementRecord,
) []domain.MatchResult {
	patterns, err := e.patterns.GetActivePatterns(e.patternLimit)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to load learned patterns")
		return nil
	}

	var results []domain.MatchResult
	for i := range patterns {
		pattern := &patterns[i]

		var match *domain.MatchResult
		e.withRuleIsolation(fmt.Sprintf("learned_pattern_%d", pattern.ID), func() {
			match = e.applyPattern(pattern, records)
		})
		if match != nil {
			results = append(results, *match)
		}
	}

	return results
}

func (e *Engine) applyPattern(
	pattern *domain.LearnedMatchPattern,
	records map[domain.StatementType][]domain.StatementRecord,
) *domain.MatchResult {
	// only equality patterns are evaluated here; formula patterns need the
	// calibration job to have validated the formula first
	if pattern.RelationshipType != domain.RelationshipEquality {
		return nil
	}

	source := locateByPattern(records[pattern.SourceStatementType], pattern.SourceAccountCode, pattern.SourceAccountName)
	if source == nil {
		return nil
	}
	target := locateByPattern(records[pattern.TargetStatementType], pattern.TargetAccountCode, pattern.TargetAccountName)
	if target == nil {
		return nil
	}

	sourceAmount, ok := source.PrimaryAmount()
	if !ok {
		return nil
	}
	targetAmount, ok := target.PrimaryAmount()
	if !ok {
		return nil
	}

	diff, pct := comparisonMetrics(sourceAmount, targetAmount)

	confidence := float64(defaultLearnedConfidence)
	if pattern.AverageConfidence != nil {
		confidence = *pattern.AverageConfidence
	}
	confidence = discountConfidence(confidence, pct)

	return &domain.MatchResult{
		RuleName:            fmt.Sprintf("learned_pattern_%d", pattern.ID),
		SourceRecordID:      source.ID,
		TargetRecordID:      target.ID,
		SourceStatementType: pattern.SourceStatementType,
		TargetStatementType: pattern.TargetStatementType,
		SourceAccountName:   source.AccountName,
		TargetAccountName:   target.AccountName,
		SourceAmount:        sourceAmount,
		TargetAmount:        targetAmount,
		AmountDifference:    diff,
		AmountDifferencePct: pct,
		Confidence:          confidence,
		Algorithm:           domain.AlgorithmLearnedPattern,
		RelationshipType:    pattern.RelationshipType,
		Formula:             pattern.RelationshipFormula,
	}
}

// locateByPattern matches by exact account code when the pattern carries
// one, otherwise by name containment.
func locateByPattern(records []domain.StatementRecord, code *string, name string) *domain.StatementRecord {
	if code != nil && *code != "" {
		for i := range records {
			if records[i].AccountCode != nil && *records[i].AccountCode == *code {
				return &records[i]
			}
		}
		return nil
	}
	if name == "" {
		return nil
	}
	return findRecord(records, nil, []string{name})
}
