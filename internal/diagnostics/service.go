package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"property-recon/internal/domain"
	"property-recon/internal/repository"
	"property-recon/pkg/logger"
)

const (
	sampleCodeCap       = 20
	similarAccountCap   = 5
	relevantPatternCap  = 10
	minSuccessRate      = 70
	minRowsForReconcile = 10

	codePrefixConfidence    = 70
	nameSubstringConfidence = 80
)

// canonicalAccount is a line item expected to exist in a statement type
// regardless of property-specific chart-of-accounts variation.
type canonicalAccount struct {
	StatementType domain.StatementType
	AccountCode   string
	AccountName   string
	CodePrefix    string
}

var canonicalAccounts = []canonicalAccount{
	{domain.BalanceSheet, "3990", "Current Period Earnings", "39"},
	{domain.BalanceSheet, "2710", "Long-Term Debt", "27"},
	{domain.IncomeStatement, "9090", "Net Income", "90"},
	{domain.IncomeStatement, "4010", "Base Rentals", "40"},
	{domain.IncomeStatement, "6910", "Interest Expense", "69"},
	{domain.CashFlow, "", "Ending Cash", ""},
}

var statementDisplayNames = map[domain.StatementType]string{
	domain.BalanceSheet:      "Balance Sheet",
	domain.IncomeStatement:   "Income Statement",
	domain.CashFlow:          "Cash Flow Statement",
	domain.RentRoll:          "Rent Roll",
	domain.MortgageStatement: "Mortgage Statement",
}

// Service explains why reconciliation for a (property, period) is
// incomplete. Read-only; never mutates state.
type Service struct {
	statements repository.StatementRepository
	knowledge  repository.KnowledgeRepository
	patterns   repository.PatternRepository
}

func NewService(
	statements repository.StatementRepository,
	knowledge repository.KnowledgeRepository,
	patterns repository.PatternRepository,
) *Service {
	return &Service{
		statements: statements,
		knowledge:  knowledge,
		patterns:   patterns,
	}
}

// Diagnose builds the full report for one (property, period).
func (s *Service) Diagnose(propertyID, periodID int64) (*domain.DiagnosticsReport, error) {
	report := &domain.DiagnosticsReport{
		PropertyID:  propertyID,
		PeriodID:    periodID,
		GeneratedAt: time.Now().UTC(),
	}

	records, err := s.statements.GetAllRecords(propertyID, periodID)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to load records for diagnostics")
	}
	report.TotalRows = len(records)

	recordsByType := make(map[domain.StatementType][]domain.StatementRecord, len(domain.AllStatementTypes))
	for i := range records {
		st := records[i].StatementType
		recordsByType[st] = append(recordsByType[st], records[i])
	}
	for _, st := range domain.AllStatementTypes {
		report.Availability = append(report.Availability, availabilityFor(st, recordsByType[st]))
	}

	for _, canonical := range canonicalAccounts {
		if accountPresent(recordsByType[canonical.StatementType], canonical) {
			continue
		}
		missing := domain.MissingAccount{
			StatementType: canonical.StatementType,
			AccountCode:   canonical.AccountCode,
			AccountName:   canonical.AccountName,
			Similar:       s.findSimilarAccounts(propertyID, canonical),
		}
		report.MissingAccounts = append(report.MissingAccounts, missing)
		report.SuggestedFixes = append(report.SuggestedFixes, suggestFix(missing))
	}

	patterns, err := s.patterns.GetHighSuccessPatterns(relevantPatternCap, minSuccessRate)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to load relevant patterns")
	} else {
		report.RelevantPatterns = patterns
	}

	report.Recommendations = buildRecommendations(report)
	return report, nil
}

func availabilityFor(st domain.StatementType, records []domain.StatementRecord) domain.StatementAvailability {
	availability := domain.StatementAvailability{
		StatementType: st,
		RowCount:      len(records),
	}
	for i := range records {
		if records[i].AccountCode == nil {
			continue
		}
		availability.SampleCodes = append(availability.SampleCodes, *records[i].AccountCode)
		if len(availability.SampleCodes) >= sampleCodeCap {
			break
		}
	}
	return availability
}

func accountPresent(records []domain.StatementRecord, canonical canonicalAccount) bool {
	nameLower := strings.ToLower(canonical.AccountName)
	for i := range records {
		rec := &records[i]
		if canonical.AccountCode != "" && rec.AccountCode != nil && *rec.AccountCode == canonical.AccountCode {
			return true
		}
		if strings.Contains(strings.ToLower(rec.AccountName), nameLower) {
			return true
		}
	}
	return false
}

// findSimilarAccounts searches the account knowledge for substitutes:
// code-prefix matches, name-substring matches, then known synonyms. Top 5
// by confidence; ties broken by name distance to the canonical account.
func (s *Service) findSimilarAccounts(propertyID int64, canonical canonicalAccount) []domain.SimilarAccount {
	var similar []domain.SimilarAccount

	codes, err := s.knowledge.GetDiscoveredCodes(propertyID, canonical.StatementType)
	if err != nil {
		logger.GetLogger().WithError(err).Warn("Failed to query discovered codes")
		codes = nil
	}

	nameLower := strings.ToLower(canonical.AccountName)
	for i := range codes {
		code := &codes[i]
		switch {
		case canonical.CodePrefix != "" && strings.HasPrefix(code.AccountCode, canonical.CodePrefix):
			similar = append(similar, domain.SimilarAccount{
				AccountCode: code.AccountCode,
				AccountName: code.AccountName,
				Confidence:  codePrefixConfidence,
				MatchBasis:  "code_prefix",
			})
		case strings.Contains(strings.ToLower(code.AccountName), nameLower):
			similar = append(similar, domain.SimilarAccount{
				AccountCode: code.AccountCode,
				AccountName: code.AccountName,
				Confidence:  nameSubstringConfidence,
				MatchBasis:  "name_substring",
			})
		}
	}

	if canonical.AccountCode != "" {
		synonyms, err := s.knowledge.GetSynonyms(canonical.StatementType, canonical.AccountCode)
		if err != nil {
			logger.GetLogger().WithError(err).Warn("Failed to query synonyms")
		}
		for i := range synonyms {
			syn := &synonyms[i]
			similar = append(similar, domain.SimilarAccount{
				AccountCode: syn.CanonicalAccountCode,
				AccountName: syn.SynonymName,
				Confidence:  syn.CombinedConfidence,
				MatchBasis:  "synonym",
			})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		if similar[i].Confidence != similar[j].Confidence {
			return similar[i].Confidence > similar[j].Confidence
		}
		return nameDistance(similar[i].AccountName, canonical.AccountName) <
			nameDistance(similar[j].AccountName, canonical.AccountName)
	})

	if len(similar) > similarAccountCap {
		similar = similar[:similarAccountCap]
	}
	return similar
}

func nameDistance(a, b string) int {
	return levenshtein.DistanceForStrings(
		[]rune(strings.ToLower(a)),
		[]rune(strings.ToLower(b)),
		levenshtein.DefaultOptions,
	)
}

func suggestFix(missing domain.MissingAccount) domain.SuggestedFix {
	displayName := statementDisplayNames[missing.StatementType]

	if len(missing.Similar) > 0 {
		best := missing.Similar[0]
		return domain.SuggestedFix{
			StatementType: missing.StatementType,
			AccountName:   missing.AccountName,
			Action:        "use_similar_account",
			UseAccount:    &best,
			Description: fmt.Sprintf("Map %q to discovered account %s (%s)",
				missing.AccountName, best.AccountCode, best.AccountName),
		}
	}

	return domain.SuggestedFix{
		StatementType: missing.StatementType,
		AccountName:   missing.AccountName,
		Action:        "upload_statement",
		Description:   fmt.Sprintf("Upload %s containing %q for this period", displayName, missing.AccountName),
	}
}

func buildRecommendations(report *domain.DiagnosticsReport) []string {
	recommendations := make([]string, 0)

	for _, availability := range report.Availability {
		if availability.RowCount == 0 {
			recommendations = append(recommendations,
				fmt.Sprintf("Upload %s for this period", statementDisplayNames[availability.StatementType]))
		}
	}

	missingByType := make(map[domain.StatementType][]string)
	for _, missing := range report.MissingAccounts {
		missingByType[missing.StatementType] = append(missingByType[missing.StatementType], missing.AccountName)
	}
	for _, st := range domain.AllStatementTypes {
		if names, ok := missingByType[st]; ok {
			recommendations = append(recommendations,
				fmt.Sprintf("%s missing accounts: %s", statementDisplayNames[st], strings.Join(names, ", ")))
		}
	}

	if report.TotalRows < minRowsForReconcile {
		recommendations = append(recommendations, "Insufficient data for reconciliation")
	}

	return recommendations
}
