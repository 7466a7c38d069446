package diagnostics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-recon/internal/domain"
)

type fakeStatements struct {
	records  map[domain.StatementType][]domain.StatementRecord
	allCalls int
}

func (f *fakeStatements) GetRecords(propertyID, periodID int64, statementType domain.StatementType) ([]domain.StatementRecord, error) {
	return f.records[statementType], nil
}

func (f *fakeStatements) GetAllRecords(propertyID, periodID int64) ([]domain.StatementRecord, error) {
	f.allCalls++
	var all []domain.StatementRecord
	for _, st := range domain.AllStatementTypes {
		all = append(all, f.records[st]...)
	}
	return all, nil
}

func (f *fakeStatements) GetHeader(propertyID, periodID int64, statementType domain.StatementType) (*domain.StatementHeader, error) {
	return nil, nil
}

func (f *fakeStatements) GetPeriod(periodID int64) (*domain.FinancialPeriod, error) {
	return &domain.FinancialPeriod{ID: periodID, PropertyID: 1, Year: 2024, Month: 12}, nil
}

func (f *fakeStatements) GetPeriodByMonth(propertyID int64, year, month int) (*domain.FinancialPeriod, error) {
	return nil, nil
}

func (f *fakeStatements) GetPriorPeriods(propertyID int64, before domain.FinancialPeriod, limit int) ([]domain.FinancialPeriod, error) {
	return nil, nil
}

type fakeKnowledge struct {
	codes    map[domain.StatementType][]domain.DiscoveredAccountCode
	synonyms map[string][]domain.AccountCodeSynonym
}

func (f *fakeKnowledge) GetDiscoveredCodes(propertyID int64, statementType domain.StatementType) ([]domain.DiscoveredAccountCode, error) {
	return f.codes[statementType], nil
}

func (f *fakeKnowledge) GetSynonyms(statementType domain.StatementType, canonicalCode string) ([]domain.AccountCodeSynonym, error) {
	return f.synonyms[canonicalCode], nil
}

type fakePatterns struct {
	patterns []domain.LearnedMatchPattern
}

func (f *fakePatterns) GetActivePatterns(limit int) ([]domain.LearnedMatchPattern, error) {
	return f.patterns, nil
}

func (f *fakePatterns) GetHighSuccessPatterns(limit int, minSuccessRate float64) ([]domain.LearnedMatchPattern, error) {
	var out []domain.LearnedMatchPattern
	for _, p := range f.patterns {
		if p.SuccessRate >= minSuccessRate {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestService(statements *fakeStatements, knowledge *fakeKnowledge, patterns *fakePatterns) *Service {
	if statements.records == nil {
		statements.records = make(map[domain.StatementType][]domain.StatementRecord)
	}
	if knowledge.codes == nil {
		knowledge.codes = make(map[domain.StatementType][]domain.DiscoveredAccountCode)
	}
	if knowledge.synonyms == nil {
		knowledge.synonyms = make(map[string][]domain.AccountCodeSynonym)
	}
	return NewService(statements, knowledge, patterns)
}

func TestDiagnose_NoDataAtAll(t *testing.T) {
	service := newTestService(&fakeStatements{}, &fakeKnowledge{}, &fakePatterns{})

	report, err := service.Diagnose(1, 12)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalRows)
	assert.Len(t, report.Availability, len(domain.AllStatementTypes))

	for _, st := range domain.AllStatementTypes {
		assert.Contains(t, report.Recommendations,
			"Upload "+statementDisplayNames[st]+" for this period")
	}
	assert.Contains(t, report.Recommendations, "Insufficient data for reconciliation")
}

func TestDiagnose_LoadsRecordsInOneQuery(t *testing.T) {
	balance := decimal.RequireFromString("1000.00")
	amount := decimal.RequireFromString("250.00")
	statements := &fakeStatements{records: map[domain.StatementType][]domain.StatementRecord{
		domain.BalanceSheet: {
			{ID: 1, StatementType: domain.BalanceSheet, AccountName: "Operating Cash", Balance: &balance},
			{ID: 2, StatementType: domain.BalanceSheet, AccountName: "Petty Cash", Balance: &balance},
		},
		domain.IncomeStatement: {
			{ID: 3, StatementType: domain.IncomeStatement, AccountName: "Misc Expense", PeriodAmount: &amount},
		},
	}}

	service := newTestService(statements, &fakeKnowledge{}, &fakePatterns{})
	report, err := service.Diagnose(1, 12)
	require.NoError(t, err)

	assert.Equal(t, 1, statements.allCalls, "records load in a single bulk query")
	assert.Equal(t, 3, report.TotalRows)

	counts := make(map[domain.StatementType]int)
	for _, availability := range report.Availability {
		counts[availability.StatementType] = availability.RowCount
	}
	assert.Equal(t, 2, counts[domain.BalanceSheet])
	assert.Equal(t, 1, counts[domain.IncomeStatement])
	assert.Equal(t, 0, counts[domain.RentRoll])
}

func TestDiagnose_MissingAccountWithSimilarCandidates(t *testing.T) {
	statements := &fakeStatements{records: map[domain.StatementType][]domain.StatementRecord{}}

	// a balance sheet exists but lacks Current Period Earnings
	balance := decimal.RequireFromString("1000.00")
	code := "1010"
	statements.records[domain.BalanceSheet] = []domain.StatementRecord{
		{ID: 1, StatementType: domain.BalanceSheet, AccountCode: &code, AccountName: "Operating Cash", Balance: &balance},
	}

	knowledge := &fakeKnowledge{
		codes: map[domain.StatementType][]domain.DiscoveredAccountCode{
			domain.BalanceSheet: {
				{AccountCode: "3991", AccountName: "YTD Profit"},                       // code prefix 39
				{AccountCode: "3850", AccountName: "Current Period Earnings - Net"},   // name substring
				{AccountCode: "2200", AccountName: "Security Deposits"},               // no relation
			},
		},
		synonyms: map[string][]domain.AccountCodeSynonym{
			"3990": {
				{CanonicalAccountCode: "3990", CanonicalAccountName: "Current Period Earnings", SynonymName: "Period Profit (YTD)", CombinedConfidence: 92.5},
			},
		},
	}

	service := newTestService(statements, knowledge, &fakePatterns{})
	report, err := service.Diagnose(1, 12)
	require.NoError(t, err)

	var missing *domain.MissingAccount
	for i := range report.MissingAccounts {
		if report.MissingAccounts[i].AccountName == "Current Period Earnings" {
			missing = &report.MissingAccounts[i]
		}
	}
	require.NotNil(t, missing, "Current Period Earnings should be reported missing")

	require.NotEmpty(t, missing.Similar)
	// synonym carries the highest confidence and sorts first
	assert.Equal(t, "synonym", missing.Similar[0].MatchBasis)
	assert.Equal(t, 92.5, missing.Similar[0].Confidence)

	bases := make(map[string]float64)
	for _, sim := range missing.Similar {
		bases[sim.MatchBasis] = sim.Confidence
	}
	assert.Equal(t, float64(80), bases["name_substring"])
	assert.Equal(t, float64(70), bases["code_prefix"])

	// the best similar account drives the suggested fix
	var fix *domain.SuggestedFix
	for i := range report.SuggestedFixes {
		if report.SuggestedFixes[i].AccountName == "Current Period Earnings" {
			fix = &report.SuggestedFixes[i]
		}
	}
	require.NotNil(t, fix)
	assert.Equal(t, "use_similar_account", fix.Action)
	require.NotNil(t, fix.UseAccount)
	assert.Equal(t, "synonym", fix.UseAccount.MatchBasis)
}

func TestDiagnose_SimilarAccountsCappedAtFive(t *testing.T) {
	statements := &fakeStatements{}

	var codes []domain.DiscoveredAccountCode
	for _, c := range []string{"3910", "3920", "3930", "3940", "3950", "3960", "3970"} {
		codes = append(codes, domain.DiscoveredAccountCode{AccountCode: c, AccountName: "Equity " + c})
	}
	knowledge := &fakeKnowledge{codes: map[domain.StatementType][]domain.DiscoveredAccountCode{
		domain.BalanceSheet: codes,
	}}

	service := newTestService(statements, knowledge, &fakePatterns{})
	report, err := service.Diagnose(1, 12)
	require.NoError(t, err)

	for _, missing := range report.MissingAccounts {
		assert.LessOrEqual(t, len(missing.Similar), 5)
	}
}

func TestDiagnose_MissingAccountsRecommendation(t *testing.T) {
	statements := &fakeStatements{records: map[domain.StatementType][]domain.StatementRecord{}}

	amount := decimal.RequireFromString("100.00")
	var rows []domain.StatementRecord
	for i := int64(0); i < 12; i++ {
		rows = append(rows, domain.StatementRecord{
			ID: i, StatementType: domain.IncomeStatement, AccountName: "Misc Expense", PeriodAmount: &amount,
		})
	}
	statements.records[domain.IncomeStatement] = rows

	service := newTestService(statements, &fakeKnowledge{}, &fakePatterns{})
	report, err := service.Diagnose(1, 12)
	require.NoError(t, err)

	assert.NotContains(t, report.Recommendations, "Insufficient data for reconciliation")

	found := false
	for _, rec := range report.Recommendations {
		if rec == "Income Statement missing accounts: Net Income, Base Rentals, Interest Expense" {
			found = true
		}
	}
	assert.True(t, found, "missing-accounts recommendation not built: %v", report.Recommendations)
}

func TestDiagnose_RelevantPatternsFiltered(t *testing.T) {
	patterns := &fakePatterns{patterns: []domain.LearnedMatchPattern{
		{ID: 1, SuccessRate: 95, IsActive: true},
		{ID: 2, SuccessRate: 40, IsActive: true},
	}}

	service := newTestService(&fakeStatements{}, &fakeKnowledge{}, patterns)
	report, err := service.Diagnose(1, 12)
	require.NoError(t, err)

	require.Len(t, report.RelevantPatterns, 1)
	assert.Equal(t, int64(1), report.RelevantPatterns[0].ID)
}
