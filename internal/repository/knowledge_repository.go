package repository

import (
	"database/sql"

	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

// KnowledgeRepository reads the account knowledge built by the external
// discovery job: per-property discovered codes and cross-property synonyms.
type KnowledgeRepository interface {
	GetDiscoveredCodes(propertyID int64, statementType domain.StatementType) ([]domain.DiscoveredAccountCode, error)
	GetSynonyms(statementType domain.StatementType, canonicalCode string) ([]domain.AccountCodeSynonym, error)
}

type knowledgeRepository struct {
	db *sql.DB
}

func NewKnowledgeRepository(db *sql.DB) KnowledgeRepository {
	return &knowledgeRepository{db: db}
}

func (r *knowledgeRepository) GetDiscoveredCodes(propertyID int64, statementType domain.StatementType) ([]domain.DiscoveredAccountCode, error) {
	query := `
		SELECT id, property_id, statement_type, account_code, account_name,
			account_type, occurrence_count
		FROM discovered_account_codes
		WHERE property_id = $1 AND statement_type = $2
		ORDER BY occurrence_count DESC, account_code
	`

	rows, err := r.db.Query(query, propertyID, string(statementType))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query discovered codes")
		return nil, err
	}
	defer rows.Close()

	var codes []domain.DiscoveredAccountCode
	for rows.Next() {
		var c domain.DiscoveredAccountCode
		err := rows.Scan(
			&c.ID,
			&c.PropertyID,
			&c.StatementType,
			&c.AccountCode,
			&c.AccountName,
			&c.AccountType,
			&c.OccurrenceCount,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan discovered code")
			continue
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

func (r *knowledgeRepository) GetSynonyms(statementType domain.StatementType, canonicalCode string) ([]domain.AccountCodeSynonym, error) {
	query := `
		SELECT id, statement_type, canonical_account_code, canonical_account_name,
			synonym_name, combined_confidence
		FROM account_code_synonyms
		WHERE statement_type = $1 AND canonical_account_code = $2
		ORDER BY combined_confidence DESC
	`

	rows, err := r.db.Query(query, string(statementType), canonicalCode)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query synonyms")
		return nil, err
	}
	defer rows.Close()

	var synonyms []domain.AccountCodeSynonym
	for rows.Next() {
		var s domain.AccountCodeSynonym
		err := rows.Scan(
			&s.ID,
			&s.StatementType,
			&s.CanonicalAccountCode,
			&s.CanonicalAccountName,
			&s.SynonymName,
			&s.CombinedConfidence,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan synonym")
			continue
		}
		synonyms = append(synonyms, s)
	}

	return synonyms, rows.Err()
}
