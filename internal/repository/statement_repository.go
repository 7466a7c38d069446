package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

// StatementRepository is the read-only view over persisted line items.
// Records are created by the upstream extraction pipeline and never written
// from here.
type StatementRepository interface {
	GetRecords(propertyID, periodID int64, statementType domain.StatementType) ([]domain.StatementRecord, error)
	GetAllRecords(propertyID, periodID int64) ([]domain.StatementRecord, error)
	GetHeader(propertyID, periodID int64, statementType domain.StatementType) (*domain.StatementHeader, error)
	GetPeriod(periodID int64) (*domain.FinancialPeriod, error)
	GetPeriodByMonth(propertyID int64, year, month int) (*domain.FinancialPeriod, error)
	GetPriorPeriods(propertyID int64, before domain.FinancialPeriod, limit int) ([]domain.FinancialPeriod, error)
}

type statementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) StatementRepository {
	return &statementRepository{db: db}
}

const recordColumns = `
	id, property_id, period_id, statement_type, account_code, account_name,
	balance, period_amount, monthly_rent, principal_balance, interest_amount,
	is_total, is_subtotal, created_at
`

func (r *statementRepository) GetRecords(propertyID, periodID int64, statementType domain.StatementType) ([]domain.StatementRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM statement_records
		WHERE property_id = $1 AND period_id = $2 AND statement_type = $3
		ORDER BY id
	`
	return r.queryRecords(query, propertyID, periodID, string(statementType))
}

func (r *statementRepository) GetAllRecords(propertyID, periodID int64) ([]domain.StatementRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM statement_records
		WHERE property_id = $1 AND period_id = $2
		ORDER BY statement_type, id
	`
	return r.queryRecords(query, propertyID, periodID)
}

func (r *statementRepository) queryRecords(query string, args ...interface{}) ([]domain.StatementRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query statement records")
		return nil, err
	}
	defer rows.Close()

	var records []domain.StatementRecord
	for rows.Next() {
		var rec domain.StatementRecord
		var code sql.NullString
		var balance, periodAmount, monthlyRent, principal, interest decimal.NullDecimal

		err := rows.Scan(
			&rec.ID,
			&rec.PropertyID,
			&rec.PeriodID,
			&rec.StatementType,
			&code,
			&rec.AccountName,
			&balance,
			&periodAmount,
			&monthlyRent,
			&principal,
			&interest,
			&rec.IsTotal,
			&rec.IsSubtotal,
			&rec.CreatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan statement record")
			continue
		}

		if code.Valid {
			rec.AccountCode = &code.String
		}
		rec.Balance = nullDecimalPtr(balance)
		rec.PeriodAmount = nullDecimalPtr(periodAmount)
		rec.MonthlyRent = nullDecimalPtr(monthlyRent)
		rec.PrincipalBalance = nullDecimalPtr(principal)
		rec.InterestAmount = nullDecimalPtr(interest)

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *statementRepository) GetHeader(propertyID, periodID int64, statementType domain.StatementType) (*domain.StatementHeader, error) {
	query := `
		SELECT id, property_id, period_id, statement_type,
			report_period_start, report_period_end, beginning_cash, ending_cash
		FROM statement_headers
		WHERE property_id = $1 AND period_id = $2 AND statement_type = $3
	`

	var h domain.StatementHeader
	var start, end sql.NullTime
	var beginning, ending decimal.NullDecimal

	err := r.db.QueryRow(query, propertyID, periodID, string(statementType)).Scan(
		&h.ID,
		&h.PropertyID,
		&h.PeriodID,
		&h.StatementType,
		&start,
		&end,
		&beginning,
		&ending,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get statement header")
		return nil, err
	}

	if start.Valid {
		h.ReportPeriodStart = &start.Time
	}
	if end.Valid {
		h.ReportPeriodEnd = &end.Time
	}
	h.BeginningCash = nullDecimalPtr(beginning)
	h.EndingCash = nullDecimalPtr(ending)

	return &h, nil
}

func (r *statementRepository) GetPeriod(periodID int64) (*domain.FinancialPeriod, error) {
	query := `
		SELECT id, property_id, year, month, start_date, end_date
		FROM financial_periods
		WHERE id = $1
	`

	var p domain.FinancialPeriod
	err := r.db.QueryRow(query, periodID).Scan(
		&p.ID, &p.PropertyID, &p.Year, &p.Month, &p.StartDate, &p.EndDate,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("period %d not found", periodID)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get period")
		return nil, err
	}

	return &p, nil
}

func (r *statementRepository) GetPeriodByMonth(propertyID int64, year, month int) (*domain.FinancialPeriod, error) {
	query := `
		SELECT id, property_id, year, month, start_date, end_date
		FROM financial_periods
		WHERE property_id = $1 AND year = $2 AND month = $3
	`

	var p domain.FinancialPeriod
	err := r.db.QueryRow(query, propertyID, year, month).Scan(
		&p.ID, &p.PropertyID, &p.Year, &p.Month, &p.StartDate, &p.EndDate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get period by month")
		return nil, err
	}

	return &p, nil
}

// GetPriorPeriods returns the property's periods strictly before the given
// one, nearest first.
func (r *statementRepository) GetPriorPeriods(propertyID int64, before domain.FinancialPeriod, limit int) ([]domain.FinancialPeriod, error) {
	query := `
		SELECT id, property_id, year, month, start_date, end_date
		FROM financial_periods
		WHERE property_id = $1 AND (year, month) < ($2, $3)
		ORDER BY year DESC, month DESC
		LIMIT $4
	`

	rows, err := r.db.Query(query, propertyID, before.Year, before.Month, limit)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query prior periods")
		return nil, err
	}
	defer rows.Close()

	var periods []domain.FinancialPeriod
	for rows.Next() {
		var p domain.FinancialPeriod
		err := rows.Scan(&p.ID, &p.PropertyID, &p.Year, &p.Month, &p.StartDate, &p.EndDate)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan period")
			continue
		}
		periods = append(periods, p)
	}

	return periods, rows.Err()
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
