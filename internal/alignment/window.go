package alignment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"property-recon/internal/domain"
)

// AccountSelector picks balance-sheet accounts by code prefix or by
// case-insensitive name substring. At least one must be set.
type AccountSelector struct {
	CodePrefix  string
	NamePattern string
}

func (s AccountSelector) matches(rec *domain.StatementRecord) bool {
	if rec.IsTotal || rec.IsSubtotal {
		return false
	}
	if s.CodePrefix != "" && rec.AccountCode != nil && strings.HasPrefix(*rec.AccountCode, s.CodePrefix) {
		return true
	}
	if s.NamePattern != "" && strings.Contains(strings.ToLower(rec.AccountName), strings.ToLower(s.NamePattern)) {
		return true
	}
	return false
}

// WindowDelta is the change of a balance-sheet position over the resolved
// reporting window.
type WindowDelta struct {
	Delta         decimal.Decimal
	BeginValue    decimal.Decimal
	EndValue      decimal.Decimal
	BeginPeriodID *int64
	HasBegin      bool
	HasEnd        bool
}

// WindowDelta evaluates the selector at the resolved begin and end periods.
// Rules that need "change over the window" rather than "change since last
// month" go through here.
func (r *Resolver) WindowDelta(ctx *domain.AlignmentContext, selector AccountSelector) (WindowDelta, error) {
	if selector.CodePrefix == "" && selector.NamePattern == "" {
		return WindowDelta{}, fmt.Errorf("account selector is empty")
	}

	result := WindowDelta{BeginPeriodID: ctx.BeginPeriodID}

	endValue, hasEnd, err := r.sumSelected(ctx.PropertyID, ctx.EndPeriodID, selector)
	if err != nil {
		return WindowDelta{}, fmt.Errorf("evaluate end period: %w", err)
	}
	result.EndValue = endValue
	result.HasEnd = hasEnd

	if ctx.HasBeginPeriod() {
		beginValue, hasBegin, err := r.sumSelected(ctx.PropertyID, *ctx.BeginPeriodID, selector)
		if err != nil {
			return WindowDelta{}, fmt.Errorf("evaluate begin period: %w", err)
		}
		result.BeginValue = beginValue
		result.HasBegin = hasBegin
	}

	result.Delta = result.EndValue.Sub(result.BeginValue)
	return result, nil
}

func (r *Resolver) sumSelected(propertyID, periodID int64, selector AccountSelector) (decimal.Decimal, bool, error) {
	records, err := r.statements.GetRecords(propertyID, periodID, domain.BalanceSheet)
	if err != nil {
		return decimal.Zero, false, err
	}

	total := decimal.Zero
	found := false
	for i := range records {
		rec := &records[i]
		if !selector.matches(rec) {
			continue
		}
		if amount, ok := rec.PrimaryAmount(); ok {
			total = total.Add(amount)
			found = true
		}
	}

	return total, found, nil
}
