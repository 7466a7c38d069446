package matcher

import (
	"strings"

	"property-recon/internal/domain"
	"property-recon/pkg/logger"
)

// discoveryQualifies is the tier-B gate: both sides of the relationship must
// have at least one discovered account code whose name contains a
// relationship keyword or whose code carries the relationship prefix.
// Discovery never changes the rule's comparison logic, only whether the
// adaptive attempt happens.
func (e *Engine) discoveryQualifies(propertyID int64, rel *Relationship) bool {
	if !e.sideQualifies(propertyID, rel.SourceType, rel.DiscoverySourceKeywords, rel.DiscoverySourcePrefix) {
		return false
	}
	return e.sideQualifies(propertyID, rel.TargetType, rel.DiscoveryTargetKeywords, rel.DiscoveryTargetPrefix)
}

func (e *Engine) sideQualifies(propertyID int64, statementType domain.StatementType, keywords []string, prefix string) bool {
	if len(keywords) == 0 && prefix == "" {
		return false
	}

	codes, err := e.knowledge.GetDiscoveredCodes(propertyID, statementType)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("statement_type", statementType).
			Warn("Failed to query discovered codes")
		return false
	}

	for i := range codes {
		code := &codes[i]
		if prefix != "" && strings.HasPrefix(code.AccountCode, prefix) {
			return true
		}
		if nameContainsAny(code.AccountName, keywords) {
			return true
		}
	}

	return false
}
