package gateway

import (
	"strings"

	"github.com/Charliesj0129/shijim/internal/events"
	"go.uber.org/zap"
)

// ContractFilter screens codes before they are subscribed.
type ContractFilter struct {
	AllowedExchanges map[string]bool
	BlockedSuffixes  map[string]bool
	Logger           *zap.Logger
}

// NewContractFilter returns a filter with the default allowed exchanges
// {TSE, OTC} and blocked suffixes {L, Q, F, R}.
func NewContractFilter(logger *zap.Logger) *ContractFilter {
	return &ContractFilter{
		AllowedExchanges: map[string]bool{"TSE": true, "OTC": true},
		BlockedSuffixes:  map[string]bool{"L": true, "Q": true, "F": true, "R": true},
		Logger:           logger,
	}
}

// IsAllowed applies the suffix check to every asset, and the
// digits-only/exchange/leveraged-type checks to stocks only.
func (f *ContractFilter) IsAllowed(code string, meta *ContractMeta, asset events.AssetType) bool {
	for suffix := range f.BlockedSuffixes {
		if suffix != "" && strings.HasSuffix(code, suffix) {
			return false
		}
	}

	if asset != events.AssetStock {
		return true
	}

	if !isAllDigits(code) {
		return false
	}

	if meta == nil {
		if f.Logger != nil {
			f.Logger.Warn("gateway: blocking stock with missing contract metadata", zap.String("code", code))
		}
		return false
	}

	if !f.AllowedExchanges[meta.Exchange] {
		return false
	}

	if meta.Type == "ETFLeveraged" {
		return false
	}

	return true
}

// FilterCodes returns the subset of codes that pass IsAllowed, looking up
// each code's metadata via the supplied resolver.
func (f *ContractFilter) FilterCodes(codes []string, asset events.AssetType, resolve func(code string) *ContractMeta) []string {
	valid := make([]string, 0, len(codes))
	for _, code := range codes {
		var meta *ContractMeta
		if resolve != nil {
			meta = resolve(code)
		}
		if f.IsAllowed(code, meta, asset) {
			valid = append(valid, code)
		} else if f.Logger != nil {
			f.Logger.Debug("gateway: filter blocked code", zap.String("code", code), zap.String("asset", string(asset)))
		}
	}
	return valid
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
