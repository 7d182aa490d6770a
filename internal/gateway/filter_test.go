package gateway

import (
	"testing"

	"github.com/Charliesj0129/shijim/internal/events"
)

func TestContractFilter_BlocksBySuffix(t *testing.T) {
	f := NewContractFilter(nil)
	if f.IsAllowed("00637L", &ContractMeta{Exchange: "TSE"}, events.AssetStock) {
		t.Fatalf("expected leveraged-suffix code to be blocked")
	}
}

func TestContractFilter_StockRequiresDigitsAndExchange(t *testing.T) {
	f := NewContractFilter(nil)
	if f.IsAllowed("ABC123", &ContractMeta{Exchange: "TSE"}, events.AssetStock) {
		t.Fatalf("expected non-digit stock code to be blocked")
	}
	if f.IsAllowed("2330", &ContractMeta{Exchange: "NYSE"}, events.AssetStock) {
		t.Fatalf("expected disallowed exchange to be blocked")
	}
	if !f.IsAllowed("2330", &ContractMeta{Exchange: "TSE"}, events.AssetStock) {
		t.Fatalf("expected valid TSE stock to be allowed")
	}
}

func TestContractFilter_BlocksLeveragedType(t *testing.T) {
	f := NewContractFilter(nil)
	if f.IsAllowed("2330", &ContractMeta{Exchange: "TSE", Type: "ETFLeveraged"}, events.AssetStock) {
		t.Fatalf("expected ETFLeveraged type to be blocked")
	}
}

func TestContractFilter_MissingMetadataBlocksStock(t *testing.T) {
	f := NewContractFilter(nil)
	if f.IsAllowed("2330", nil, events.AssetStock) {
		t.Fatalf("expected missing metadata to block a stock code")
	}
}

func TestContractFilter_FuturesSkipsDigitAndExchangeChecks(t *testing.T) {
	f := NewContractFilter(nil)
	if !f.IsAllowed("TXFG4", nil, events.AssetFutures) {
		t.Fatalf("expected non-digit futures code without metadata to be allowed")
	}
}
