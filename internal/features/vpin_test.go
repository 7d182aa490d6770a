package features

import "testing"

func TestVPINCalculator_EmitsOnlyWhenWindowFull(t *testing.T) {
	c := NewVPINCalculator(VPINConfig{BucketVolume: 10, WindowSize: 3})

	// Trade 1: partial fill, no bucket yet.
	if sig := c.AddTrade(1, "2330", 5); sig != nil {
		t.Fatalf("expected no signal before first bucket fills, got %+v", sig)
	}
	// Trade 2: completes bucket #1 (window len 1 < 3).
	if sig := c.AddTrade(2, "2330", 5); sig != nil {
		t.Fatalf("expected no signal with only 1 bucket filled, got %+v", sig)
	}
	// Trade 3: completes bucket #2 (window len 2 < 3).
	if sig := c.AddTrade(3, "2330", 10); sig != nil {
		t.Fatalf("expected no signal with only 2 buckets filled, got %+v", sig)
	}
	// Trade 4: completes bucket #3 — window now full, signal emitted.
	sig := c.AddTrade(4, "2330", 10)
	if sig == nil {
		t.Fatalf("expected a signal once the 3-bucket window fills")
	}
	if sig.VPIN < 0 || sig.VPIN > 1 {
		t.Fatalf("expected VPIN in [0,1], got %v", sig.VPIN)
	}
}

func TestVPINCalculator_FullyOneSidedGivesMaxImbalance(t *testing.T) {
	c := NewVPINCalculator(VPINConfig{BucketVolume: 10, WindowSize: 1})
	sig := c.AddTrade(1, "2330", 10)
	if sig == nil {
		t.Fatalf("expected signal on first full bucket")
	}
	if sig.VPIN != 1 {
		t.Fatalf("expected fully one-sided flow to give VPIN=1, got %v", sig.VPIN)
	}
}
