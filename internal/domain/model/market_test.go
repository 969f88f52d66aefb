package model

import "testing"

func TestNormalizeMarketType(t *testing.T) {
	cases := map[string]string{
		"spot":   MarketSpot,
		"SPOT":   MarketSpot,
		"":       MarketSpot,
		"swap":   MarketPerp,
		"linear": MarketPerp,
		"perp":   MarketPerp,
		"future": MarketPerp,
	}
	for in, want := range cases {
		if got := NormalizeMarketType(in); got != want {
			t.Errorf("NormalizeMarketType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVenueKeyRoundTrip(t *testing.T) {
	key := VenueKey("binance", "swap")
	if key != "binance:PERP" {
		t.Fatalf("unexpected venue key %q", key)
	}
	ex, mt, ok := SplitVenueKey(key)
	if !ok || ex != "binance" || mt != "PERP" {
		t.Errorf("SplitVenueKey(%q) = %q, %q, %v", key, ex, mt, ok)
	}
}

func TestSplitVenueKeyMalformed(t *testing.T) {
	for _, key := range []string{"", "binance", ":SPOT", "binance:"} {
		if _, _, ok := SplitVenueKey(key); ok {
			t.Errorf("SplitVenueKey(%q) should fail", key)
		}
	}
}

func TestMarketDataValid(t *testing.T) {
	good := MarketData{Exchange: "binance", Symbol: "BTC", Bid: 100, Ask: 100.2}
	if !good.Valid() {
		t.Error("expected valid frame")
	}

	bad := []MarketData{
		{Symbol: "BTC", Bid: 100, Ask: 100.2},
		{Exchange: "binance", Bid: 100, Ask: 100.2},
		{Exchange: "binance", Symbol: "BTC", Ask: 100.2},
		{Exchange: "binance", Symbol: "BTC", Bid: 100},
	}
	for i, m := range bad {
		if m.Valid() {
			t.Errorf("case %d: expected invalid frame", i)
		}
	}
}
