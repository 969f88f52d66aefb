package service

import (
	"math"
	"testing"
	"time"

	"spreadscan/internal/domain/model"
)

func emptyRegistry(t *testing.T) *MetadataRegistry {
	t.Helper()
	return newTestRegistry(t, &fakeSource{})
}

func spotSnap(bid, ask float64) model.PriceSnapshot {
	return model.PriceSnapshot{Bid: bid, Ask: ask, BidQty: 1, AskQty: 1, MarkPrice: (bid + ask) / 2, MarketType: model.MarketSpot}
}

func perpSnap(bid, ask float64) model.PriceSnapshot {
	return model.PriceSnapshot{Bid: bid, Ask: ask, BidQty: 1, AskQty: 1, MarkPrice: (bid + ask) / 2, MarketType: model.MarketPerp}
}

func TestDetectDirectional(t *testing.T) {
	det := NewOpportunityDetector(emptyRegistry(t), NewSpreadTracker())

	// A->B qualifies (+0.5%), B->A does not (negative)
	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exb:SPOT": spotSnap(100.5, 100.6),
		},
	}

	result := det.Detect(time.Now(), prices)
	if len(result) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(result))
	}
	opps := result[0].Opportunities
	if len(opps) != 1 {
		t.Fatalf("expected exactly 1 opportunity, got %d", len(opps))
	}
	opp := opps[0]
	if opp.BuyExchange != "exa" || opp.SellExchange != "exb" {
		t.Errorf("wrong direction: buy=%s sell=%s", opp.BuyExchange, opp.SellExchange)
	}
	want := (100.5 - 100.0) / 100.0 * 100
	if math.Abs(opp.NetSpreadPct-want) > 1e-9 {
		t.Errorf("net spread = %v, want %v", opp.NetSpreadPct, want)
	}
}

func TestDetectMinSpreadExclusive(t *testing.T) {
	tracker := NewSpreadTracker()
	det := NewOpportunityDetector(emptyRegistry(t), tracker)

	// exactly 0.1% spread: at the threshold, must be discarded
	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exb:SPOT": spotSnap(100.1, 100.2),
		},
	}

	result := det.Detect(time.Now(), prices)
	if len(result) != 0 {
		t.Fatalf("threshold spread should be discarded, got %v", result)
	}
	if tracker.Len() != 0 {
		t.Error("discarded pair must not touch the duration tracker")
	}
}

func TestDetectSkipsSingleVenueSymbols(t *testing.T) {
	det := NewOpportunityDetector(emptyRegistry(t), NewSpreadTracker())
	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {"exa:SPOT": spotSnap(100, 100.2)},
	}
	if result := det.Detect(time.Now(), prices); len(result) != 0 {
		t.Errorf("single-venue symbol should be omitted, got %v", result)
	}
}

func TestDetectIdentityGate(t *testing.T) {
	src := &fakeSource{
		assetIDs: map[string]string{
			"exa:VRA": "verasity",
			"exb:VRA": "virtual-reality-asset",
		},
	}
	det := NewOpportunityDetector(newTestRegistry(t, src), NewSpreadTracker())

	prices := map[string]map[string]model.PriceSnapshot{
		"VRA": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exb:SPOT": spotSnap(105, 105.1),
		},
	}
	if result := det.Detect(time.Now(), prices); len(result) != 0 {
		t.Errorf("mismatched asset ids must not pair, got %v", result)
	}
}

func TestDetectSameExchangeSpotPerpPairs(t *testing.T) {
	// spot vs perp on one exchange needs no identity check
	src := &fakeSource{assetIDs: map[string]string{"other:XX": "xx"}}
	det := NewOpportunityDetector(newTestRegistry(t, src), NewSpreadTracker())

	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exa:PERP": perpSnap(100.5, 100.6),
		},
	}
	result := det.Detect(time.Now(), prices)
	if len(result) != 1 || len(result[0].Opportunities) != 1 {
		t.Fatalf("expected same-exchange spot/perp pair, got %v", result)
	}
}

func TestDetectCategoryMaxima(t *testing.T) {
	det := NewOpportunityDetector(emptyRegistry(t), NewSpreadTracker())

	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(100.2, 100.3),
			"exb:SPOT": spotSnap(100.6, 100.7),
			"exc:PERP": perpSnap(99.9, 100.0),
			"exd:PERP": perpSnap(100.9, 101.0),
		},
	}

	result := det.Detect(time.Now(), prices)
	if len(result) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(result))
	}
	a := result[0]

	// buy exa spot @100.3 -> sell exb spot @100.6
	wantSS := (100.6 - 100.3) / 100.3 * 100
	if math.Abs(a.BestSpreadSpotSpot-wantSS) > 1e-9 {
		t.Errorf("spot-spot = %v, want %v", a.BestSpreadSpotSpot, wantSS)
	}
	// buy exc perp @100 -> sell exb spot @100.6 = 0.6%
	if math.Abs(a.BestSpreadSpotPerp-0.6) > 1e-9 {
		t.Errorf("spot-perp = %v, want 0.6", a.BestSpreadSpotPerp)
	}
	// buy exc perp @100 -> sell exd perp @100.9 = 0.9%
	if math.Abs(a.BestSpreadPerpPerp-0.9) > 1e-9 {
		t.Errorf("perp-perp = %v, want 0.9", a.BestSpreadPerpPerp)
	}

	// ranked by net spread descending
	for i := 1; i < len(a.Opportunities); i++ {
		if a.Opportunities[i].NetSpreadPct > a.Opportunities[i-1].NetSpreadPct {
			t.Fatalf("opportunities not sorted desc at %d", i)
		}
	}
}

func TestDetectSymbolOrdering(t *testing.T) {
	det := NewOpportunityDetector(emptyRegistry(t), NewSpreadTracker())

	prices := map[string]map[string]model.PriceSnapshot{
		"AAA": {
			"exa:PERP": perpSnap(99.9, 100),
			"exb:PERP": perpSnap(100.5, 100.6),
		},
		"BBB": {
			"exa:PERP": perpSnap(99.9, 100),
			"exb:PERP": perpSnap(101, 101.1),
		},
	}

	result := det.Detect(time.Now(), prices)
	if len(result) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(result))
	}
	if result[0].Symbol != "BBB" || result[1].Symbol != "AAA" {
		t.Errorf("expected BBB first by perp-perp spread, got %s, %s", result[0].Symbol, result[1].Symbol)
	}
}

func TestDetectOpportunityAge(t *testing.T) {
	tracker := NewSpreadTracker()
	det := NewOpportunityDetector(emptyRegistry(t), tracker)

	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exb:SPOT": spotSnap(100.5, 100.6),
		},
	}

	t0 := time.Now()
	for i, wantAge := range []int64{0, 1, 2} {
		now := t0.Add(time.Duration(i) * time.Second)
		result := det.Detect(now, prices)
		got := result[0].Opportunities[0].DurationSeconds
		if got != wantAge {
			t.Errorf("cycle %d: age = %d, want %d", i, got, wantAge)
		}
	}
}

func TestDetectAgeSurvivesMissedCycle(t *testing.T) {
	tracker := NewSpreadTracker()
	det := NewOpportunityDetector(emptyRegistry(t), tracker)

	qualifying := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exb:SPOT": spotSnap(100.5, 100.6),
		},
	}
	flat := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": spotSnap(99.9, 100),
			"exb:SPOT": spotSnap(100, 100.1),
		},
	}

	t0 := time.Now()
	det.Detect(t0, qualifying)
	// pairing stops qualifying for one cycle; tracker entry is preserved
	det.Detect(t0.Add(time.Second), flat)
	result := det.Detect(t0.Add(2*time.Second), qualifying)

	if got := result[0].Opportunities[0].DurationSeconds; got != 2 {
		t.Errorf("age should span the gap, got %d", got)
	}

	// full symbol eviction reclaims the entry and resets the age
	tracker.DropSymbol("BTC")
	result = det.Detect(t0.Add(3*time.Second), qualifying)
	if got := result[0].Opportunities[0].DurationSeconds; got != 0 {
		t.Errorf("age should reset after reclamation, got %d", got)
	}
}

func TestDetectEnrichment(t *testing.T) {
	src := &fakeSource{
		venues: map[string]map[string]model.VenueMetadata{
			"exa": {"BTC": {
				Symbol: "BTC",
				Wallet: &model.WalletInfo{Deposit: true, Withdraw: true, Networks: map[string]model.NetworkDetail{
					"ERC20": {Withdraw: true, Deposit: true, WithdrawFee: fptr(4.0)},
					"TRC20": {Withdraw: true, Deposit: true, WithdrawFee: fptr(1.5)},
				}},
				Fees:    &model.FeeInfo{Taker: fptr(0.0005)},
				Futures: &model.FuturesInfo{FundingRate: fptr(0.0002), MaxCost: fptr(40000)},
			}},
			"exb": {"BTC": {
				Symbol: "BTC",
				Wallet: &model.WalletInfo{Deposit: true, Withdraw: false, Networks: map[string]model.NetworkDetail{
					"TRON":     {Deposit: true, Withdraw: true},
					"Ethereum": {Deposit: true, Withdraw: true},
				}},
				Futures: &model.FuturesInfo{MaxCost: fptr(30000)},
			}},
		},
		assetIDs: map[string]string{"exa:BTC": "bitcoin", "exb:BTC": "bitcoin"},
	}
	det := NewOpportunityDetector(newTestRegistry(t, src, "exa", "exb"), NewSpreadTracker())

	prices := map[string]map[string]model.PriceSnapshot{
		"BTC": {
			"exa:SPOT": {Bid: 99.9, Ask: 100, BidQty: 2, AskQty: 3, MarkPrice: 99.95, MarketType: model.MarketSpot},
			"exb:SPOT": {Bid: 100.5, Ask: 100.6, BidQty: 4, AskQty: 5, MarkPrice: 100.55, MarketType: model.MarketSpot},
		},
	}

	result := det.Detect(time.Now(), prices)
	opp := result[0].Opportunities[0]

	if !opp.NetworksMatch {
		t.Error("expected matching networks")
	}
	// TRC20 (1.5) cheaper than ERC20 (4.0); source names preserved
	if len(opp.CommonNetworks) != 2 || opp.CommonNetworks[0] != "TRC20" {
		t.Errorf("common networks = %v", opp.CommonNetworks)
	}
	if opp.TransferFeeUsd != 1.5 {
		t.Errorf("transfer fee = %v, want 1.5 (cheapest common network)", opp.TransferFeeUsd)
	}
	if opp.BuyFeeTaker != 0.0005 {
		t.Errorf("buy taker fee = %v", opp.BuyFeeTaker)
	}
	if opp.SellFeeTaker != 0.001 {
		t.Errorf("sell taker fee should default, got %v", opp.SellFeeTaker)
	}
	if opp.FundingRateBuy != 0.0002 {
		t.Errorf("buy funding = %v", opp.FundingRateBuy)
	}
	if opp.FundingRateSell != 0.0001 {
		t.Errorf("sell funding should default, got %v", opp.FundingRateSell)
	}
	if opp.MaxVolumeUsd == nil || *opp.MaxVolumeUsd != 30000 {
		t.Errorf("max volume should be min of legs, got %v", opp.MaxVolumeUsd)
	}
	if !opp.BuyWithdrawEnabled || opp.SellWithdrawEnabled {
		t.Errorf("withdraw flags wrong: buy=%v sell=%v", opp.BuyWithdrawEnabled, opp.SellWithdrawEnabled)
	}
	if opp.BuyLiquidityUsd != 100*3 || opp.SellLiquidityUsd != 100.5*4 {
		t.Errorf("liquidity = %v / %v", opp.BuyLiquidityUsd, opp.SellLiquidityUsd)
	}
}

func TestDetectEndToEnd(t *testing.T) {
	tracker := NewSpreadTracker()
	store := NewPriceStore(tracker)
	det := NewOpportunityDetector(emptyRegistry(t), tracker)

	store.Ingest("BTC", "exchangeA", "spot", 100, 100.2, 1, 1, 100.1)
	store.Ingest("BTC", "exchangeB", "spot", 101, 101.2, 1, 1, 101.1)

	result := det.Detect(time.Now(), store.SnapshotAll())
	if len(result) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(result))
	}
	a := result[0]
	if len(a.Opportunities) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(a.Opportunities))
	}
	opp := a.Opportunities[0]
	if opp.BuyExchange != "exchangeA" || opp.SellExchange != "exchangeB" {
		t.Errorf("direction: buy=%s sell=%s", opp.BuyExchange, opp.SellExchange)
	}

	wantNet := (101.0 - 100.2) / 100.2 * 100 // ~0.7984
	if math.Abs(opp.NetSpreadPct-wantNet) > 1e-9 {
		t.Errorf("net = %v, want %v", opp.NetSpreadPct, wantNet)
	}
	if math.Abs(opp.GrossSpreadPct-(wantNet+0.2)) > 1e-9 {
		t.Errorf("gross = %v, want net+0.2", opp.GrossSpreadPct)
	}

	if math.Abs(a.BestSpreadSpotSpot-wantNet) > 1e-9 {
		t.Errorf("spot-spot best = %v, want %v", a.BestSpreadSpotSpot, wantNet)
	}
	if a.BestSpreadSpotPerp != 0 || a.BestSpreadPerpPerp != 0 {
		t.Errorf("only spot-spot should contribute, got sp=%v pp=%v", a.BestSpreadSpotPerp, a.BestSpreadPerpPerp)
	}
}
