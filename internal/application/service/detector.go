package service

import (
	"sort"
	"time"

	"spreadscan/internal/domain/model"
	domainsvc "spreadscan/internal/domain/service"
)

const (
	// Pairs at or below this net spread are discarded entirely; they do not
	// touch the duration tracker either.
	DefaultMinSpreadPct = 0.1
	// Flat net-to-gross offset applied until per-venue fee modelling of the
	// full round trip replaces it.
	DefaultGrossOffsetPct = 0.2

	defaultFundingRate = 0.0001
)

// OpportunityDetector computes the ranked result set of one cycle from a
// point-in-time price snapshot joined with the metadata registry. It keeps
// no state besides the shared duration tracker.
type OpportunityDetector struct {
	registry *MetadataRegistry
	tracker  *SpreadTracker

	MinSpreadPct   float64
	GrossOffsetPct float64
}

func NewOpportunityDetector(registry *MetadataRegistry, tracker *SpreadTracker) *OpportunityDetector {
	return &OpportunityDetector{
		registry:       registry,
		tracker:        tracker,
		MinSpreadPct:   DefaultMinSpreadPct,
		GrossOffsetPct: DefaultGrossOffsetPct,
	}
}

// Detect evaluates every directional venue pair per symbol. Symbols with
// fewer than two venues or no qualifying pair contribute nothing. The result
// is ordered by best perp-perp spread, each symbol's list by net spread.
func (d *OpportunityDetector) Detect(now time.Time, prices map[string]map[string]model.PriceSnapshot) []model.CoinAnalysis {
	symbols := make([]string, 0, len(prices))
	for sym := range prices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	result := make([]model.CoinAnalysis, 0, len(symbols))
	for _, sym := range symbols {
		venues := prices[sym]
		if len(venues) < 2 {
			continue
		}
		opps := d.findOpportunities(now, sym, venues)
		if len(opps) == 0 {
			continue
		}

		var maxPerpPerp, maxSpotPerp, maxSpotSpot float64
		for _, opp := range opps {
			spread := opp.NetSpreadPct
			switch domainsvc.ClassifySpread(opp.BuyType, opp.SellType) {
			case domainsvc.BucketPerpPerp:
				if spread > maxPerpPerp {
					maxPerpPerp = spread
				}
			case domainsvc.BucketSpotSpot:
				if spread > maxSpotSpot {
					maxSpotSpot = spread
				}
			default:
				if spread > maxSpotPerp {
					maxSpotPerp = spread
				}
			}
		}

		sort.SliceStable(opps, func(i, j int) bool {
			return opps[i].NetSpreadPct > opps[j].NetSpreadPct
		})

		result = append(result, model.CoinAnalysis{
			Symbol:             sym,
			BestSpreadPerpPerp: maxPerpPerp,
			BestSpreadSpotPerp: maxSpotPerp,
			BestSpreadSpotSpot: maxSpotSpot,
			Opportunities:      opps,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].BestSpreadPerpPerp > result[j].BestSpreadPerpPerp
	})
	return result
}

func (d *OpportunityDetector) findOpportunities(now time.Time, symbol string, venues map[string]model.PriceSnapshot) []model.Opportunity {
	keys := make([]string, 0, len(venues))
	for k := range venues {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var opps []model.Opportunity
	for _, buyKey := range keys {
		for _, sellKey := range keys {
			if buyKey == sellKey {
				continue
			}
			buyEx, buyType, okB := model.SplitVenueKey(buyKey)
			sellEx, sellType, okS := model.SplitVenueKey(sellKey)
			if !okB || !okS {
				continue
			}

			pBuy := venues[buyKey]
			pSell := venues[sellKey]

			spread := domainsvc.RawSpreadPct(pBuy.Ask, pSell.Bid)
			if spread <= d.MinSpreadPct {
				continue
			}

			// Same ticker on two exchanges is not necessarily the same
			// asset; a failed identity check drops the pair.
			if buyEx != sellEx && !d.registry.AreIdentical(symbol, buyEx, sellEx) {
				continue
			}

			opps = append(opps, d.buildOpportunity(now, symbol, buyKey, buyEx, buyType, pBuy, sellKey, sellEx, sellType, pSell, spread))
		}
	}
	return opps
}

func (d *OpportunityDetector) buildOpportunity(
	now time.Time, symbol string,
	buyKey, buyEx, buyType string, pBuy model.PriceSnapshot,
	sellKey, sellEx, sellType string, pSell model.PriceSnapshot,
	netSpread float64,
) model.Opportunity {
	reg := d.registry

	fundingBuy := defaultFundingRate
	if fr := reg.FundingRate(buyEx, symbol); fr != nil {
		fundingBuy = *fr
	}
	fundingSell := defaultFundingRate
	if fr := reg.FundingRate(sellEx, symbol); fr != nil {
		fundingSell = *fr
	}

	nextFunding := reg.NextFundingTime(buyEx, symbol)
	if nextFunding == nil {
		nextFunding = reg.NextFundingTime(sellEx, symbol)
	}

	// Transfer leg runs from the buy venue to the sell venue.
	common := reg.FindCommonNetworks(buyEx, sellEx, symbol)
	if common == nil {
		common = []string{}
	}
	transferFee := 0.0
	if len(common) > 0 {
		transferFee = reg.NetworkWithdrawFee(buyEx, symbol, common[0])
	}

	var maxVolume *float64
	if costBuy, costSell := reg.MaxPositionCost(buyEx, symbol), reg.MaxPositionCost(sellEx, symbol); costBuy != nil || costSell != nil {
		switch {
		case costBuy == nil:
			maxVolume = costSell
		case costSell == nil:
			maxVolume = costBuy
		case *costSell < *costBuy:
			maxVolume = costSell
		default:
			maxVolume = costBuy
		}
	}

	nowMs := now.UnixMilli()
	startedAt := d.tracker.StartedAt(PairingKey(symbol, buyKey, sellKey), nowMs)

	return model.Opportunity{
		BuyExchange:  buyEx,
		BuyType:      buyType,
		BuyPrice:     pBuy.Ask,
		BuyMarkPrice: pBuy.MarkPrice,
		BuyFeeTaker:  reg.TakerFee(buyEx, symbol),

		SellExchange:  sellEx,
		SellType:      sellType,
		SellPrice:     pSell.Bid,
		SellMarkPrice: pSell.MarkPrice,
		SellFeeTaker:  reg.TakerFee(sellEx, symbol),

		GrossSpreadPct: netSpread + d.GrossOffsetPct,
		NetSpreadPct:   netSpread,

		FundingRateBuy:  fundingBuy,
		FundingRateSell: fundingSell,
		NextFundingTime: nextFunding,

		NetworksMatch:  len(common) > 0,
		CommonNetworks: common,

		BuyWithdrawEnabled:  reg.WithdrawalEnabled(buyEx, symbol),
		BuyDepositEnabled:   reg.DepositEnabled(buyEx, symbol),
		SellWithdrawEnabled: reg.WithdrawalEnabled(sellEx, symbol),
		SellDepositEnabled:  reg.DepositEnabled(sellEx, symbol),

		TransferFeeUsd: transferFee,
		MaxVolumeUsd:   maxVolume,

		BuyLiquidityUsd:  pBuy.Ask * pBuy.AskQty,
		SellLiquidityUsd: pSell.Bid * pSell.BidQty,

		StartedAt:       startedAt,
		DurationSeconds: (nowMs - startedAt) / 1000,
	}
}
