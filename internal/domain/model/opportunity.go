package model

// Opportunity is one directional buy-leg/sell-leg pairing for a symbol,
// fully enriched for the dashboard. JSON tags match the frontend contract.
type Opportunity struct {
	BuyExchange  string  `json:"buyExchange"`
	BuyType      string  `json:"buyType"`
	BuyPrice     float64 `json:"buyPrice"`
	BuyMarkPrice float64 `json:"buyMarkPrice"`
	BuyFeeTaker  float64 `json:"buyFeeTaker"`

	SellExchange  string  `json:"sellExchange"`
	SellType      string  `json:"sellType"`
	SellPrice     float64 `json:"sellPrice"`
	SellMarkPrice float64 `json:"sellMarkPrice"`
	SellFeeTaker  float64 `json:"sellFeeTaker"`

	GrossSpreadPct float64 `json:"grossSpreadPct"`
	NetSpreadPct   float64 `json:"netSpreadPct"`

	FundingRateBuy  float64 `json:"fundingRateBuy"`
	FundingRateSell float64 `json:"fundingRateSell"`
	NextFundingTime *int64  `json:"nextFundingTime,omitempty"`

	NetworksMatch  bool     `json:"networksMatch"`
	CommonNetworks []string `json:"commonNetworks"`

	BuyWithdrawEnabled  bool `json:"buyWithdrawEnabled"`
	BuyDepositEnabled   bool `json:"buyDepositEnabled"`
	SellWithdrawEnabled bool `json:"sellWithdrawEnabled"`
	SellDepositEnabled  bool `json:"sellDepositEnabled"`

	TransferFeeUsd float64  `json:"transferFeeUsd"`
	MaxVolumeUsd   *float64 `json:"maxVolumeUsd,omitempty"`

	BuyLiquidityUsd  float64 `json:"buyLiquidityUsd"`
	SellLiquidityUsd float64 `json:"sellLiquidityUsd"`

	StartedAt       int64 `json:"startedAt"`
	DurationSeconds int64 `json:"durationSeconds"`
}

// CoinAnalysis is the per-symbol entry of a detection cycle: the ranked
// opportunity list plus the best net spread seen in each leg-type bucket.
type CoinAnalysis struct {
	Symbol string `json:"symbol"`

	BestSpreadPerpPerp float64 `json:"bestSpreadPerpPerp"`
	BestSpreadSpotPerp float64 `json:"bestSpreadSpotPerp"`
	BestSpreadSpotSpot float64 `json:"bestSpreadSpotSpot"`

	Opportunities []Opportunity `json:"opportunities"`
}
