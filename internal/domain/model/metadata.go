package model

// VenueMetadata is the per-(exchange, symbol) transfer/fee/funding blob the
// metadata ingestors publish. Short JSON keys are the wire format.
type VenueMetadata struct {
	Symbol    string       `json:"s"`
	Wallet    *WalletInfo  `json:"w,omitempty"`
	Futures   *FuturesInfo `json:"f,omitempty"`
	Fees      *FeeInfo     `json:"fees,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
}

type WalletInfo struct {
	Deposit  bool                     `json:"deposit"`
	Withdraw bool                     `json:"withdraw"`
	Networks map[string]NetworkDetail `json:"networks,omitempty"`
}

type NetworkDetail struct {
	Deposit         bool     `json:"deposit"`
	Withdraw        bool     `json:"withdraw"`
	ContractAddress string   `json:"contractAddress,omitempty"`
	WithdrawFee     *float64 `json:"withdrawFee,omitempty"`
}

type FuturesInfo struct {
	MaxCost         *float64 `json:"maxCost,omitempty"`
	FundingRate     *float64 `json:"fundingRate,omitempty"`
	NextFundingTime *int64   `json:"nextFundingTime,omitempty"`
}

type FeeInfo struct {
	Taker *float64 `json:"taker,omitempty"`
	Maker *float64 `json:"maker,omitempty"`
}
