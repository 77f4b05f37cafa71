package helius

// EnhancedTransaction is one record from the Helius enhanced-transactions
// API. Only the fields the indexer consumes are decoded.
type EnhancedTransaction struct {
	Signature      string          `json:"signature"`
	Type           string          `json:"type"`
	Source         string          `json:"source"`
	FeePayer       string          `json:"feePayer"`
	Slot           uint64          `json:"slot"`
	Timestamp      int64           `json:"timestamp"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers"`
	Events         Events          `json:"events"`
}

// TokenTransfer is one token movement inside an enhanced transaction.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// Events carries the decoded sub-events of an enhanced transaction.
type Events struct {
	Swap *SwapEvent `json:"swap"`
}

// SwapEvent is the decoded swap sub-event.
type SwapEvent struct {
	TokenInputs  []SwapToken `json:"tokenInputs"`
	TokenOutputs []SwapToken `json:"tokenOutputs"`
}

// SwapToken is one leg of a swap event. Amounts arrive raw and must be scaled
// by the token's decimals.
type SwapToken struct {
	UserAccount    string         `json:"userAccount"`
	Mint           string         `json:"mint"`
	RawTokenAmount RawTokenAmount `json:"rawTokenAmount"`
}

// RawTokenAmount is an unscaled integer amount plus its decimal places.
type RawTokenAmount struct {
	TokenAmount string `json:"tokenAmount"`
	Decimals    int    `json:"decimals"`
}
