// Package indexer implements the wallet subscription engine: the lenient
// provider-record decoder, the normaliser, and the per-wallet pipeline of
// history fetch + live stream feeding a shared writer.
package indexer

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexFloat decodes a JSON number that providers sometimes serialise as a
// string ("1.5") and sometimes as a number (1.5).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Tolerate junk amounts rather than failing the whole record.
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// uiAmount decodes a UI amount that appears either as a bare number/string or
// wrapped in an object: {"value": 1.5}.
type uiAmount float64

func (u *uiAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Value flexFloat `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			*u = 0
			return nil
		}
		*u = uiAmount(obj.Value)
		return nil
	}
	var f flexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*u = uiAmount(f)
	return nil
}

// TokenSide is one side of a swap or transfer inside a raw provider record.
type TokenSide struct {
	Mint     string    `json:"mint"`
	UIAmount uiAmount  `json:"uiAmount"`
	Owner    string    `json:"owner"`
	Amount   flexFloat `json:"amount"`
}

// Value returns the UI amount, falling back to the raw amount field when the
// provider omitted uiAmount.
func (t *TokenSide) Value() float64 {
	if t == nil {
		return 0
	}
	if t.UIAmount != 0 {
		return float64(t.UIAmount)
	}
	return float64(t.Amount)
}

// RawRecord is the lenient decoding of one provider transaction payload.
// Provider schemas disagree on field names and casing, so every field is
// resolved through its known aliases; this type is the only place untyped
// payload traversal is permitted.
type RawRecord struct {
	Signature   string
	Slot        uint64
	BlockTime   int64
	DecoderType string
	EventType   string
	Source      string
	Destination string
	FeePayer    string
	ProgramID   string
	Pool        string
	Mint        string
	Accounts    []string
	TokenIn     *TokenSide
	TokenOut    *TokenSide
	UIAmount    float64
	Amount      float64
}

// rawRecordWire enumerates every field alias seen across providers. Go's JSON
// decoder matches keys case-insensitively, so camelCase tags also cover the
// all-lowercase variants; snake_case needs its own field.
type rawRecordWire struct {
	TxSignature  string `json:"txSignature"`
	Signature    string `json:"signature"`
	TxSignatureS string `json:"tx_signature"`

	Slot uint64 `json:"slot"`

	BlockTime  int64 `json:"blockTime"`
	BlockTimeS int64 `json:"block_time"`

	DecoderType  string `json:"decoderType"`
	DecoderTypeS string `json:"decoder_type"`

	EventType  string `json:"eventType"`
	EventTypeS string `json:"event_type"`

	Source    string `json:"source"`
	From      string `json:"from"`
	Authority string `json:"authority"`

	Destination string `json:"destination"`
	To          string `json:"to"`

	FeePayer  string `json:"feePayer"`
	FeePayerS string `json:"fee_payer"`

	ProgramID  string `json:"programId"`
	ProgramIDS string `json:"program_id"`

	Pool        string `json:"pool"`
	AmmID       string `json:"ammId"`
	PoolAddress string `json:"poolAddress"`

	Mint     string   `json:"mint"`
	Accounts []string `json:"accounts"`

	TokenIn   *TokenSide `json:"tokenIn"`
	TokenInS  *TokenSide `json:"token_in"`
	TokenOut  *TokenSide `json:"tokenOut"`
	TokenOutS *TokenSide `json:"token_out"`

	UIAmount uiAmount  `json:"uiAmount"`
	Amount   flexFloat `json:"amount"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// UnmarshalJSON resolves aliases into the canonical RawRecord fields.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var w rawRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	r.Signature = firstNonEmpty(w.TxSignature, w.Signature, w.TxSignatureS)
	r.Slot = w.Slot
	r.BlockTime = w.BlockTime
	if r.BlockTime == 0 {
		r.BlockTime = w.BlockTimeS
	}
	r.DecoderType = firstNonEmpty(w.DecoderType, w.DecoderTypeS)
	r.EventType = firstNonEmpty(w.EventType, w.EventTypeS)
	r.Source = firstNonEmpty(w.Source, w.From, w.Authority)
	r.Destination = firstNonEmpty(w.Destination, w.To)
	r.FeePayer = firstNonEmpty(w.FeePayer, w.FeePayerS)
	r.ProgramID = firstNonEmpty(w.ProgramID, w.ProgramIDS)
	r.Pool = firstNonEmpty(w.Pool, w.AmmID, w.PoolAddress)
	r.Mint = w.Mint
	r.Accounts = w.Accounts

	r.TokenIn = w.TokenIn
	if r.TokenIn == nil {
		r.TokenIn = w.TokenInS
	}
	r.TokenOut = w.TokenOut
	if r.TokenOut == nil {
		r.TokenOut = w.TokenOutS
	}

	r.UIAmount = float64(w.UIAmount)
	r.Amount = float64(w.Amount)

	return nil
}

// topAmount is the record-level amount, preferring uiAmount over the raw
// amount field.
func (r *RawRecord) topAmount() float64 {
	if r.UIAmount != 0 {
		return r.UIAmount
	}
	return r.Amount
}

// InvolvesWallet reports whether the record touches the given wallet in any
// participant role.
func (r *RawRecord) InvolvesWallet(wallet string) bool {
	if wallet == "" {
		return false
	}
	if r.Source == wallet || r.Destination == wallet || r.FeePayer == wallet {
		return true
	}
	for _, a := range r.Accounts {
		if a == wallet {
			return true
		}
	}
	if r.TokenIn != nil && r.TokenIn.Owner == wallet {
		return true
	}
	if r.TokenOut != nil && r.TokenOut.Owner == wallet {
		return true
	}
	return false
}
