package pair

import (
	"fmt"
	"math/big"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/decmath"
	"github.com/pooldex/swapd/ledger"
)

// InitMsg instantiates a pair contract. The init hook lets the factory
// receive a Register callback once the pair exists.
type InitMsg struct {
	AssetInfos    [2]asset.Info
	TokenCodeID   uint64
	TokenCodeHash string
	InitHook      *InitHook
}

type InitHook struct {
	Contract ledger.ContractRef
	Msg      interface{}
}

// TokenInitMsg instantiates the pair's liquidity token; its init hook
// calls PostInitialize back on the pair.
type TokenInitMsg struct {
	Name     string
	Symbol   string
	Decimals uint8
	Minter   string
	InitHook *InitHook
}

// PostInitializeMsg is the one-shot callback the liquidity token sends
// to announce itself.
type PostInitializeMsg struct{}

// HookMsg is the directive embedded in an incoming token transfer:
// exactly one of Swap or WithdrawLiquidity.
type HookMsg struct {
	Swap              *SwapHook     `json:"swap,omitempty"`
	WithdrawLiquidity *WithdrawHook `json:"withdraw_liquidity,omitempty"`
}

type SwapHook struct {
	ExpectedReturn *string `json:"expected_return,omitempty"`
	BeliefPrice    *string `json:"belief_price,omitempty"`
	MaxSpread      *string `json:"max_spread,omitempty"`
	To             string  `json:"to,omitempty"`
}

type WithdrawHook struct{}

// SwapOptions are the caller's parsed price bounds for one swap.
type SwapOptions struct {
	ExpectedReturn *big.Int
	BeliefPrice    *decmath.Decimal
	MaxSpread      *decmath.Decimal
	To             string
}

// Options parses the wire hook into typed bounds.
func (h *SwapHook) Options() (SwapOptions, error) {
	var opts SwapOptions
	if h.ExpectedReturn != nil {
		v, ok := new(big.Int).SetString(*h.ExpectedReturn, 10)
		if !ok || v.Sign() < 0 {
			return opts, fmt.Errorf("%w: bad expected_return %q", decmath.ErrArithmetic, *h.ExpectedReturn)
		}
		opts.ExpectedReturn = v
	}
	if h.BeliefPrice != nil {
		d, err := decmath.FromString(*h.BeliefPrice)
		if err != nil {
			return opts, err
		}
		opts.BeliefPrice = &d
	}
	if h.MaxSpread != nil {
		d, err := decmath.FromString(*h.MaxSpread)
		if err != nil {
			return opts, err
		}
		opts.MaxSpread = &d
	}
	opts.To = h.To
	return opts, nil
}
