// Package asset defines the two kinds of pooled assets and the
// capabilities the exchange needs from them: structural equality,
// registry keys, sent-funds checks and transfer-tax computation.
package asset

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/pooldex/swapd/decmath"
)

var ErrInvalidAsset = errors.New("invalid asset")

// Info identifies a pooled asset: a native currency denom or a token
// contract reference. Identities compare structurally.
type Info interface {
	Equal(other Info) bool
	IsNative() bool
	// Key is the identity used for registry and balance bookkeeping.
	Key() string
	String() string
}

type NativeToken struct {
	Denom string `json:"denom"`
}

func (n NativeToken) Equal(other Info) bool {
	o, ok := other.(NativeToken)
	return ok && o.Denom == n.Denom
}

func (n NativeToken) IsNative() bool { return true }

func (n NativeToken) Key() string { return n.Denom }

func (n NativeToken) String() string { return n.Denom }

type Token struct {
	ContractAddr string `json:"contract_addr"`
	CodeHash     string `json:"code_hash"`
}

func (t Token) Equal(other Info) bool {
	o, ok := other.(Token)
	return ok && o.ContractAddr == t.ContractAddr
}

func (t Token) IsNative() bool { return false }

func (t Token) Key() string { return t.ContractAddr }

func (t Token) String() string { return t.ContractAddr }

// Asset is an identified amount. Amounts are unsigned 128-bit values
// carried as big integers.
type Asset struct {
	Info   Info
	Amount *big.Int
}

func (a Asset) String() string {
	return fmt.Sprintf("%s%s", a.Amount.String(), a.Info.String())
}

// Coin is a native amount attached to a call.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// AmountOf returns the attached amount of denom, zero when absent.
func AmountOf(funds []Coin, denom string) *big.Int {
	for _, c := range funds {
		if c.Denom == denom {
			return c.Amount
		}
	}
	return new(big.Int)
}

// AssertSentBalance checks that a native asset's amount actually
// accompanied the call. Token assets are pulled explicitly and pass.
func (a Asset) AssertSentBalance(funds []Coin) error {
	if !a.Info.IsNative() {
		return nil
	}
	sent := AmountOf(funds, a.Info.Key())
	if sent.Cmp(a.Amount) != 0 {
		return fmt.Errorf("%w: native token balance mismatch: sent %s, declared %s",
			ErrInvalidAsset, sent.String(), a.Amount.String())
	}
	return nil
}

// TaxQuerier exposes the native-currency transfer-tax parameters of the
// host chain. Token transfers carry no tax.
type TaxQuerier interface {
	TaxRate() (decmath.Decimal, error)
	TaxCap(denom string) (*big.Int, error)
}

// ComputeTax returns the transfer tax the host would charge on sending
// this asset: min(cap, amount - amount/(1+rate)) for native assets,
// zero for tokens. It is reported for logging and never subtracted.
func (a Asset) ComputeTax(q TaxQuerier) (*big.Int, error) {
	if !a.Info.IsNative() {
		return new(big.Int), nil
	}
	rate, err := q.TaxRate()
	if err != nil {
		return nil, err
	}
	if rate.IsZero() {
		return new(big.Int), nil
	}
	reverse, err := decmath.One().Add(rate).Reverse()
	if err != nil {
		return nil, err
	}
	after := reverse.MulInt(a.Amount)
	tax, err := decmath.CheckedSub(a.Amount, after)
	if err != nil {
		return nil, err
	}
	cap, err := q.TaxCap(a.Info.Key())
	if err != nil {
		return nil, err
	}
	if tax.Cmp(cap) > 0 {
		return new(big.Int).Set(cap), nil
	}
	return tax, nil
}

// SortKey builds the unordered registry key for an asset pair.
func SortKey(infos [2]Info) string {
	keys := []string{infos[0].Key(), infos[1].Key()}
	sort.Strings(keys)
	return keys[0] + "/" + keys[1]
}
