package asset

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pooldex/swapd/decmath"
)

func TestInfoEquality(t *testing.T) {
	native := NativeToken{Denom: "uscrt"}
	token := Token{ContractAddr: "token0000", CodeHash: "hash"}

	require.True(t, native.Equal(NativeToken{Denom: "uscrt"}))
	require.False(t, native.Equal(NativeToken{Denom: "uusd"}))
	require.False(t, native.Equal(token))
	require.True(t, token.Equal(Token{ContractAddr: "token0000", CodeHash: "other"}))
	require.False(t, token.Equal(Token{ContractAddr: "token1111"}))
}

func TestSortKeyUnordered(t *testing.T) {
	a := NativeToken{Denom: "uscrt"}
	b := Token{ContractAddr: "token0000"}
	require.Equal(t, SortKey([2]Info{a, b}), SortKey([2]Info{b, a}))
}

func TestAssertSentBalance(t *testing.T) {
	a := Asset{Info: NativeToken{Denom: "uscrt"}, Amount: big.NewInt(100)}

	require.NoError(t, a.AssertSentBalance([]Coin{{Denom: "uscrt", Amount: big.NewInt(100)}}))
	require.ErrorIs(t, a.AssertSentBalance(nil), ErrInvalidAsset)
	require.ErrorIs(t, a.AssertSentBalance([]Coin{{Denom: "uscrt", Amount: big.NewInt(99)}}), ErrInvalidAsset)

	tok := Asset{Info: Token{ContractAddr: "token0000"}, Amount: big.NewInt(100)}
	require.NoError(t, tok.AssertSentBalance(nil))
}

type taxParams struct {
	rate string
	cap  int64
}

func (p taxParams) TaxRate() (decmath.Decimal, error) {
	return decmath.FromString(p.rate)
}

func (p taxParams) TaxCap(denom string) (*big.Int, error) {
	return big.NewInt(p.cap), nil
}

func TestComputeTax(t *testing.T) {
	a := Asset{Info: NativeToken{Denom: "uusd"}, Amount: big.NewInt(1_000_000)}

	// 0.5% tax on 1_000_000: 1_000_000 - 1_000_000/1.005 = 4975 (floored remainder 4976 -> cap below)
	tax, err := a.ComputeTax(taxParams{rate: "0.005", cap: 1_000_000})
	require.NoError(t, err)
	require.Equal(t, int64(4976), tax.Int64())

	// capped
	tax, err = a.ComputeTax(taxParams{rate: "0.005", cap: 1000})
	require.NoError(t, err)
	require.Equal(t, int64(1000), tax.Int64())

	// tokens are never taxed
	tok := Asset{Info: Token{ContractAddr: "token0000"}, Amount: big.NewInt(1_000_000)}
	tax, err = tok.ComputeTax(taxParams{rate: "0.005", cap: 1000})
	require.NoError(t, err)
	require.Zero(t, tax.Sign())
}

func TestAssetJSONRoundTrip(t *testing.T) {
	a := Asset{Info: Token{ContractAddr: "token0000", CodeHash: "hash"}, Amount: big.NewInt(42)}
	data, err := a.MarshalJSON()
	require.NoError(t, err)

	var back Asset
	require.NoError(t, back.UnmarshalJSON(data))
	require.True(t, back.Info.Equal(a.Info))
	require.Zero(t, back.Amount.Cmp(a.Amount))
}
