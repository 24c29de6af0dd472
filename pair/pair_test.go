package pair

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/decmath"
	"github.com/pooldex/swapd/ledger"
	"github.com/pooldex/swapd/pricing"
)

const (
	pairAddr   = "pair0000"
	lpAddr     = "liquidity0000"
	tokenAddr  = "asset0000"
	traderAddr = "addr0000"
)

func newTestPair(t *testing.T) (*Pair, *ledger.MemoryLedger) {
	t.Helper()
	l := ledger.NewMemoryLedger()
	l.RegisterToken(ledger.ContractRef{Address: lpAddr, CodeHash: "lphash"})
	l.RegisterToken(ledger.ContractRef{Address: tokenAddr, CodeHash: "tokenhash"})
	state := NewMemoryState(&Info{
		ContractAddr:   pairAddr,
		LiquidityToken: ledger.ContractRef{Address: lpAddr, CodeHash: "lphash"},
		TokenCodeHash:  "lphash",
		AssetInfos: [2]asset.Info{
			asset.NativeToken{Denom: "uusd"},
			asset.Token{ContractAddr: tokenAddr, CodeHash: "tokenhash"},
		},
	})
	return New(state, l, nil), l
}

func applyAll(t *testing.T, l *ledger.MemoryLedger, resp *ledger.Response) {
	t.Helper()
	for _, ins := range resp.Instructions {
		assert.Nil(t, l.Apply(ins))
	}
}

func coins(amount int64) []asset.Coin {
	return []asset.Coin{{Denom: "uusd", Amount: big.NewInt(amount)}}
}

func nativeAsset(amount int64) asset.Asset {
	return asset.Asset{Info: asset.NativeToken{Denom: "uusd"}, Amount: big.NewInt(amount)}
}

func tokenAsset(amount int64) asset.Asset {
	return asset.Asset{Info: asset.Token{ContractAddr: tokenAddr}, Amount: big.NewInt(amount)}
}

// provide funds the trader, moves the native leg in with the call and
// applies the resulting instructions, the way the host would.
func provide(t *testing.T, p *Pair, l *ledger.MemoryLedger, native, token int64, tolerance *decmath.Decimal) (*ledger.Response, error) {
	t.Helper()
	l.Fund(traderAddr, nativeAsset(native))
	l.Fund(traderAddr, tokenAsset(token))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: nativeAsset(native), From: traderAddr, To: pairAddr}))
	resp, err := p.ProvideLiquidity(traderAddr, coins(native),
		[2]asset.Asset{nativeAsset(native), tokenAsset(token)}, tolerance)
	if err != nil {
		return nil, err
	}
	applyAll(t, l, resp)
	return resp, nil
}

func TestPostInitializeOnce(t *testing.T) {
	l := ledger.NewMemoryLedger()
	state := NewMemoryState(&Info{
		ContractAddr:  pairAddr,
		TokenCodeHash: "lphash",
		AssetInfos: [2]asset.Info{
			asset.NativeToken{Denom: "uusd"},
			asset.Token{ContractAddr: tokenAddr, CodeHash: "tokenhash"},
		},
	})
	p := New(state, l, nil)

	resp, err := p.PostInitialize(lpAddr)
	assert.Nil(t, err)
	assert.Equal(t, []ledger.Attribute{ledger.Attr("liquidity_token_addr", lpAddr)}, resp.Log)

	info, err := p.Info()
	assert.Nil(t, err)
	assert.Equal(t, lpAddr, info.LiquidityToken.Address)
	assert.Equal(t, "lphash", info.LiquidityToken.CodeHash)

	_, err = p.PostInitialize("intruder0000")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestProvideLiquidityInitialShare(t *testing.T) {
	p, l := newTestPair(t)

	resp, err := provide(t, p, l, 10000, 40000, nil)
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("share", "20000"))

	lpToken := ledger.ContractRef{Address: lpAddr}
	balance, err := l.Balance(asset.Token{ContractAddr: lpAddr}, traderAddr)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(20000), balance)
	supply, err := l.Supply(lpToken)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(20000), supply)

	pool, err := p.Pool()
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(10000), pool.Assets[0].Amount)
	assert.Equal(t, big.NewInt(40000), pool.Assets[1].Amount)
	assert.Equal(t, big.NewInt(20000), pool.TotalShare)
}

func TestProvideLiquidityProportionalShare(t *testing.T) {
	p, l := newTestPair(t)

	_, err := provide(t, p, l, 10000, 40000, nil)
	assert.Nil(t, err)

	// half the pool again mints half the outstanding shares
	resp, err := provide(t, p, l, 5000, 20000, nil)
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("share", "10000"))
}

func TestProvideLiquidityLopsidedMintsMinRatio(t *testing.T) {
	p, l := newTestPair(t)

	_, err := provide(t, p, l, 10000, 40000, nil)
	assert.Nil(t, err)

	// the excess token deposit is donated, only the smaller ratio mints
	resp, err := provide(t, p, l, 5000, 40000, nil)
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("share", "10000"))
}

func TestProvideLiquiditySlippageTolerance(t *testing.T) {
	p, l := newTestPair(t)

	_, err := provide(t, p, l, 10000, 40000, nil)
	assert.Nil(t, err)

	tight, err := decmath.FromString("0.01")
	assert.Nil(t, err)
	_, err = provide(t, p, l, 5000, 40000, &tight)
	assert.True(t, errors.Is(err, pricing.ErrSlippageExceeded))
}

func TestProvideLiquidityWrongAsset(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(traderAddr, nativeAsset(10000))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: nativeAsset(10000), From: traderAddr, To: pairAddr}))

	stranger := asset.Asset{Info: asset.NativeToken{Denom: "uluna"}, Amount: big.NewInt(40000)}
	_, err := p.ProvideLiquidity(traderAddr, coins(10000),
		[2]asset.Asset{nativeAsset(10000), stranger},
		nil)
	assert.True(t, errors.Is(err, asset.ErrInvalidAsset))
}

func TestProvideLiquidityNativeFundsMismatch(t *testing.T) {
	p, _ := newTestPair(t)
	_, err := p.ProvideLiquidity(traderAddr, coins(100),
		[2]asset.Asset{nativeAsset(10000), tokenAsset(40000)}, nil)
	assert.True(t, errors.Is(err, asset.ErrInvalidAsset))
}

func TestSwapNative(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))

	// funds arrive with the call
	l.Fund(traderAddr, nativeAsset(1000))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: nativeAsset(1000), From: traderAddr, To: pairAddr}))

	resp, err := p.Swap(traderAddr, coins(1000), nativeAsset(1000), SwapOptions{})
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("receiver", traderAddr))
	assert.Contains(t, resp.Log, ledger.Attr("return_amount", "997"))
	assert.Contains(t, resp.Log, ledger.Attr("spread_amount", "0"))
	assert.Contains(t, resp.Log, ledger.Attr("commission_amount", "3"))

	applyAll(t, l, resp)
	balance, err := l.Balance(asset.Token{ContractAddr: tokenAddr}, traderAddr)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(997), balance)
}

func TestSwapToAlternateReceiver(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))
	l.Fund(traderAddr, nativeAsset(1000))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: nativeAsset(1000), From: traderAddr, To: pairAddr}))

	resp, err := p.Swap(traderAddr, coins(1000), nativeAsset(1000), SwapOptions{To: "receiver0000"})
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("receiver", "receiver0000"))
	applyAll(t, l, resp)

	balance, err := l.Balance(asset.Token{ContractAddr: tokenAddr}, "receiver0000")
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(997), balance)
}

func TestSwapMaxSpreadExceeded(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))
	l.Fund(traderAddr, nativeAsset(100000))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: nativeAsset(100000), From: traderAddr, To: pairAddr}))

	// a 10% trade moves the price roughly 9%, past a 5% cap
	maxSpread, err := decmath.FromString("0.05")
	assert.Nil(t, err)
	_, err = p.Swap(traderAddr, coins(100000), nativeAsset(100000), SwapOptions{MaxSpread: &maxSpread})
	assert.True(t, errors.Is(err, pricing.ErrSlippageExceeded))
}

func TestSwapTokenDirectRejected(t *testing.T) {
	p, _ := newTestPair(t)
	_, err := p.Swap(traderAddr, nil, tokenAsset(1000), SwapOptions{})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestReceiveSwap(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))

	// token deposits are credited before the notification lands
	l.Fund(traderAddr, tokenAsset(1000))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: tokenAsset(1000), From: traderAddr, To: pairAddr}))

	resp, err := p.Receive(tokenAddr, traderAddr, big.NewInt(1000), &HookMsg{Swap: &SwapHook{}})
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("return_amount", "997"))

	applyAll(t, l, resp)
	balance, err := l.Balance(asset.NativeToken{Denom: "uusd"}, traderAddr)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(997), balance)
}

func TestReceiveAuth(t *testing.T) {
	p, _ := newTestPair(t)

	_, err := p.Receive(tokenAddr, traderAddr, big.NewInt(1000), nil)
	assert.True(t, errors.Is(err, ErrNoHookData))

	_, err = p.Receive(tokenAddr, traderAddr, big.NewInt(1000), &HookMsg{})
	assert.True(t, errors.Is(err, ErrNoHookData))

	_, err = p.Receive("stranger0000", traderAddr, big.NewInt(1000), &HookMsg{Swap: &SwapHook{}})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = p.Receive(tokenAddr, traderAddr, big.NewInt(1000), &HookMsg{WithdrawLiquidity: &WithdrawHook{}})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestWithdrawLiquidity(t *testing.T) {
	p, l := newTestPair(t)

	_, err := provide(t, p, l, 10000, 40000, nil)
	assert.Nil(t, err)
	_, err = provide(t, p, l, 5000, 20000, nil)
	assert.Nil(t, err)

	// the withdrawer sends a third of the shares back to the pair
	lpToken := asset.Asset{Info: asset.Token{ContractAddr: lpAddr}, Amount: big.NewInt(10000)}
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: lpToken, From: traderAddr, To: pairAddr}))

	resp, err := p.Receive(lpAddr, traderAddr, big.NewInt(10000), &HookMsg{WithdrawLiquidity: &WithdrawHook{}})
	assert.Nil(t, err)
	applyAll(t, l, resp)

	// fixed-point ratio floors: a third of 15000/60000 pays 4999/19999
	assert.Contains(t, resp.Log, ledger.Attr("refund_assets", "4999uusd, 19999asset0000"))

	supply, err := l.Supply(ledger.ContractRef{Address: lpAddr})
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(20000), supply)

	pool, err := p.Pool()
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(10001), pool.Assets[0].Amount)
	assert.Equal(t, big.NewInt(40001), pool.Assets[1].Amount)
}

func TestSimulationMatchesSwap(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))

	sim, err := p.Simulation(nativeAsset(1000))
	assert.Nil(t, err)
	assert.Equal(t, "997", sim.ReturnAmount.String())
	assert.Equal(t, "0", sim.SpreadAmount.String())
	assert.Equal(t, "3", sim.CommissionAmount.String())

	_, err = p.Simulation(asset.Asset{Info: asset.NativeToken{Denom: "uluna"}, Amount: big.NewInt(1000)})
	assert.True(t, errors.Is(err, asset.ErrInvalidAsset))
}

func TestReverseSimulationRoundTrip(t *testing.T) {
	p, l := newTestPair(t)
	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))

	rev, err := p.ReverseSimulation(tokenAsset(997))
	assert.Nil(t, err)

	sim, err := p.Simulation(asset.Asset{
		Info:   asset.NativeToken{Denom: "uusd"},
		Amount: rev.OfferAmount,
	})
	assert.Nil(t, err)

	diff := new(big.Int).Sub(sim.ReturnAmount, big.NewInt(997))
	assert.True(t, diff.CmpAbs(big.NewInt(3)) <= 0,
		"round trip return %s drifts from 997", sim.ReturnAmount)
}

func TestSwapTaxLogged(t *testing.T) {
	p, l := newTestPair(t)
	rate, err := decmath.FromString("0.005")
	assert.Nil(t, err)
	l.SetTax(rate, map[string]*big.Int{"uusd": big.NewInt(1000000)})

	l.Fund(pairAddr, nativeAsset(1000000))
	l.Fund(pairAddr, tokenAsset(1000000))
	l.Fund(traderAddr, tokenAsset(1000))
	assert.Nil(t, l.Apply(ledger.Transfer{Asset: tokenAsset(1000), From: traderAddr, To: pairAddr}))

	resp, err := p.Receive(tokenAddr, traderAddr, big.NewInt(1000), &HookMsg{Swap: &SwapHook{}})
	assert.Nil(t, err)

	// tax on a 997 native return at 0.5%: 997 - floor(997/1.005) = 5
	assert.Contains(t, resp.Log, ledger.Attr("tax_amount", "5"))
}
