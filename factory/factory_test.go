package factory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/ledger"
	"github.com/pooldex/swapd/pair"
)

type stubPairQuerier struct {
	infos map[string]*pair.Info
}

func (q *stubPairQuerier) PairInfo(contractAddr string) (*pair.Info, error) {
	info, ok := q.infos[contractAddr]
	if !ok {
		return nil, fmt.Errorf("unknown pair contract %s", contractAddr)
	}
	return info, nil
}

func testAssets(n int) [2]asset.Info {
	return [2]asset.Info{
		asset.NativeToken{Denom: "uusd"},
		asset.Token{ContractAddr: fmt.Sprintf("asset%04d", n), CodeHash: "tokenhash"},
	}
}

func newTestFactory() (*Factory, *stubPairQuerier) {
	q := &stubPairQuerier{infos: make(map[string]*pair.Info)}
	f := New(
		ledger.ContractRef{Address: "factory0000", CodeHash: "factoryhash"},
		Config{
			Owner:         "owner0000",
			TokenCodeID:   10,
			TokenCodeHash: "lphash",
			PairCodeID:    11,
			PairCodeHash:  "pairhash",
		},
		NewMemoryStore(),
		q,
		nil,
	)
	return f, q
}

func TestCreatePair(t *testing.T) {
	f, _ := newTestFactory()
	assets := testAssets(0)

	resp, err := f.CreatePair("addr0000", assets)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(resp.Instructions))

	ins, ok := resp.Instructions[0].(ledger.Instantiate)
	assert.True(t, ok)
	assert.Equal(t, uint64(11), ins.CodeID)
	msg, ok := ins.Msg.(pair.InitMsg)
	assert.True(t, ok)
	assert.Equal(t, assets, msg.AssetInfos)
	assert.Equal(t, uint64(10), msg.TokenCodeID)
	assert.Equal(t, "factory0000", msg.InitHook.Contract.Address)

	// the same assets in either order collide
	_, err = f.CreatePair("addr0000", assets)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	_, err = f.CreatePair("addr0000", [2]asset.Info{assets[1], assets[0]})
	assert.True(t, errors.Is(err, ErrAlreadyExists))
}

func TestRegister(t *testing.T) {
	f, q := newTestFactory()
	assets := testAssets(0)

	_, err := f.CreatePair("addr0000", assets)
	assert.Nil(t, err)

	q.infos["pair0000"] = &pair.Info{
		ContractAddr:   "pair0000",
		LiquidityToken: ledger.ContractRef{Address: "liquidity0000", CodeHash: "lphash"},
		AssetInfos:     assets,
	}
	resp, err := f.Register("pair0000", assets)
	assert.Nil(t, err)
	assert.Contains(t, resp.Log, ledger.Attr("pair_contract_addr", "pair0000"))

	info, err := f.Pair(assets)
	assert.Nil(t, err)
	assert.Equal(t, "pair0000", info.ContractAddr)
	assert.Equal(t, "liquidity0000", info.LiquidityToken.Address)

	_, err = f.Register("pair0000", assets)
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))

	_, err = f.Register("pair9999", testAssets(9))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateConfigOwnerGated(t *testing.T) {
	f, _ := newTestFactory()

	owner := "owner0001"
	_, err := f.UpdateConfig("stranger0000", ConfigUpdate{Owner: &owner})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	tokenCodeID := uint64(20)
	_, err = f.UpdateConfig("owner0000", ConfigUpdate{Owner: &owner, TokenCodeID: &tokenCodeID})
	assert.Nil(t, err)
	assert.Equal(t, "owner0001", f.Config().Owner)
	assert.Equal(t, uint64(20), f.Config().TokenCodeID)

	// the previous owner lost control
	_, err = f.UpdateConfig("owner0000", ConfigUpdate{TokenCodeID: &tokenCodeID})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestUpdatePairSettings(t *testing.T) {
	f, _ := newTestFactory()

	assert.Equal(t, uint64(3), f.PairSettings().SwapFee.CommissionRateNom)
	assert.Equal(t, uint64(1000), f.PairSettings().SwapFee.CommissionRateDenom)

	settings := PairSettings{
		SwapFee:          Fee{CommissionRateNom: 5, CommissionRateDenom: 1000},
		DevFund:          "fund0000",
		SwapDataEndpoint: "http://localhost:9000/swaps",
	}
	_, err := f.UpdatePairSettings("stranger0000", settings)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = f.UpdatePairSettings("owner0000", settings)
	assert.Nil(t, err)
	assert.Equal(t, settings, f.PairSettings())
}

func TestPairsPagination(t *testing.T) {
	f, _ := newTestFactory()

	for i := 0; i < 15; i++ {
		_, err := f.CreatePair("addr0000", testAssets(i))
		assert.Nil(t, err)
	}

	// default page size
	page, err := f.Pairs(nil, nil)
	assert.Nil(t, err)
	assert.Equal(t, 10, len(page))

	limit := 4
	page, err = f.Pairs(nil, &limit)
	assert.Nil(t, err)
	assert.Equal(t, 4, len(page))

	next, err := f.Pairs(&page[3].AssetInfos, &limit)
	assert.Nil(t, err)
	assert.Equal(t, 4, len(next))
	assert.NotEqual(t, page[3].AssetInfos, next[0].AssetInfos)

	// oversized limits clamp
	limit = 1000
	page, err = f.Pairs(nil, &limit)
	assert.Nil(t, err)
	assert.Equal(t, 15, len(page))
}

func TestPairUnknown(t *testing.T) {
	f, _ := newTestFactory()
	_, err := f.Pair(testAssets(3))
	assert.True(t, errors.Is(err, ErrNotFound))
}
