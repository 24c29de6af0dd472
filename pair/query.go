package pair

import (
	"math/big"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/pricing"
)

// PoolResponse reports the live reserves and the outstanding shares.
type PoolResponse struct {
	Assets     [2]asset.Asset `json:"assets"`
	TotalShare *big.Int       `json:"total_share"`
}

// SimulationResponse prices a hypothetical swap without moving funds.
type SimulationResponse struct {
	ReturnAmount     *big.Int `json:"return_amount"`
	SpreadAmount     *big.Int `json:"spread_amount"`
	CommissionAmount *big.Int `json:"commission_amount"`
}

// ReverseSimulationResponse answers "what offer buys this much ask".
type ReverseSimulationResponse struct {
	OfferAmount      *big.Int `json:"offer_amount"`
	SpreadAmount     *big.Int `json:"spread_amount"`
	CommissionAmount *big.Int `json:"commission_amount"`
}

func (p *Pair) Info() (*Info, error) {
	info, _, err := p.state.Load()
	return info, err
}

func (p *Pair) Pool() (*PoolResponse, error) {
	info, _, err := p.state.Load()
	if err != nil {
		return nil, err
	}
	pools, err := p.queryPools(info)
	if err != nil {
		return nil, err
	}
	totalShare, err := p.totalShare(info)
	if err != nil {
		return nil, err
	}
	return &PoolResponse{Assets: pools, TotalShare: totalShare}, nil
}

// Simulation prices an offer against the raw reserves. Unlike swap it
// does not subtract a credited deposit: nothing has been sent.
func (p *Pair) Simulation(offer asset.Asset) (*SimulationResponse, error) {
	offerPool, askPool, err := p.orientPools(offer.Info)
	if err != nil {
		return nil, err
	}
	returnAmount, spreadAmount, commissionAmount, err := pricing.ComputeSwap(offerPool.Amount, askPool.Amount, offer.Amount)
	if err != nil {
		return nil, err
	}
	return &SimulationResponse{
		ReturnAmount:     returnAmount,
		SpreadAmount:     spreadAmount,
		CommissionAmount: commissionAmount,
	}, nil
}

func (p *Pair) ReverseSimulation(ask asset.Asset) (*ReverseSimulationResponse, error) {
	askPool, offerPool, err := p.orientPools(ask.Info)
	if err != nil {
		return nil, err
	}
	offerAmount, spreadAmount, commissionAmount, err := pricing.ComputeOfferAmount(offerPool.Amount, askPool.Amount, ask.Amount)
	if err != nil {
		return nil, err
	}
	return &ReverseSimulationResponse{
		OfferAmount:      offerAmount,
		SpreadAmount:     spreadAmount,
		CommissionAmount: commissionAmount,
	}, nil
}

// orientPools returns the pool matching the given asset first.
func (p *Pair) orientPools(first asset.Info) (asset.Asset, asset.Asset, error) {
	info, _, err := p.state.Load()
	if err != nil {
		return asset.Asset{}, asset.Asset{}, err
	}
	pools, err := p.queryPools(info)
	if err != nil {
		return asset.Asset{}, asset.Asset{}, err
	}
	switch {
	case first.Equal(pools[0].Info):
		return pools[0], pools[1], nil
	case first.Equal(pools[1].Info):
		return pools[1], pools[0], nil
	}
	return asset.Asset{}, asset.Asset{}, asset.ErrInvalidAsset
}
