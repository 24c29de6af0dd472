// Package pair implements the trading-pair contract: it owns the pair's
// registered identity, reads live reserves from the ledger on every
// call, prices trades through the pricing engine and answers with
// asset-movement instructions for the host to execute.
package pair

import (
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/ledger"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoHookData   = errors.New("receive hook data missing")
)

// Info is the pair's registered state: asset identities, the deployed
// liquidity-token contract and the owning factory. The liquidity token
// stays empty until PostInitialize.
type Info struct {
	ContractAddr   string             `json:"contract_addr"`
	LiquidityToken ledger.ContractRef `json:"liquidity_token"`
	TokenCodeHash  string             `json:"token_code_hash"`
	AssetInfos     [2]asset.Info      `json:"-"`
	Factory        ledger.ContractRef `json:"factory"`
}

// StateStore persists the pair record. Every entry point loads a fresh
// versioned copy, works on it, and saves once at the end; a version
// mismatch on save aborts the call.
type StateStore interface {
	Load() (*Info, uint64, error)
	Save(info *Info, version uint64) error
}

type MemoryState struct {
	mu      sync.Mutex
	info    *Info
	version uint64
}

func NewMemoryState(info *Info) *MemoryState {
	return &MemoryState{info: copyInfo(info)}
}

func (s *MemoryState) Load() (*Info, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return nil, 0, fmt.Errorf("pair state is empty")
	}
	return copyInfo(s.info), s.version, nil
}

func (s *MemoryState) Save(info *Info, version uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if version != s.version {
		return fmt.Errorf("pair state version conflict: have %d, got %d", s.version, version)
	}
	s.info = copyInfo(info)
	s.version++
	return nil
}

func copyInfo(info *Info) *Info {
	if info == nil {
		return nil
	}
	c := *info
	return &c
}

// Pair is the state manager for one trading pair.
type Pair struct {
	state  StateStore
	ledger ledger.Ledger
	log    *log.Logger
}

func New(state StateStore, l ledger.Ledger, logger *log.Logger) *Pair {
	if logger == nil {
		logger = log.Default()
	}
	return &Pair{
		state:  state,
		ledger: l,
		log:    logger,
	}
}

// queryPools reads both live reserves held by the pair. Reserves are
// never cached: a deposit may already be credited when a handler runs.
func (p *Pair) queryPools(info *Info) ([2]asset.Asset, error) {
	var pools [2]asset.Asset
	for i, ai := range info.AssetInfos {
		amount, err := p.ledger.Balance(ai, info.ContractAddr)
		if err != nil {
			return pools, fmt.Errorf("query pool %s: %w", ai.String(), err)
		}
		pools[i] = asset.Asset{Info: ai, Amount: amount}
	}
	return pools, nil
}

func (p *Pair) totalShare(info *Info) (*big.Int, error) {
	if info.LiquidityToken.IsEmpty() {
		return nil, fmt.Errorf("%w: liquidity token is not initialized", ErrUnauthorized)
	}
	supply, err := p.ledger.Supply(info.LiquidityToken)
	if err != nil {
		return nil, fmt.Errorf("query liquidity supply: %w", err)
	}
	return supply, nil
}
