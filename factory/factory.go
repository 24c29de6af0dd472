// Package factory owns the pair registry: it deploys new pair contracts,
// records them once they call back to register, and serves the paginated
// directory queries.
package factory

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/ledger"
	"github.com/pooldex/swapd/pair"
	"github.com/pooldex/swapd/pricing"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyExists     = errors.New("pair already exists")
	ErrAlreadyRegistered = errors.New("pair was already registered")
	ErrNotFound          = errors.New("no pair for the given assets")
)

// Config holds the deployment parameters every new pair needs.
type Config struct {
	Owner         string `json:"owner"`
	TokenCodeID   uint64 `json:"token_code_id"`
	TokenCodeHash string `json:"token_code_hash"`
	PairCodeID    uint64 `json:"pair_code_id"`
	PairCodeHash  string `json:"pair_code_hash"`
}

// Fee is a rational commission rate.
type Fee struct {
	CommissionRateNom   uint64 `json:"commission_rate_nom"`
	CommissionRateDenom uint64 `json:"commission_rate_denom"`
}

// PairSettings are owner-tunable parameters handed to off-chain
// consumers. The pair pricing path keeps its fixed commission rate.
type PairSettings struct {
	SwapFee          Fee    `json:"swap_fee"`
	DevFund          string `json:"dev_fund"`
	SwapDataEndpoint string `json:"swap_data_endpoint"`
}

func DefaultPairSettings() PairSettings {
	return PairSettings{
		SwapFee: Fee{
			CommissionRateNom:   pricing.CommissionRateNom.Uint64(),
			CommissionRateDenom: pricing.CommissionRateDenom.Uint64(),
		},
	}
}

// PairQuerier looks up a deployed pair's registered state, used during
// Register to learn the pair's liquidity token.
type PairQuerier interface {
	PairInfo(contractAddr string) (*pair.Info, error)
}

// RegisterMsg is the init-hook callback a freshly deployed pair sends.
type RegisterMsg struct {
	AssetInfos [2]asset.Info
}

// Factory is the registry state manager.
type Factory struct {
	mu       sync.Mutex
	self     ledger.ContractRef
	config   Config
	settings PairSettings
	store    Store
	pairs    PairQuerier
	log      *log.Logger
}

func New(self ledger.ContractRef, config Config, store Store, pairs PairQuerier, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &Factory{
		self:     self,
		config:   config,
		settings: DefaultPairSettings(),
		store:    store,
		pairs:    pairs,
		log:      logger,
	}
}

// CreatePair stages a registry entry for the unordered asset pair and
// emits the pair-contract instantiation; the pair registers itself
// through the init hook once deployed.
func (f *Factory) CreatePair(sender string, assetInfos [2]asset.Info) (*ledger.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := asset.SortKey(assetInfos)
	if _, err := f.store.Get(key); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, key)
	}
	if err := f.store.Put(key, &pair.Info{
		TokenCodeHash: f.config.TokenCodeHash,
		AssetInfos:    assetInfos,
		Factory:       f.self,
	}); err != nil {
		return nil, err
	}

	f.log.Printf("factory: create pair %s requested by %s", key, sender)
	return &ledger.Response{
		Instructions: []ledger.Instruction{
			ledger.Instantiate{
				CodeID:   f.config.PairCodeID,
				CodeHash: f.config.PairCodeHash,
				Label:    fmt.Sprintf("%s pair", key),
				Msg: pair.InitMsg{
					AssetInfos:    assetInfos,
					TokenCodeID:   f.config.TokenCodeID,
					TokenCodeHash: f.config.TokenCodeHash,
					InitHook: &pair.InitHook{
						Contract: f.self,
						Msg:      RegisterMsg{AssetInfos: assetInfos},
					},
				},
			},
		},
		Log: []ledger.Attribute{
			ledger.Attr("action", "create_pair"),
			ledger.Attr("pair", key),
		},
	}, nil
}

// Register finalizes a staged entry. The sender must be the deployed
// pair itself; its liquidity token is read back from the pair state.
func (f *Factory) Register(sender string, assetInfos [2]asset.Info) (*ledger.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := asset.SortKey(assetInfos)
	staged, err := f.store.Get(key)
	if err != nil {
		return nil, err
	}
	if staged.ContractAddr != "" {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, key)
	}

	deployed, err := f.pairs.PairInfo(sender)
	if err != nil {
		return nil, fmt.Errorf("query pair %s: %w", sender, err)
	}
	staged.ContractAddr = sender
	staged.LiquidityToken = deployed.LiquidityToken
	if err := f.store.Put(key, staged); err != nil {
		return nil, err
	}

	f.log.Printf("factory: registered pair %s at %s (liquidity token %s)",
		key, sender, staged.LiquidityToken.Address)
	return &ledger.Response{
		Log: []ledger.Attribute{
			ledger.Attr("pair_contract_addr", sender),
			ledger.Attr("liquidity_token_addr", staged.LiquidityToken.Address),
		},
	}, nil
}

// ConfigUpdate carries the optional fields of an owner config change.
type ConfigUpdate struct {
	Owner         *string
	TokenCodeID   *uint64
	TokenCodeHash *string
	PairCodeID    *uint64
	PairCodeHash  *string
}

func (f *Factory) UpdateConfig(sender string, update ConfigUpdate) (*ledger.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sender != f.config.Owner {
		return nil, ErrUnauthorized
	}
	if update.Owner != nil {
		f.config.Owner = *update.Owner
	}
	if update.TokenCodeID != nil {
		f.config.TokenCodeID = *update.TokenCodeID
	}
	if update.TokenCodeHash != nil {
		f.config.TokenCodeHash = *update.TokenCodeHash
	}
	if update.PairCodeID != nil {
		f.config.PairCodeID = *update.PairCodeID
	}
	if update.PairCodeHash != nil {
		f.config.PairCodeHash = *update.PairCodeHash
	}
	f.log.Printf("factory: config updated by %s", sender)
	return &ledger.Response{
		Log: []ledger.Attribute{ledger.Attr("action", "update_config")},
	}, nil
}

func (f *Factory) UpdatePairSettings(sender string, settings PairSettings) (*ledger.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sender != f.config.Owner {
		return nil, ErrUnauthorized
	}
	f.settings = settings
	f.log.Printf("factory: pair settings updated by %s", sender)
	return &ledger.Response{
		Log: []ledger.Attribute{ledger.Attr("action", "update_pair_settings")},
	}, nil
}

func (f *Factory) Config() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

func (f *Factory) PairSettings() PairSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

// Pair returns the registry entry for the unordered asset pair.
func (f *Factory) Pair(assetInfos [2]asset.Info) (*pair.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.Get(asset.SortKey(assetInfos))
}

// Pairs lists registry entries in key order, resuming after the given
// asset pair when one is set.
func (f *Factory) Pairs(startAfter *[2]asset.Info, limit *int) ([]*pair.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	after := ""
	if startAfter != nil {
		after = asset.SortKey(*startAfter)
	}
	return f.store.Range(after, clampLimit(limit))
}
