package app

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/config"
	"github.com/pooldex/swapd/decmath"
	"github.com/pooldex/swapd/factory"
	"github.com/pooldex/swapd/ledger"
	"github.com/pooldex/swapd/netwatch"
	"github.com/pooldex/swapd/notify"
	"github.com/pooldex/swapd/pair"
	"github.com/pooldex/swapd/store"
	"github.com/pooldex/swapd/utils"
)

const factoryAddr = "factory0000"

// Exchange hosts the factory, the deployed pairs and the local ledger,
// and serves them over the RPC API.
type Exchange struct {
	ctx        context.Context
	config     *config.Config
	log        *log.Logger
	pairLog    *log.Logger
	ledger     *ledger.MemoryLedger
	factory    *factory.Factory
	factoryRef ledger.ContractRef
	executor   *Executor
	store      *store.Store
	webhook    *notify.Webhook
	watcher    *netwatch.Watcher
	httpServer *http.Server
	rpcPort    string
	notifyMin  *big.Int

	mu          sync.Mutex
	pairs       map[string]*pair.Pair
	contractSeq uint64
}

func NewExchange(ctx context.Context, cfg *config.Config) *Exchange {
	e := &Exchange{
		ctx:        ctx,
		config:     cfg,
		log:        utils.NewLog(config.LogPath, config.ExchangeLog),
		pairLog:    utils.NewLog(config.LogPath, config.PairLog),
		ledger:     ledger.NewMemoryLedger(),
		factoryRef: ledger.ContractRef{Address: factoryAddr},
		rpcPort:    cfg.Listen,
		pairs:      make(map[string]*pair.Pair),
	}
	e.executor = NewExecutor(e.ledger, e, e.log)
	e.factory = factory.New(e.factoryRef, factory.Config{
		Owner:         cfg.Owner,
		TokenCodeID:   cfg.TokenCodeID,
		TokenCodeHash: cfg.TokenCodeHash,
		PairCodeID:    cfg.PairCodeID,
		PairCodeHash:  cfg.PairCodeHash,
	}, factory.NewMemoryStore(), e, utils.NewLog(config.LogPath, config.FactoryLog))

	e.seedLedger()

	if cfg.DBUrl != "" {
		e.store = store.NewStore(ctx, cfg.DBUrl, cfg.DBScheme, cfg.DBUser, cfg.DBPasswd)
	}
	if cfg.NotifyUrl != "" {
		e.webhook = notify.NewWebhook(cfg.NotifyUrl)
	}
	if cfg.NotifyMinSwap != "" {
		min, ok := new(big.Int).SetString(cfg.NotifyMinSwap, 10)
		if !ok {
			panic(fmt.Errorf("notify_min_swap (%s) is invalid", cfg.NotifyMinSwap))
		}
		e.notifyMin = min
	}
	if cfg.NetStatus && cfg.LedgerEndpoint != "" {
		e.watcher = netwatch.NewWatcher(cfg.LedgerEndpoint, e.webhook)
	}

	e.bootstrapPairs()
	return e
}

// seedLedger loads the configured tax parameters, token registrations
// and opening balances into the local ledger.
func (e *Exchange) seedLedger() {
	cfg := e.config
	if cfg.TaxRate != "" {
		rate, err := decmath.FromString(cfg.TaxRate)
		if err != nil {
			panic(err)
		}
		caps := make(map[string]*big.Int)
		for denom, capStr := range cfg.TaxCaps {
			cap, ok := new(big.Int).SetString(capStr, 10)
			if !ok {
				panic(fmt.Errorf("tax cap (%s) is invalid", capStr))
			}
			caps[denom] = cap
		}
		e.ledger.SetTax(rate, caps)
	}
	for _, pb := range cfg.Pairs {
		for _, ac := range []config.AssetConfig{pb.Asset0, pb.Asset1} {
			if ac.ContractAddr != "" {
				e.ledger.RegisterToken(ledger.ContractRef{Address: ac.ContractAddr, CodeHash: ac.CodeHash})
			}
		}
	}
	for _, b := range cfg.Balances {
		amount, ok := new(big.Int).SetString(b.Amount, 10)
		if !ok {
			panic(fmt.Errorf("balance amount (%s) is invalid", b.Amount))
		}
		e.ledger.Fund(b.Holder, asset.Asset{Info: e.assetInfoFromKey(b.Asset), Amount: amount})
	}
}

// bootstrapPairs deploys the configured pairs through the regular
// create path so the registry, pair state and liquidity tokens all
// exist before the RPC comes up.
func (e *Exchange) bootstrapPairs() {
	for _, pb := range e.config.Pairs {
		infos := [2]asset.Info{
			assetInfoFromConfig(pb.Asset0),
			assetInfoFromConfig(pb.Asset1),
		}
		resp, err := e.factory.CreatePair(e.config.Owner, infos)
		if err != nil {
			panic(err)
		}
		if err := e.executor.Run(factoryAddr, resp); err != nil {
			panic(err)
		}
		e.log.Printf("bootstrapped pair %s", asset.SortKey(infos))
	}
}

func assetInfoFromConfig(ac config.AssetConfig) asset.Info {
	if ac.ContractAddr != "" {
		return asset.Token{ContractAddr: ac.ContractAddr, CodeHash: ac.CodeHash}
	}
	return asset.NativeToken{Denom: ac.Denom}
}

// assetInfoFromKey resolves a raw asset key from the API: registered
// token contracts become token infos, everything else a native denom.
func (e *Exchange) assetInfoFromKey(key string) asset.Info {
	if hash, ok := e.ledger.TokenCodeHash(key); ok {
		return asset.Token{ContractAddr: key, CodeHash: hash}
	}
	return asset.NativeToken{Denom: key}
}

func (e *Exchange) pairByAddr(addr string) (*pair.Pair, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pairs[addr]
	return p, ok
}

// PairInfo serves the factory's register-time lookup of a deployed pair.
func (e *Exchange) PairInfo(contractAddr string) (*pair.Info, error) {
	p, ok := e.pairByAddr(contractAddr)
	if !ok {
		return nil, fmt.Errorf("unknown pair contract %s", contractAddr)
	}
	return p.Info()
}

// Instantiate deploys a contract for the executor: pair contracts and
// their liquidity tokens, distinguished by code id.
func (e *Exchange) Instantiate(sender string, ins ledger.Instantiate) (string, *ledger.Response, error) {
	switch ins.CodeID {
	case e.config.PairCodeID:
		msg, ok := ins.Msg.(pair.InitMsg)
		if !ok {
			return "", nil, fmt.Errorf("code %d expects a pair init msg, got %T", ins.CodeID, ins.Msg)
		}
		addr := e.nextAddr("pair")
		state := pair.NewMemoryState(nil)
		resp, err := pair.Init(state, addr, ledger.ContractRef{Address: sender}, msg)
		if err != nil {
			return "", nil, err
		}
		e.mu.Lock()
		e.pairs[addr] = pair.New(state, e.ledger, e.pairLog)
		e.mu.Unlock()
		e.log.Printf("instantiated pair contract %s", addr)
		return addr, resp, nil
	case e.config.TokenCodeID:
		msg, ok := ins.Msg.(pair.TokenInitMsg)
		if !ok {
			return "", nil, fmt.Errorf("code %d expects a token init msg, got %T", ins.CodeID, ins.Msg)
		}
		addr := e.nextAddr("liquidity")
		e.ledger.RegisterToken(ledger.ContractRef{Address: addr, CodeHash: ins.CodeHash})
		resp := &ledger.Response{}
		if msg.InitHook != nil {
			resp.Instructions = append(resp.Instructions, ledger.Execute{
				Contract: msg.InitHook.Contract,
				Msg:      msg.InitHook.Msg,
			})
		}
		e.log.Printf("instantiated liquidity token %s (%s)", addr, msg.Symbol)
		return addr, resp, nil
	}
	return "", nil, fmt.Errorf("code id %d is not deployable", ins.CodeID)
}

// Execute routes a contract call for the executor.
func (e *Exchange) Execute(sender string, ins ledger.Execute) (*ledger.Response, error) {
	if ins.Contract.Address == factoryAddr {
		switch msg := ins.Msg.(type) {
		case factory.RegisterMsg:
			return e.factory.Register(sender, msg.AssetInfos)
		}
		return nil, fmt.Errorf("factory does not handle %T", ins.Msg)
	}
	p, ok := e.pairByAddr(ins.Contract.Address)
	if !ok {
		return nil, fmt.Errorf("unknown contract %s", ins.Contract.Address)
	}
	switch ins.Msg.(type) {
	case pair.PostInitializeMsg:
		return p.PostInitialize(sender)
	}
	return nil, fmt.Errorf("pair %s does not handle %T", ins.Contract.Address, ins.Msg)
}

func (e *Exchange) nextAddr(kind string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contractSeq++
	return fmt.Sprintf("%s%04d", kind, e.contractSeq)
}

// submit runs one user operation atomically: the accompanying transfers
// land first, then the handler, then its emitted instructions. Any
// error rolls everything back.
func (e *Exchange) submit(pre []ledger.Instruction, contractAddr string, fn func() (*ledger.Response, error)) (*ledger.Response, error) {
	snap := e.ledger.Snapshot()
	rollback := func(err error) (*ledger.Response, error) {
		e.ledger.Restore(snap)
		return nil, err
	}
	for _, ins := range pre {
		if err := e.ledger.Apply(ins); err != nil {
			return rollback(err)
		}
	}
	resp, err := fn()
	if err != nil {
		return rollback(err)
	}
	if err := e.executor.drain(contractAddr, resp); err != nil {
		return rollback(err)
	}
	return resp, nil
}

func (e *Exchange) Service() {
	e.Start()
	e.StartRPC()
	<-e.ctx.Done()
	e.StopRPC()
	e.Stop()
}

func (e *Exchange) Start() {
	if e.store != nil {
		e.store.Start()
	}
	if e.watcher != nil {
		e.watcher.Start()
	}
	e.log.Printf("exchange has started......")
}

func (e *Exchange) Stop() {
	if e.watcher != nil {
		e.watcher.Stop()
	}
	if e.store != nil {
		e.store.Stop()
	}
	e.log.Printf("exchange has stopped......")
}

func (e *Exchange) StopRPC() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.httpServer.Shutdown(ctx); err != nil {
		panic(err)
	}
	e.log.Printf("rpc server has stopped......")
}
