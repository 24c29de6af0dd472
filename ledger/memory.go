package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/pooldex/swapd/asset"
	"github.com/pooldex/swapd/decmath"
)

// MemoryLedger is the in-process ledger used by tests and by the daemon
// in local mode. Balances are keyed by holder then asset key; token
// supplies track mint and burn.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[string]map[string]*big.Int
	supplies map[string]*big.Int
	tokens   map[string]string // token contract addr -> code hash
	taxRate  decmath.Decimal
	taxCaps  map[string]*big.Int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[string]map[string]*big.Int),
		supplies: make(map[string]*big.Int),
		tokens:   make(map[string]string),
		taxRate:  decmath.Zero(),
		taxCaps:  make(map[string]*big.Int),
	}
}

func (l *MemoryLedger) SetTax(rate decmath.Decimal, caps map[string]*big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.taxRate = rate
	for denom, cap := range caps {
		l.taxCaps[denom] = new(big.Int).Set(cap)
	}
}

func (l *MemoryLedger) TaxRate() (decmath.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.taxRate, nil
}

func (l *MemoryLedger) TaxCap(denom string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cap, ok := l.taxCaps[denom]; ok {
		return new(big.Int).Set(cap), nil
	}
	return new(big.Int), nil
}

// RegisterToken makes a token contract known to the ledger so it can
// track its supply and honor mint/burn instructions against it.
func (l *MemoryLedger) RegisterToken(token ContractRef) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[token.Address] = token.CodeHash
	if _, ok := l.supplies[token.Address]; !ok {
		l.supplies[token.Address] = new(big.Int)
	}
}

// TokenCodeHash reports whether addr is a registered token contract and
// returns its code hash.
func (l *MemoryLedger) TokenCodeHash(addr string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hash, ok := l.tokens[addr]
	return hash, ok
}

// Fund credits a holder, bypassing transfer rules. Test and bootstrap use.
func (l *MemoryLedger) Fund(holder string, a asset.Asset) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(holder, a.Info.Key(), a.Amount)
}

func (l *MemoryLedger) Balance(info asset.Info, holder string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(holder, info.Key())), nil
}

func (l *MemoryLedger) Supply(token ContractRef) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	supply, ok := l.supplies[token.Address]
	if !ok {
		return nil, fmt.Errorf("%w: token %s", ErrUnknownContract, token.Address)
	}
	return new(big.Int).Set(supply), nil
}

// Apply executes one balance-mutating instruction. Instantiate and
// Execute are contract-level and handled by the host, not the ledger.
func (l *MemoryLedger) Apply(ins Instruction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch m := ins.(type) {
	case Transfer:
		return l.move(m.From, m.To, m.Asset.Info.Key(), m.Asset.Amount)
	case TransferFrom:
		return l.move(m.Owner, m.Recipient, m.Token.Key(), m.Amount)
	case Mint:
		supply, ok := l.supplies[m.Token.Address]
		if !ok {
			return fmt.Errorf("%w: token %s", ErrUnknownContract, m.Token.Address)
		}
		supply.Add(supply, m.Amount)
		l.credit(m.Recipient, m.Token.Address, m.Amount)
		return nil
	case Burn:
		supply, ok := l.supplies[m.Token.Address]
		if !ok {
			return fmt.Errorf("%w: token %s", ErrUnknownContract, m.Token.Address)
		}
		if supply.Cmp(m.Amount) < 0 {
			return fmt.Errorf("%w: burn %s exceeds supply %s", ErrInsufficientFunds, m.Amount, supply)
		}
		supply.Sub(supply, m.Amount)
		return l.debit(m.Holder, m.Token.Address, m.Amount)
	default:
		return fmt.Errorf("instruction %T is not a ledger instruction", ins)
	}
}

// Snapshot returns a deep copy used to roll back a failed batch.
func (l *MemoryLedger) Snapshot() *MemoryLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := NewMemoryLedger()
	c.taxRate = l.taxRate
	for d, v := range l.taxCaps {
		c.taxCaps[d] = new(big.Int).Set(v)
	}
	for t, h := range l.tokens {
		c.tokens[t] = h
	}
	for t, s := range l.supplies {
		c.supplies[t] = new(big.Int).Set(s)
	}
	for holder, assets := range l.balances {
		m := make(map[string]*big.Int, len(assets))
		for k, v := range assets {
			m[k] = new(big.Int).Set(v)
		}
		c.balances[holder] = m
	}
	return c
}

// Restore replaces the ledger state with a snapshot.
func (l *MemoryLedger) Restore(snap *MemoryLedger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = snap.balances
	l.supplies = snap.supplies
	l.tokens = snap.tokens
	l.taxRate = snap.taxRate
	l.taxCaps = snap.taxCaps
}

func (l *MemoryLedger) balance(holder, key string) *big.Int {
	assets, ok := l.balances[holder]
	if !ok {
		return new(big.Int)
	}
	v, ok := assets[key]
	if !ok {
		return new(big.Int)
	}
	return v
}

func (l *MemoryLedger) credit(holder, key string, amount *big.Int) {
	assets, ok := l.balances[holder]
	if !ok {
		assets = make(map[string]*big.Int)
		l.balances[holder] = assets
	}
	v, ok := assets[key]
	if !ok {
		v = new(big.Int)
		assets[key] = v
	}
	v.Add(v, amount)
}

func (l *MemoryLedger) debit(holder, key string, amount *big.Int) error {
	v := l.balance(holder, key)
	if v.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s of %s, needs %s",
			ErrInsufficientFunds, holder, v, key, amount)
	}
	v.Sub(v, amount)
	return nil
}

func (l *MemoryLedger) move(from, to, key string, amount *big.Int) error {
	if err := l.debit(from, key, amount); err != nil {
		return err
	}
	l.credit(to, key, amount)
	return nil
}
