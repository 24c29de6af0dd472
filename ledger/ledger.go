// Package ledger models the exchange's external collaborator: the asset
// ledger that holds balances and token supplies, answers read-only
// queries synchronously, and later executes the outbound instructions a
// handler returns. Handlers never mutate balances themselves.
package ledger

import (
	"errors"
	"math/big"

	"github.com/pooldex/swapd/asset"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownContract   = errors.New("unknown contract")
)

// ContractRef addresses a contract together with its access credential.
type ContractRef struct {
	Address  string `json:"address"`
	CodeHash string `json:"code_hash"`
}

func (c ContractRef) IsEmpty() bool { return c.Address == "" }

// Attribute is one structured audit-log entry of a handler response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func Attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Response is the full result of a successful entry point: instructions
// for the host to execute plus audit log pairs. A handler error means
// no instruction is executed at all.
type Response struct {
	Instructions []Instruction
	Log          []Attribute
}

// Instruction is an asset-moving or contract-driving command emitted by
// a handler and executed by the host after the handler returns.
type Instruction interface {
	isInstruction()
}

// Transfer sends an asset from a holder to a recipient. Native assets
// move on the bank ledger, token assets through the token contract.
type Transfer struct {
	Asset asset.Asset
	From  string
	To    string
}

// TransferFrom pulls pre-approved token funds from an owner.
type TransferFrom struct {
	Token     asset.Token
	Owner     string
	Recipient string
	Amount    *big.Int
}

// Mint creates liquidity tokens for a recipient.
type Mint struct {
	Token     ContractRef
	Recipient string
	Amount    *big.Int
}

// Burn destroys liquidity tokens held by the emitting contract.
type Burn struct {
	Token  ContractRef
	Holder string
	Amount *big.Int
}

// Instantiate deploys a new contract from a registered code id.
type Instantiate struct {
	CodeID   uint64
	CodeHash string
	Label    string
	Msg      interface{}
}

// Execute invokes another contract.
type Execute struct {
	Contract ContractRef
	Msg      interface{}
}

func (Transfer) isInstruction()     {}
func (TransferFrom) isInstruction() {}
func (Mint) isInstruction()         {}
func (Burn) isInstruction()         {}
func (Instantiate) isInstruction()  {}
func (Execute) isInstruction()      {}

// Querier answers the synchronous read-only queries a handler issues
// before pricing. Balances are always live; nothing is cached.
type Querier interface {
	Balance(info asset.Info, holder string) (*big.Int, error)
	Supply(token ContractRef) (*big.Int, error)
}

// Ledger is the full collaborator surface a pair needs.
type Ledger interface {
	Querier
	asset.TaxQuerier
}
