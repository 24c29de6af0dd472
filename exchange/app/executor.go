package app

import (
	"fmt"
	"log"

	"github.com/badgerodon/collections/stack"

	"github.com/pooldex/swapd/ledger"
)

// Host resolves contract-level instructions: deploying a contract and
// calling into one. Balance-level instructions go to the ledger directly.
type Host interface {
	Instantiate(sender string, ins ledger.Instantiate) (string, *ledger.Response, error)
	Execute(sender string, ins ledger.Execute) (*ledger.Response, error)
}

type job struct {
	sender string
	ins    ledger.Instruction
}

// Executor drains an instruction batch depth first against the local
// ledger: instructions emitted by a contract call run before the call's
// siblings, so an init hook completes before the next callback sees the
// contract. Any failure rolls the whole batch back.
type Executor struct {
	ledger *ledger.MemoryLedger
	host   Host
	log    *log.Logger
}

func NewExecutor(l *ledger.MemoryLedger, host Host, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		ledger: l,
		host:   host,
		log:    logger,
	}
}

// Run applies every instruction of the response, all or nothing.
func (e *Executor) Run(sender string, resp *ledger.Response) error {
	snap := e.ledger.Snapshot()
	if err := e.drain(sender, resp); err != nil {
		e.ledger.Restore(snap)
		return err
	}
	return nil
}

func (e *Executor) drain(sender string, resp *ledger.Response) error {
	s := stack.New()
	push := func(from string, instructions []ledger.Instruction) {
		for i := len(instructions) - 1; i >= 0; i-- {
			s.Push(&job{sender: from, ins: instructions[i]})
		}
	}
	push(sender, resp.Instructions)
	for s.Len() > 0 {
		j := s.Pop().(*job)
		switch m := j.ins.(type) {
		case ledger.Instantiate:
			addr, sub, err := e.host.Instantiate(j.sender, m)
			if err != nil {
				return fmt.Errorf("instantiate code %d: %w", m.CodeID, err)
			}
			push(addr, sub.Instructions)
		case ledger.Execute:
			sub, err := e.host.Execute(j.sender, m)
			if err != nil {
				return fmt.Errorf("execute on %s: %w", m.Contract.Address, err)
			}
			push(m.Contract.Address, sub.Instructions)
		default:
			if err := e.ledger.Apply(j.ins); err != nil {
				return err
			}
		}
	}
	return nil
}
