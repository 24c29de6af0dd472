package store

import (
	"context"
)

// Store writes executed swap and liquidity events to MySQL off the
// handler path through buffered channels.
type Store struct {
	ctx           context.Context
	swapChan      chan *SwapRecord
	liquidityChan chan *LiquidityRecord
	dao           *Dao
}

func NewStore(ctx context.Context, url, scheme, user, passwd string) *Store {
	s := &Store{
		ctx:           ctx,
		swapChan:      make(chan *SwapRecord, 32),
		liquidityChan: make(chan *LiquidityRecord, 32),
	}
	s.dao = NewDao(url, scheme, user, passwd)
	return s
}

func (s *Store) Start() {
	go s.store()
}

func (s *Store) Stop() {

}

func (s *Store) store() {
	for {
		select {
		case rec := <-s.swapChan:
			s.dao.SaveSwapRecord(rec)
		case rec := <-s.liquidityChan:
			s.dao.SaveLiquidityRecord(rec)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Store) StoreSwapRecord(rec *SwapRecord) {
	s.swapChan <- rec
}

func (s *Store) StoreLiquidityRecord(rec *LiquidityRecord) {
	s.liquidityChan <- rec
}

func (s *Store) GetSwapRecords(pair string, limit int) ([]*SwapRecord, error) {
	return s.dao.SelectSwapRecords(pair, limit)
}

func (s *Store) GetLiquidityRecords(pair string, limit int) ([]*LiquidityRecord, error) {
	return s.dao.SelectLiquidityRecords(pair, limit)
}
