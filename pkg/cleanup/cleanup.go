// Package cleanup runs the block-driven cleanup loop (C6): it removes
// transactions once their receipt appears on chain, and flushes pooled
// transactions (sold or not) older than the slot horizon to the public
// mempool.
package cleanup

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashhouse/auctionhouse/pkg/chainclient"
	"github.com/flashhouse/auctionhouse/pkg/log"
	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/slotclock"
	"github.com/flashhouse/auctionhouse/pkg/txcodec"
)

// Loop watches the chain for receipts and ages out stale transactions.
type Loop struct {
	pool      *pool.Pool
	chain     chainclient.ChainClient
	log       *log.Logger
	lastBlock uint64
	started   bool

	sleep func(time.Duration)
	now   func() float64
}

// New creates a cleanup loop over pool and chain.
func New(p *pool.Pool, chain chainclient.ChainClient, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		pool:  p,
		chain: chain,
		log:   logger.Module("cleanup"),
		sleep: time.Sleep,
		now:   slotclock.Now,
	}
}

// Run polls the chain's block number and runs a cleanup pass on every new
// block until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		block, err := l.chain.BlockNumber(ctx)
		if err != nil {
			l.log.Warn("block_number failed", "err", err)
			l.sleep(time.Second)
			continue
		}
		if l.started && block <= l.lastBlock {
			l.sleep(time.Second)
			continue
		}
		l.lastBlock = block
		l.started = true

		l.processExecuted(ctx)
		l.processExpired(ctx)
	}
}

// processExecuted removes every transaction whose receipt has appeared,
// collecting hashes first and mutating the pool under lock second. It runs
// strictly before processExpired so a transaction that is both executed
// and expired is never re-broadcast.
func (l *Loop) processExecuted(ctx context.Context) {
	var executed []common.Hash
	for _, tx := range l.pool.ListAll() {
		hash := tx.Hash
		_, err := l.chain.GetTransactionReceipt(ctx, hash)
		if errors.Is(err, chainclient.ErrTxNotFound) {
			continue
		}
		if err != nil {
			l.log.Warn("get_transaction_receipt failed", "hash", hash, "err", err)
			continue
		}
		executed = append(executed, hash)
	}
	if len(executed) == 0 {
		return
	}

	l.pool.LockAuctions()
	defer l.pool.UnlockAuctions()
	l.pool.LockTxpool()
	defer l.pool.UnlockTxpool()

	for _, hash := range executed {
		if tx, ok := l.pool.Txpool[hash]; ok {
			tx.Executed = true
		}
		delete(l.pool.Auctions, hash)
		delete(l.pool.Txpool, hash)
	}
}

// processExpired re-encodes and broadcasts every still-pending transaction
// older than MaxSlotsInTxPool slots, then removes it regardless of whether
// the broadcast succeeded — retaining it serves no purpose once it is
// stale.
func (l *Loop) processExpired(ctx context.Context) {
	now := l.now()
	var expired []common.Hash
	for _, tx := range l.pool.ListAll() {
		if slotclock.AgeSlots(now, tx.Submitted) <= slotclock.MaxSlotsInTxPool {
			continue
		}

		raw, err := txcodec.Encode(tx.Inner)
		if err != nil {
			l.log.Error("re-encode failed", "hash", tx.Hash, "err", err)
			expired = append(expired, tx.Hash)
			continue
		}
		if _, err := l.chain.SendRawTransaction(ctx, raw); err != nil {
			l.log.Warn("send_raw_transaction failed", "hash", tx.Hash, "err", err)
		}
		expired = append(expired, tx.Hash)
	}
	if len(expired) == 0 {
		return
	}

	l.pool.LockAuctions()
	defer l.pool.UnlockAuctions()
	l.pool.LockTxpool()
	defer l.pool.UnlockTxpool()

	for _, hash := range expired {
		delete(l.pool.Auctions, hash)
		delete(l.pool.Txpool, hash)
	}
}
