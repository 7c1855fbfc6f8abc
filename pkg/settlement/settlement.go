// Package settlement runs the slot-driven settlement loop (C5): once per
// beacon-chain slot, after a short delay to let bids accumulate, it settles
// every eligible open auction and writes that slot's results.
package settlement

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flashhouse/auctionhouse/pkg/auction"
	"github.com/flashhouse/auctionhouse/pkg/log"
	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/slotclock"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// Loop settles eligible auctions once per slot.
type Loop struct {
	pool     *pool.Pool
	log      *log.Logger
	clock    slotclock.Clock
	lastSlot uint64
	started  bool

	// sleep and now are overridable in tests.
	sleep func(time.Duration)
	now   func() float64
}

// New creates a settlement loop over pool, deriving slot numbers from the
// configured genesisTime (CHAIN.genesis_time).
func New(p *pool.Pool, logger *log.Logger, genesisTime int64) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		pool:  p,
		log:   logger.Module("settlement"),
		clock: slotclock.NewClock(genesisTime),
		sleep: time.Sleep,
		now:   slotclock.Now,
	}
}

// Run polls the slot clock and settles each new slot until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		slot := l.clock.Slot(l.now())
		if l.started && slot <= l.lastSlot {
			l.sleep(200 * time.Millisecond)
			continue
		}
		l.lastSlot = slot
		l.started = true

		select {
		case <-ctx.Done():
			return
		case <-time.After(slotclock.SettlementDelay):
		}

		l.settleSlot(slot)
	}
}

// settleSlot runs one settlement pass for slot, acquiring all three pool
// locks in the canonical order (auctions, builders, txpool) because it
// mutates all three: the auction map is replaced, sold is flipped, and
// pending_payment is incremented. started is captured once so the dwell
// comparison is consistent across every auction in the pass.
func (l *Loop) settleSlot(slot uint64) {
	started := l.now()

	l.pool.LockAuctions()
	defer l.pool.UnlockAuctions()
	l.pool.LockBuilders()
	defer l.pool.UnlockBuilders()
	l.pool.LockTxpool()
	defer l.pool.UnlockTxpool()

	postponed := make(map[common.Hash]*auction.Auction)
	var slotResults []types.SlotResult

	for hash, a := range l.pool.Auctions {
		if a.Tx.Submitted >= started-slotclock.MinTimeInTxPool {
			postponed[hash] = a
			continue
		}

		result, err := a.Settle()
		if err != nil {
			l.log.Error("settle failed", "hash", hash, "err", err)
			continue
		}

		a.Tx.Sold = true
		slotResults = append(slotResults, types.SlotResult{Result: result, Tx: a.Tx.Inner})

		if b, ok := l.pool.Builders[string(result.WinnerPubkey)]; ok {
			b.PendingPayment.Add(b.PendingPayment, result.Payment)
		}
	}

	// Atomic swap under the auction lock — never mutate the live map while
	// iterating it.
	l.pool.Auctions = postponed

	if slotResults == nil {
		slotResults = []types.SlotResult{}
	}
	l.pool.Results.Store(slot, slotResults)
}
