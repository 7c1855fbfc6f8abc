// Package pool holds the four shared maps at the center of the auction
// house — builders, txpool, auctions, results — behind three named locks,
// plus the canonical multi-lock acquisition order that request handlers and
// both background loops must obey: auctions, then builders, then txpool.
package pool

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/flashhouse/auctionhouse/pkg/auction"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// Pool is the shared mutable state of the auction house. Its four maps are
// exported so that the settlement and cleanup loops — which mutate more
// than one map inside a single critical section — can take the relevant
// locks directly via Lock*/Unlock* and operate on the raw maps. Everything
// else should prefer the single-lock convenience methods below.
type Pool struct {
	auctionsMu sync.Mutex
	Auctions   map[common.Hash]*auction.Auction

	buildersMu sync.RWMutex
	Builders   map[string]*types.Builder

	txpoolMu sync.RWMutex
	Txpool   map[common.Hash]*types.Transaction

	// Results needs no lock of its own: the settlement loop is the only
	// writer, and it writes each slot's list exactly once while holding
	// all three locks above; reads are whole, already-immutable snapshots.
	// sync.Map gives safe concurrent access without a fourth named lock.
	Results sync.Map // map[uint64][]types.SlotResult
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		Auctions: make(map[common.Hash]*auction.Auction),
		Builders: make(map[string]*types.Builder),
		Txpool:   make(map[common.Hash]*types.Transaction),
	}
}

// Canonical lock order: auctions, then builders, then txpool. Any caller
// taking more than one lock must acquire (and release) them in this order.

func (p *Pool) LockAuctions()   { p.auctionsMu.Lock() }
func (p *Pool) UnlockAuctions() { p.auctionsMu.Unlock() }

func (p *Pool) LockBuilders()    { p.buildersMu.Lock() }
func (p *Pool) UnlockBuilders()  { p.buildersMu.Unlock() }
func (p *Pool) RLockBuilders()   { p.buildersMu.RLock() }
func (p *Pool) RUnlockBuilders() { p.buildersMu.RUnlock() }

func (p *Pool) LockTxpool()    { p.txpoolMu.Lock() }
func (p *Pool) UnlockTxpool()  { p.txpoolMu.Unlock() }
func (p *Pool) RLockTxpool()   { p.txpoolMu.RLock() }
func (p *Pool) RUnlockTxpool() { p.txpoolMu.RUnlock() }

// RegisterBuilder inserts a new builder with access granted. Fails
// ErrAlreadyRegistered if pubkey is already present.
func (p *Pool) RegisterBuilder(pubkey []byte) error {
	key := string(pubkey)
	p.buildersMu.Lock()
	defer p.buildersMu.Unlock()
	if _, ok := p.Builders[key]; ok {
		return ErrAlreadyRegistered
	}
	p.Builders[key] = types.NewBuilder(pubkey)
	return nil
}

// GetBuilder returns a snapshot copy of the builder's access flag and
// pending payment. The caller must treat PendingPayment as possibly stale
// the instant the lock is released, per §4.4.
func (p *Pool) GetBuilder(pubkey []byte) (access bool, pendingPayment *uint256.Int, ok bool) {
	p.buildersMu.RLock()
	defer p.buildersMu.RUnlock()
	b, ok := p.Builders[string(pubkey)]
	if !ok {
		return false, nil, false
	}
	return b.Access, b.PendingPayment.Clone(), true
}

// HasAccess reports whether pubkey is registered and access is granted.
func (p *Pool) HasAccess(pubkey []byte) (registered, access bool) {
	p.buildersMu.RLock()
	defer p.buildersMu.RUnlock()
	b, ok := p.Builders[string(pubkey)]
	if !ok {
		return false, false
	}
	return true, b.Access
}

// AddTx inserts tx under the txpool lock. Fails ErrDuplicate if the hash is
// already present.
func (p *Pool) AddTx(tx *types.Transaction) error {
	p.txpoolMu.Lock()
	defer p.txpoolMu.Unlock()
	if _, ok := p.Txpool[tx.Hash]; ok {
		return ErrDuplicate
	}
	p.Txpool[tx.Hash] = tx
	return nil
}

// GetTx returns the transaction for hash, if present.
func (p *Pool) GetTx(hash common.Hash) (*types.Transaction, bool) {
	p.txpoolMu.RLock()
	defer p.txpoolMu.RUnlock()
	tx, ok := p.Txpool[hash]
	return tx, ok
}

// ListUnsold returns every transaction currently in the pool that has not
// sold. Order is unspecified.
func (p *Pool) ListUnsold() []*types.Transaction {
	p.txpoolMu.RLock()
	defer p.txpoolMu.RUnlock()
	out := make([]*types.Transaction, 0, len(p.Txpool))
	for _, tx := range p.Txpool {
		if !tx.Sold {
			out = append(out, tx)
		}
	}
	return out
}

// ListAll returns every transaction currently in the pool, sold or not —
// the cleanup loop's receipt and expiry passes both walk the whole pool,
// matching the source prototype's unconditional iteration.
func (p *Pool) ListAll() []*types.Transaction {
	p.txpoolMu.RLock()
	defer p.txpoolMu.RUnlock()
	out := make([]*types.Transaction, 0, len(p.Txpool))
	for _, tx := range p.Txpool {
		out = append(out, tx)
	}
	return out
}

// SubmitBid appends bid to the existing auction for its tx hash, or creates
// a new auction seeded with it, under the auctions lock.
func (p *Pool) SubmitBid(tx *types.Transaction, bid types.Bid) error {
	p.auctionsMu.Lock()
	defer p.auctionsMu.Unlock()
	if a, ok := p.Auctions[tx.Hash]; ok {
		return a.Submit(bid)
	}
	if bid.Value.Cmp(tx.Reserve) < 0 {
		return auction.ErrBelowReserve
	}
	p.Auctions[tx.Hash] = auction.New(tx, bid)
	return nil
}

// ResultsForSlot returns the slot's result list, or nil if unwritten.
func (p *Pool) ResultsForSlot(slot uint64) []types.SlotResult {
	v, ok := p.Results.Load(slot)
	if !ok {
		return nil
	}
	return v.([]types.SlotResult)
}
