package cleanup

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/flashhouse/auctionhouse/pkg/chainclient"
	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

// fakeChain is a minimal in-memory chainclient.ChainClient for tests.
type fakeChain struct {
	receipts map[common.Hash]*chainclient.Receipt
	sent     []common.Hash
	block    uint64
}

func newFakeChain() *fakeChain {
	return &fakeChain{receipts: make(map[common.Hash]*chainclient.Receipt)}
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg chainclient.CallMsg) (uint64, error) {
	return 21000, nil
}

func (f *fakeChain) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*chainclient.Receipt, error) {
	r, ok := f.receipts[hash]
	if !ok {
		return nil, chainclient.ErrTxNotFound
	}
	return r, nil
}

func (f *fakeChain) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	h := common.BytesToHash(raw)
	f.sent = append(f.sent, h)
	return h, nil
}

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	return f.block, nil
}

func addTx(t *testing.T, p *pool.Pool, hash common.Hash, submitted float64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(&types.LegacyTx{GasPrice: nil, Value: nil, Data: nil}, hash, uint256.NewInt(100), submitted)
	if err := p.AddTx(tx); err != nil {
		t.Fatalf("AddTx() error: %v", err)
	}
	return tx
}

func TestProcessExecutedRemovesReceivedReceipts(t *testing.T) {
	p := pool.New()
	chain := newFakeChain()

	hash := common.HexToHash("0x01")
	addTx(t, p, hash, 0.0)
	chain.receipts[hash] = &chainclient.Receipt{TxHash: hash}

	l := New(p, chain, nil)
	l.processExecuted(context.Background())

	if _, ok := p.GetTx(hash); ok {
		t.Error("executed transaction should be removed from the pool")
	}
}

func TestProcessExecutedLeavesPendingTransactions(t *testing.T) {
	p := pool.New()
	chain := newFakeChain()

	hash := common.HexToHash("0x02")
	addTx(t, p, hash, 0.0)
	// no receipt registered -> ErrTxNotFound -> still pending

	l := New(p, chain, nil)
	l.processExecuted(context.Background())

	if _, ok := p.GetTx(hash); !ok {
		t.Error("pending transaction should remain in the pool")
	}
}

func TestProcessExpiredBroadcastsAndRemoves(t *testing.T) {
	p := pool.New()
	chain := newFakeChain()

	hash := common.HexToHash("0x03")
	addTx(t, p, hash, 0.0)

	l := New(p, chain, nil)
	l.now = func() float64 { return 1000.0 } // far past MaxSlotsInTxPool*12s
	l.processExpired(context.Background())

	if _, ok := p.GetTx(hash); ok {
		t.Error("expired transaction should be removed from the pool")
	}
	if len(chain.sent) != 1 {
		t.Errorf("len(chain.sent) = %d, want 1 (expired tx re-broadcast)", len(chain.sent))
	}
}

func TestProcessExpiredLeavesFreshTransactions(t *testing.T) {
	p := pool.New()
	chain := newFakeChain()

	hash := common.HexToHash("0x04")
	addTx(t, p, hash, 999.0)

	l := New(p, chain, nil)
	l.now = func() float64 { return 1000.0 }
	l.processExpired(context.Background())

	if _, ok := p.GetTx(hash); !ok {
		t.Error("fresh transaction should remain in the pool")
	}
	if len(chain.sent) != 0 {
		t.Errorf("len(chain.sent) = %d, want 0", len(chain.sent))
	}
}

func TestExecutedThenExpiredPassDoesNotRebroadcast(t *testing.T) {
	// A transaction that is both executed and expired must be removed by
	// processExecuted and never reach the re-broadcast in processExpired.
	p := pool.New()
	chain := newFakeChain()

	hash := common.HexToHash("0x05")
	addTx(t, p, hash, 0.0)
	chain.receipts[hash] = &chainclient.Receipt{TxHash: hash}

	l := New(p, chain, nil)
	l.now = func() float64 { return 1000.0 }
	l.processExecuted(context.Background())
	l.processExpired(context.Background())

	if len(chain.sent) != 0 {
		t.Errorf("len(chain.sent) = %d, want 0 (executed tx must not be re-broadcast)", len(chain.sent))
	}
}
