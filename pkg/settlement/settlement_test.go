package settlement

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/slotclock"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

func addAuctionWithBid(t *testing.T, p *pool.Pool, hash common.Hash, reserve uint64, submitted float64, bidValue uint64, bidSubmitted float64) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(&types.LegacyTx{}, hash, uint256.NewInt(reserve), submitted)
	if err := p.AddTx(tx); err != nil {
		t.Fatalf("AddTx() error: %v", err)
	}
	bid := types.Bid{BuilderPubkey: []byte("builder"), TxHash: hash, Value: uint256.NewInt(bidValue), Submitted: bidSubmitted}
	if err := p.SubmitBid(tx, bid); err != nil {
		t.Fatalf("SubmitBid() error: %v", err)
	}
	return tx
}

func TestSettleSlotSettlesEligibleAuctions(t *testing.T) {
	p := pool.New()
	if err := p.RegisterBuilder([]byte("builder")); err != nil {
		t.Fatal(err)
	}

	hash := common.HexToHash("0x01")
	addAuctionWithBid(t, p, hash, 100, 0.0, 500, 0.5)

	l := New(p, nil, 0)
	l.now = func() float64 { return 10.0 }
	l.settleSlot(7)

	if _, stillOpen := p.Auctions[hash]; stillOpen {
		t.Error("settled auction should be removed from Auctions")
	}
	results := p.ResultsForSlot(7)
	if len(results) != 1 {
		t.Fatalf("ResultsForSlot(7) len = %d, want 1", len(results))
	}
	if results[0].Result.Payment.Cmp(uint256.NewInt(100)) != 0 {
		t.Errorf("Payment = %s, want reserve 100", results[0].Result.Payment)
	}

	_, pending, _ := p.GetBuilder([]byte("builder"))
	if pending.Cmp(uint256.NewInt(100)) != 0 {
		t.Errorf("builder PendingPayment = %s, want 100", pending)
	}
}

func TestSettleSlotPostponesRecentAuctions(t *testing.T) {
	p := pool.New()
	if err := p.RegisterBuilder([]byte("builder")); err != nil {
		t.Fatal(err)
	}

	hash := common.HexToHash("0x02")
	// submitted at 9.9, settlement pass runs "now" at 10.0 — well under
	// MinTimeInTxPool (1s) dwell, so it must be postponed.
	addAuctionWithBid(t, p, hash, 100, 9.9, 500, 9.95)

	l := New(p, nil, 0)
	l.now = func() float64 { return 10.0 }
	l.settleSlot(7)

	if _, stillOpen := p.Auctions[hash]; !stillOpen {
		t.Error("auction younger than MinTimeInTxPool should remain open")
	}
	results := p.ResultsForSlot(7)
	if len(results) != 0 {
		t.Errorf("ResultsForSlot(7) len = %d, want 0", len(results))
	}
}

func TestSettleSlotEmptyWritesEmptyResults(t *testing.T) {
	p := pool.New()
	l := New(p, nil, 0)
	l.now = slotclock.Now
	l.settleSlot(3)

	results := p.ResultsForSlot(3)
	if results == nil {
		t.Error("ResultsForSlot(3) = nil, want non-nil empty slice")
	}
	if len(results) != 0 {
		t.Errorf("ResultsForSlot(3) len = %d, want 0", len(results))
	}
}
