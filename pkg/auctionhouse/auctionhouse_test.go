package auctionhouse

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/flashhouse/auctionhouse/pkg/chainclient"
	"github.com/flashhouse/auctionhouse/pkg/pool"
	"github.com/flashhouse/auctionhouse/pkg/rlp"
	"github.com/flashhouse/auctionhouse/pkg/txcodec"
	"github.com/flashhouse/auctionhouse/pkg/types"
)

type fakeChain struct {
	estimatedGas uint64
	estimateErr  error
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg chainclient.CallMsg) (uint64, error) {
	if f.estimateErr != nil {
		return 0, f.estimateErr
	}
	return f.estimatedGas, nil
}

func (f *fakeChain) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*chainclient.Receipt, error) {
	return nil, chainclient.ErrTxNotFound
}

func (f *fakeChain) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	return common.BytesToHash(raw), nil
}

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) {
	return 0, nil
}

// legacyUnsignedHash replicates the pre-EIP-155 legacy signing hash
// (keccak256 of the RLP list of nonce, gasPrice, gas, to, value, data),
// matching pkg/txcodec's own unsigned-hash computation, so this test
// package can produce a validly signed raw transaction without exporting
// that internal helper.
func legacyUnsignedHash(tx *types.LegacyTx) common.Hash {
	var payload []byte
	enc := func(v interface{}) []byte {
		b, err := rlp.EncodeToBytes(v)
		if err != nil {
			panic(err)
		}
		return b
	}
	payload = append(payload, enc(tx.Nonce)...)
	payload = append(payload, enc(tx.GasPrice)...)
	payload = append(payload, enc(tx.Gas)...)
	if tx.To != nil {
		payload = append(payload, enc(tx.To.Bytes())...)
	} else {
		payload = append(payload, enc([]byte(nil))...)
	}
	payload = append(payload, enc(tx.Value)...)
	payload = append(payload, enc(tx.Data)...)
	return crypto.Keccak256Hash(rlp.WrapList(payload))
}

func signedLegacyRaw(t *testing.T, gasPrice int64) []byte {
	t.Helper()
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	to := common.HexToAddress("0x000000000000000000000000000000000000aa")
	tx := &types.LegacyTx{
		Nonce:    1,
		GasPrice: big.NewInt(gasPrice),
		Gas:      21000,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     nil,
	}

	sig, err := crypto.Sign(legacyUnsignedHash(tx).Bytes(), priv)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	tx.R = new(big.Int).SetBytes(sig[:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	tx.V = new(big.Int).SetInt64(int64(sig[64]) + 27)

	raw, err := txcodec.Encode(tx)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	return raw
}

func TestRegisterAndGetStatus(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{}, nil, 0)

	pubkey := []byte("builder-a")
	if err := ah.Register(pubkey); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	access, pending, err := ah.GetStatus(pubkey)
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if !access {
		t.Error("newly registered builder should have access")
	}
	if pending.Sign() != 0 {
		t.Errorf("PendingPayment = %s, want 0", pending)
	}
}

func TestGetStatusUnregistered(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{}, nil, 0)
	if _, _, err := ah.GetStatus([]byte("nobody")); err != pool.ErrNotRegistered {
		t.Errorf("GetStatus() error = %v, want ErrNotRegistered", err)
	}
}

func TestRequireAccessBlocksRevokedBuilder(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{}, nil, 0)
	pubkey := []byte("builder-a")
	if err := ah.Register(pubkey); err != nil {
		t.Fatal(err)
	}
	p.Builders[string(pubkey)].Access = false

	if _, err := ah.GetTxPool(pubkey); err != ErrAccessRestricted {
		t.Errorf("GetTxPool() error = %v, want ErrAccessRestricted", err)
	}
	if _, err := ah.SubmitBid(pubkey, common.Hash{}, uint256.NewInt(1)); err != ErrAccessRestricted {
		t.Errorf("SubmitBid() error = %v, want ErrAccessRestricted", err)
	}
	if _, _, err := ah.GetResults(pubkey, 0); err != ErrAccessRestricted {
		t.Errorf("GetResults() error = %v, want ErrAccessRestricted", err)
	}

	// GetStatus is explicitly not access-gated: a revoked builder can still
	// see its own status.
	if _, _, err := ah.GetStatus(pubkey); err != nil {
		t.Errorf("GetStatus() error = %v, want nil (status is not access-gated)", err)
	}
}

func TestSubmitTxRejectsEstimateGasFailure(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{estimateErr: errors.New("boom")}, nil, 0)

	raw := signedLegacyRaw(t, 1_000_000_000)
	if err := ah.SubmitTx(context.Background(), raw); err != ErrInvalidTx {
		t.Errorf("SubmitTx() error = %v, want ErrInvalidTx", err)
	}
}

func TestSubmitTxAdmitsAndRedactsSignature(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{estimatedGas: 21000}, nil, 0)

	raw := signedLegacyRaw(t, 1_000_000_000)
	if err := ah.SubmitTx(context.Background(), raw); err != nil {
		t.Fatalf("SubmitTx() error: %v", err)
	}

	// A second submission of the same raw bytes must be rejected as a
	// duplicate (same hash).
	if err := ah.SubmitTx(context.Background(), raw); err != pool.ErrDuplicate {
		t.Errorf("duplicate SubmitTx() error = %v, want ErrDuplicate", err)
	}

	pubkey := []byte("builder-a")
	if err := ah.Register(pubkey); err != nil {
		t.Fatal(err)
	}
	entries, err := ah.GetTxPool(pubkey)
	if err != nil {
		t.Fatalf("GetTxPool() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	lt, ok := entries[0].Data.(*types.LegacyTx)
	if !ok {
		t.Fatalf("entry data type = %T, want *types.LegacyTx", entries[0].Data)
	}
	if lt.R != nil || lt.S != nil || lt.V == nil || lt.V.Sign() != 0 {
		t.Errorf("GetTxPool() did not redact signature: v=%v r=%v s=%v", lt.V, lt.R, lt.S)
	}
	wantReserve := uint256.NewInt(1_000_000_000 * 21000)
	if entries[0].Reserve.Cmp(wantReserve) != 0 {
		t.Errorf("Reserve = %s, want %s", entries[0].Reserve, wantReserve)
	}
}

func TestSubmitBidAndGetResultsEndToEnd(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{estimatedGas: 21000}, nil, 0)

	raw := signedLegacyRaw(t, 100)
	if err := ah.SubmitTx(context.Background(), raw); err != nil {
		t.Fatalf("SubmitTx() error: %v", err)
	}

	var txHash common.Hash
	for h := range p.Txpool {
		txHash = h
	}

	winner := []byte("winner")
	loser := []byte("loser")
	if err := ah.Register(winner); err != nil {
		t.Fatal(err)
	}
	if err := ah.Register(loser); err != nil {
		t.Fatal(err)
	}

	reserve := p.Txpool[txHash].Reserve
	lowBid := new(uint256.Int).Add(reserve, uint256.NewInt(1))
	highBid := new(uint256.Int).Add(reserve, uint256.NewInt(1000))

	if _, err := ah.SubmitBid(loser, txHash, lowBid); err != nil {
		t.Fatalf("SubmitBid(loser) error: %v", err)
	}
	if _, err := ah.SubmitBid(winner, txHash, highBid); err != nil {
		t.Fatalf("SubmitBid(winner) error: %v", err)
	}

	a := p.Auctions[txHash]
	result, err := a.Settle()
	if err != nil {
		t.Fatalf("Settle() error: %v", err)
	}
	p.Results.Store(uint64(1), []types.SlotResult{{Result: result, Tx: p.Txpool[txHash].Inner}})

	mine, total, err := ah.GetResults(winner, 1)
	if err != nil {
		t.Fatalf("GetResults(winner) error: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("len(mine) = %d, want 1", len(mine))
	}
	if total.Cmp(lowBid) != 0 {
		t.Errorf("total payment = %s, want second-price %s", total, lowBid)
	}

	loserResults, loserTotal, err := ah.GetResults(loser, 1)
	if err != nil {
		t.Fatalf("GetResults(loser) error: %v", err)
	}
	if len(loserResults) != 0 {
		t.Errorf("len(loserResults) = %d, want 0", len(loserResults))
	}
	if loserTotal.Sign() != 0 {
		t.Errorf("loser total = %s, want 0", loserTotal)
	}
}

func TestSubmitBidRejectsBelowReserve(t *testing.T) {
	p := pool.New()
	ah := New(p, &fakeChain{estimatedGas: 21000}, nil, 0)
	raw := signedLegacyRaw(t, 100)
	if err := ah.SubmitTx(context.Background(), raw); err != nil {
		t.Fatalf("SubmitTx() error: %v", err)
	}
	var txHash common.Hash
	for h := range p.Txpool {
		txHash = h
	}
	pubkey := []byte("builder-a")
	if err := ah.Register(pubkey); err != nil {
		t.Fatal(err)
	}

	reserve := p.Txpool[txHash].Reserve
	tooLow := new(uint256.Int).Sub(reserve, uint256.NewInt(1))
	if _, err := ah.SubmitBid(pubkey, txHash, tooLow); err == nil {
		t.Error("SubmitBid() below reserve should fail")
	}
}

func TestComputeReserveUsesGasTipCapUniformly(t *testing.T) {
	legacy := &types.LegacyTx{GasPrice: big.NewInt(10)}
	reserve := computeReserve(legacy, 1000)
	if reserve.Cmp(uint256.NewInt(10_000)) != 0 {
		t.Errorf("legacy reserve = %s, want 10000 (gasPrice * estimatedGas)", reserve)
	}

	dyn := &types.DynamicFeeTx{GasTipCap: big.NewInt(3), GasFeeCap: big.NewInt(100)}
	reserve = computeReserve(dyn, 1000)
	if reserve.Cmp(uint256.NewInt(3_000)) != 0 {
		t.Errorf("1559 reserve = %s, want 3000 (maxPriorityFeePerGas * estimatedGas)", reserve)
	}
}
