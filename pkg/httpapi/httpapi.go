// Package httpapi is the HTTP/JSON request dispatcher: one handler per
// AuctionHouse operation, translating the wire contract of §6 into calls
// against the service layer and mapping every returned error to an HTTP 500
// with a plain-text body, per the propagation policy.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/holiman/uint256"

	"github.com/flashhouse/auctionhouse/pkg/auctionhouse"
	"github.com/flashhouse/auctionhouse/pkg/log"
)

// Server dispatches the six request-API routes to an AuctionHouse.
type Server struct {
	ah  *auctionhouse.AuctionHouse
	log *log.Logger
	mux *http.ServeMux
}

// New builds a Server and registers its routes.
func New(ah *auctionhouse.AuctionHouse, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{ah: ah, log: logger.Module("httpapi"), mux: http.NewServeMux()}
	s.mux.HandleFunc("/register", s.handleRegister)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/submitTx", s.handleSubmitTx)
	s.mux.HandleFunc("/txPool", s.handleTxPool)
	s.mux.HandleFunc("/submitBid", s.handleSubmitBid)
	s.mux.HandleFunc("/results", s.handleResults)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PubKey string `json:"pubKey"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	pubkey, err := hexDecode(req.PubKey)
	if err != nil {
		fail(w, err)
		return
	}
	if err := s.ah.Register(pubkey); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, struct{}{})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PubKey string `json:"pubKey"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	pubkey, err := hexDecode(req.PubKey)
	if err != nil {
		fail(w, err)
		return
	}
	access, pending, err := s.ah.GetStatus(pubkey)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, struct {
		Access         bool   `json:"access"`
		PendingPayment string `json:"pendingPayment"`
	}{access, pending.Dec()})
}

func (s *Server) handleSubmitTx(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawTx string `json:"rawTx"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	raw, err := hexDecode(req.RawTx)
	if err != nil {
		fail(w, err)
		return
	}
	if err := s.ah.SubmitTx(r.Context(), raw); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, struct{}{})
}

func (s *Server) handleTxPool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PubKey string `json:"pubKey"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	pubkey, err := hexDecode(req.PubKey)
	if err != nil {
		fail(w, err)
		return
	}
	entries, err := s.ah.GetTxPool(pubkey)
	if err != nil {
		fail(w, err)
		return
	}

	type row struct {
		Data    txJSON `json:"data"`
		Reserve string `json:"reserve"`
	}
	out := make([]row, len(entries))
	for i, e := range entries {
		out[i] = row{Data: toTxJSON(e.Data), Reserve: e.Reserve.Dec()}
	}
	writeJSON(w, out)
}

func (s *Server) handleSubmitBid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PubKey string `json:"pubKey"`
		TxHash string `json:"txHash"`
		Value  string `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	pubkey, err := hexDecode(req.PubKey)
	if err != nil {
		fail(w, err)
		return
	}
	hash, err := parseHash(req.TxHash)
	if err != nil {
		fail(w, err)
		return
	}
	value, err := uint256.FromDecimal(req.Value)
	if err != nil {
		fail(w, err)
		return
	}

	slot, err := s.ah.SubmitBid(pubkey, hash, value)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, struct {
		Slot string `json:"slot"`
	}{uint256.NewInt(slot).Dec()})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PubKey string `json:"pubKey"`
		Slot   uint64 `json:"slot"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	pubkey, err := hexDecode(req.PubKey)
	if err != nil {
		fail(w, err)
		return
	}
	results, total, err := s.ah.GetResults(pubkey, req.Slot)
	if err != nil {
		fail(w, err)
		return
	}

	type row struct {
		Payment string `json:"payment"`
		Data    txJSON `json:"data"`
	}
	txs := make([]row, len(results))
	for i, r := range results {
		txs[i] = row{Payment: r.Result.Payment.Dec(), Data: toTxJSON(r.Tx)}
	}
	writeJSON(w, struct {
		Transactions []row  `json:"transactions"`
		TotalPayment string `json:"total_payment"`
	}{txs, total.Dec()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		fail(w, err)
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		fail(w, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps any service-layer error to an HTTP 500 with a plain-text body,
// per §6's propagation policy — the error kind is never separately
// transported.
func fail(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
