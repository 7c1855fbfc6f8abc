// Package slotclock derives beacon-chain slot numbers from wall-clock time,
// the tick the settlement loop settles on and the cleanup loop ages
// transactions against.
package slotclock

import (
	"math"
	"time"
)

const (
	// GenesisTime is the Ethereum beacon chain genesis time (Unix seconds).
	GenesisTime = 1606824023

	// SlotSeconds is the beacon chain slot length.
	SlotSeconds = 12

	// SettlementDelay is how far into a slot the settlement loop waits
	// before settling, to let bids accumulate.
	SettlementDelay = 10 * time.Second

	// MinTimeInTxPool is the minimum dwell time (seconds) a transaction
	// must sit in the pool before its auction may settle.
	MinTimeInTxPool = 1.0

	// MaxSlotsInTxPool is the age, in slots, after which a transaction
	// still in the pool is flushed to the public mempool.
	MaxSlotsInTxPool = 10
)

// Now returns the current wall-clock time as fractional Unix seconds.
func Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Clock derives slot numbers from a configured genesis time — the
// auction house's CHAIN.genesis_time, which may differ from the real
// beacon chain's in a devnet or test deployment. AgeSlots needs no
// genesis time (it measures elapsed slots between two timestamps), so it
// stays a plain function below.
type Clock struct {
	GenesisTime float64
}

// NewClock anchors a Clock at genesisTime (Unix seconds).
func NewClock(genesisTime int64) Clock {
	return Clock{GenesisTime: float64(genesisTime)}
}

// Slot computes the beacon-chain slot containing wall-clock time now.
func (c Clock) Slot(now float64) uint64 {
	return uint64(math.Floor((now - c.GenesisTime) / SlotSeconds))
}

// AgeSlots computes how many whole slots have elapsed since submitted,
// using floor division to match the source prototype exactly.
func AgeSlots(now, submitted float64) int64 {
	return int64(math.Floor((now - submitted) / SlotSeconds))
}
