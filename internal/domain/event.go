package domain

import (
	"math/big"
	"strings"
)

// TransactionEvent represents one observed on-chain transaction.
// Block numbers are monotonically non-decreasing within a connected
// stream; ties (several transactions in one block) are expected.
type TransactionEvent struct {
	BlockNumber     uint64   `json:"block_number"`
	TransactionHash string   `json:"transaction_hash"` // unique within a block
	FromAddress     string   `json:"from_address"`     // lowercase hex
	ToAddress       string   `json:"to_address"`       // empty for contract creation
	GasPriceWei     uint64   `json:"gas_price_wei"`
	ValueWei        *big.Int `json:"value_wei"` // raw wei, never converted inside detectors
}

// Normalize lowercases the address fields and ensures ValueWei is non-nil.
// Events arriving from external feeds are normalized once at the boundary.
func (e *TransactionEvent) Normalize() {
	e.TransactionHash = strings.ToLower(e.TransactionHash)
	e.FromAddress = strings.ToLower(e.FromAddress)
	e.ToAddress = strings.ToLower(e.ToAddress)
	if e.ValueWei == nil {
		e.ValueWei = new(big.Int)
	}
}

// Valid reports whether the event carries the fields every detector needs.
// Malformed events are skipped by the dispatcher, not treated as fatal.
func (e *TransactionEvent) Valid() bool {
	return e != nil && e.TransactionHash != "" && e.FromAddress != ""
}

// Value returns the transfer value in wei, treating nil as zero.
func (e *TransactionEvent) Value() *big.Int {
	if e.ValueWei == nil {
		return new(big.Int)
	}
	return e.ValueWei
}
