package config

import (
	"errors"
	"math/big"
)

// ErrInvalidValue is returned for unparseable numeric config values.
var ErrInvalidValue = errors.New("invalid numeric value")

// parseWei parses a non-negative decimal wei amount.
func parseWei(s string) (*big.Int, bool) {
	value, ok := new(big.Int).SetString(s, 10)
	if !ok || value.Sign() < 0 {
		return nil, false
	}
	return value, true
}
