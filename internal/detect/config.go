package detect

import (
	"math/big"
	"strings"
)

// Wei conversion constants. Detector comparisons always happen in wei;
// gwei/ether only ever appear in thresholds and presentation.
const WeiPerGwei uint64 = 1_000_000_000

// WeiPerEther is 1e18 wei.
var WeiPerEther = new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000))

// Config holds the thresholds shared by the four detectors.
type Config struct {
	Routers RouterSet // DEX router allowlist

	FrontRunGasThresholdWei uint64 // minimum incoming gas price (default 100 gwei)
	FrontRunLookbackBlocks  uint64 // prior blocks scanned (default 3)

	BotTxCountThreshold int    // in-window tx count from one sender (default 5)
	BotGasThresholdWei  uint64 // minimum gas price (default 50 gwei)

	ArbitrageValueThresholdWei *big.Int // minimum transfer value (default 1 ether)
	ArbitragePriorThreshold    int      // prior router interactions in window (default 2)
}

// DefaultConfig returns the default detector thresholds.
func DefaultConfig() Config {
	return Config{
		Routers:                    DefaultRouters(),
		FrontRunGasThresholdWei:    100 * WeiPerGwei,
		FrontRunLookbackBlocks:     3,
		BotTxCountThreshold:        5,
		BotGasThresholdWei:         50 * WeiPerGwei,
		ArbitrageValueThresholdWei: new(big.Int).Set(WeiPerEther),
		ArbitragePriorThreshold:    2,
	}
}

// RouterSet is a lowercase-keyed allowlist of DEX router addresses.
type RouterSet map[string]struct{}

// NewRouterSet builds a RouterSet from addresses, lowercasing each entry.
func NewRouterSet(addresses []string) RouterSet {
	set := make(RouterSet, len(addresses))
	for _, a := range addresses {
		if a == "" {
			continue
		}
		set[strings.ToLower(a)] = struct{}{}
	}
	return set
}

// Contains reports whether address is in the allowlist. The caller is
// expected to pass an already-normalized (lowercase) address.
func (s RouterSet) Contains(address string) bool {
	_, ok := s[address]
	return ok
}

// DefaultRouters returns the mainnet DEX routers monitored by default.
func DefaultRouters() RouterSet {
	return NewRouterSet([]string{
		"0x7a250d5630b4cf539739df2c5dacb4c659f2488d", // Uniswap V2 Router02
		"0xe592427a0aece92de3edee1f18e0157c05861564", // Uniswap V3 SwapRouter
		"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45", // Uniswap V3 SwapRouter02
		"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f", // SushiSwap Router
		"0x1111111254eb6cba2d804392901d69181883fddb", // 1inch AggregationRouter V5
	})
}
