// Package config loads engine configuration from an optional TOML file.
// Every value has a fixed default; flags in the cmd binaries override
// file values.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"chain-sentinel/internal/detect"
	"chain-sentinel/internal/engine"
)

// Config is the full engine configuration surface.
type Config struct {
	Engine    EngineConfig
	Detectors DetectorConfig
	Feed      FeedConfig
	Kafka     KafkaConfig
	Storage   StorageConfig
}

// EngineConfig configures the dispatcher and window.
type EngineConfig struct {
	WindowSize     int
	OutboundBuffer int
	MetricsAddr    string
}

// DetectorConfig configures the four heuristics. Gas thresholds are in
// wei; the arbitrage value threshold is in wei expressed as a decimal
// string so config files can hold values beyond uint64.
type DetectorConfig struct {
	Routers                 []string
	FrontRunGasThresholdWei uint64
	FrontRunLookbackBlocks  uint64
	BotTxCountThreshold     int
	BotGasThresholdWei      uint64
	ArbitrageValueWei       string
	ArbitragePriorThreshold int
}

// FeedConfig configures the WebSocket transaction feed.
type FeedConfig struct {
	Endpoint string
}

// KafkaConfig configures the signal-bus sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// StorageConfig configures the signal archive stores.
type StorageConfig struct {
	PostgresDSN   string
	ClickHouseDSN string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			WindowSize:     engine.DefaultWindowSize,
			OutboundBuffer: engine.DefaultOutboundBuffer,
			MetricsAddr:    ":9090",
		},
		Detectors: DetectorConfig{
			FrontRunGasThresholdWei: 100 * detect.WeiPerGwei,
			FrontRunLookbackBlocks:  3,
			BotTxCountThreshold:     5,
			BotGasThresholdWei:      50 * detect.WeiPerGwei,
			ArbitrageValueWei:       detect.WeiPerEther.String(),
			ArbitragePriorThreshold: 2,
		},
		Kafka: KafkaConfig{
			Topic: "chain-sentinel.signals",
		},
	}
}

// Load reads path into the defaults. A missing path ("" or nonexistent
// file) returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DetectConfig converts the file representation into detector thresholds.
func (c *Config) DetectConfig() (detect.Config, error) {
	dc := detect.DefaultConfig()

	if len(c.Detectors.Routers) > 0 {
		dc.Routers = detect.NewRouterSet(c.Detectors.Routers)
	}
	if c.Detectors.FrontRunGasThresholdWei > 0 {
		dc.FrontRunGasThresholdWei = c.Detectors.FrontRunGasThresholdWei
	}
	if c.Detectors.FrontRunLookbackBlocks > 0 {
		dc.FrontRunLookbackBlocks = c.Detectors.FrontRunLookbackBlocks
	}
	if c.Detectors.BotTxCountThreshold > 0 {
		dc.BotTxCountThreshold = c.Detectors.BotTxCountThreshold
	}
	if c.Detectors.BotGasThresholdWei > 0 {
		dc.BotGasThresholdWei = c.Detectors.BotGasThresholdWei
	}
	if c.Detectors.ArbitrageValueWei != "" {
		value, ok := parseWei(c.Detectors.ArbitrageValueWei)
		if !ok {
			return dc, fmt.Errorf("invalid arbitrage value threshold %q: %w", c.Detectors.ArbitrageValueWei, ErrInvalidValue)
		}
		dc.ArbitrageValueThresholdWei = value
	}
	if c.Detectors.ArbitragePriorThreshold > 0 {
		dc.ArbitragePriorThreshold = c.Detectors.ArbitragePriorThreshold
	}

	return dc, nil
}
