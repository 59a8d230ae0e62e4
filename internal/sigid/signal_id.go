package sigid

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"chain-sentinel/internal/domain"
)

// ComputeSignalID computes a deterministic signal_id.
// Formula: base58(SHA256(tx_hash|kind|block_number|timestamp_ms))
// The same (transaction, detector, time) tuple always yields the same ID;
// detectors pass the emission timestamp, so re-detections at different
// times get distinct IDs and store-level dedup is by signal_id.
func ComputeSignalID(txHash string, kind domain.DetectorKind, blockNumber uint64, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		txHash,
		string(kind),
		blockNumber,
		timestampMs,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
