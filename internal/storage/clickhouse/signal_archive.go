package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"chain-sentinel/internal/domain"
)

// SignalArchive is an append-only ClickHouse archive of emitted signals,
// intended for offline analytics rather than the point lookups the
// Postgres store serves. Duplicate signal IDs are collapsed by the
// ReplacingMergeTree engine instead of being rejected at insert time.
type SignalArchive struct {
	conn *Conn
}

// NewSignalArchive creates a new ClickHouse signal archive.
func NewSignalArchive(conn *Conn) *SignalArchive {
	return &SignalArchive{conn: conn}
}

// EnsureSchema creates the signal archive table if it does not exist.
func (a *SignalArchive) EnsureSchema(ctx context.Context) error {
	err := a.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signal_archive (
			signal_id         String,
			kind              LowCardinality(String),
			confidence        Float64,
			severity          LowCardinality(String),
			related_addresses Array(String),
			related_tx_hashes Array(String),
			description       String,
			metadata          String,
			timestamp_ms      Int64
		) ENGINE = ReplacingMergeTree()
		ORDER BY (kind, timestamp_ms, signal_id)
	`)
	if err != nil {
		return fmt.Errorf("ensure signal_archive schema: %w", err)
	}
	return nil
}

// InsertBatch archives a batch of signals.
func (a *SignalArchive) InsertBatch(ctx context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO signal_archive (
			signal_id, kind, confidence, severity,
			related_addresses, related_tx_hashes, description, metadata, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare signal batch: %w", err)
	}

	for _, signal := range signals {
		metadata := ""
		if signal.Metadata != nil {
			data, err := json.Marshal(signal.Metadata)
			if err != nil {
				return fmt.Errorf("marshal signal metadata: %w", err)
			}
			metadata = string(data)
		}

		err := batch.Append(
			signal.SignalID,
			string(signal.Kind),
			signal.Confidence,
			string(signal.Severity),
			signal.RelatedAddresses,
			signal.RelatedTxHashes,
			signal.Description,
			metadata,
			signal.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append signal to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send signal batch: %w", err)
	}
	return nil
}

// CountByKind returns the number of archived signals per detector kind.
func (a *SignalArchive) CountByKind(ctx context.Context) (map[domain.DetectorKind]uint64, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT kind, count() FROM signal_archive GROUP BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("query signal counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.DetectorKind]uint64)
	for rows.Next() {
		var kind string
		var count uint64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan signal count: %w", err)
		}
		counts[domain.DetectorKind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal counts: %w", err)
	}
	return counts, nil
}
