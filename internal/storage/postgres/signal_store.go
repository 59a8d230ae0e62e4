package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new PostgreSQL-backed signal store.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// EnsureSchema creates the signals table if it does not exist.
func (s *SignalStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS signals (
			signal_id         TEXT PRIMARY KEY,
			kind              TEXT NOT NULL,
			confidence        DOUBLE PRECISION NOT NULL,
			severity          TEXT NOT NULL,
			related_addresses TEXT[] NOT NULL DEFAULT '{}',
			related_tx_hashes TEXT[] NOT NULL DEFAULT '{}',
			description       TEXT NOT NULL DEFAULT '',
			metadata          JSONB,
			timestamp_ms      BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_signals_kind ON signals (kind);
		CREATE INDEX IF NOT EXISTS idx_signals_timestamp ON signals (timestamp_ms);
		CREATE INDEX IF NOT EXISTS idx_signals_addresses ON signals USING GIN (related_addresses);
	`)
	if err != nil {
		return fmt.Errorf("ensure signals schema: %w", err)
	}
	return nil
}

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(ctx context.Context, signal *domain.Signal) error {
	if signal == nil || signal.SignalID == "" {
		return storage.ErrInvalidInput
	}

	var metadata []byte
	if signal.Metadata != nil {
		var err error
		metadata, err = json.Marshal(signal.Metadata)
		if err != nil {
			return fmt.Errorf("marshal signal metadata: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO signals (
			signal_id, kind, confidence, severity,
			related_addresses, related_tx_hashes, description, metadata, timestamp_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
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
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}

	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, signalID string) (*domain.Signal, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT signal_id, kind, confidence, severity,
		       related_addresses, related_tx_hashes, description, metadata, timestamp_ms
		FROM signals
		WHERE signal_id = $1
	`, signalID)

	signal, err := scanSignal(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	return signal, nil
}

// GetByKind retrieves all signals of a detector kind, ordered by timestamp ASC.
func (s *SignalStore) GetByKind(ctx context.Context, kind domain.DetectorKind) ([]*domain.Signal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT signal_id, kind, confidence, severity,
		       related_addresses, related_tx_hashes, description, metadata, timestamp_ms
		FROM signals
		WHERE kind = $1
		ORDER BY timestamp_ms ASC, signal_id ASC
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query signals by kind: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetByTimeRange retrieves signals emitted within [start, end] (inclusive).
func (s *SignalStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Signal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT signal_id, kind, confidence, severity,
		       related_addresses, related_tx_hashes, description, metadata, timestamp_ms
		FROM signals
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, signal_id ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query signals by time range: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// GetByAddress retrieves signals whose related addresses include address.
func (s *SignalStore) GetByAddress(ctx context.Context, address string) ([]*domain.Signal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT signal_id, kind, confidence, severity,
		       related_addresses, related_tx_hashes, description, metadata, timestamp_ms
		FROM signals
		WHERE $1 = ANY(related_addresses)
		ORDER BY timestamp_ms ASC, signal_id ASC
	`, address)
	if err != nil {
		return nil, fmt.Errorf("query signals by address: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows)
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSignal scans one signal row.
func scanSignal(row rowScanner) (*domain.Signal, error) {
	var signal domain.Signal
	var kind, severity string
	var metadata []byte

	err := row.Scan(
		&signal.SignalID,
		&kind,
		&signal.Confidence,
		&severity,
		&signal.RelatedAddresses,
		&signal.RelatedTxHashes,
		&signal.Description,
		&metadata,
		&signal.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	signal.Kind = domain.DetectorKind(kind)
	signal.Severity = domain.Severity(severity)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &signal.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal signal metadata: %w", err)
		}
	}

	return &signal, nil
}

// scanSignals scans all rows from a query result.
func scanSignals(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*domain.Signal, error) {
	var result []*domain.Signal
	for rows.Next() {
		signal, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, signal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}
	return result, nil
}
