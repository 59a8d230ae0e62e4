package domain

// Signal is a scored detection result emitted for downstream consumption.
// The engine hands a signal to the output boundary immediately after a
// detector produces it and keeps no history of its own.
type Signal struct {
	SignalID         string         `json:"signal_id"` // deterministic hash, see sigid
	Kind             DetectorKind   `json:"kind"`
	Confidence       float64        `json:"confidence"` // always clamped to [0,1]
	Severity         Severity       `json:"severity"`
	RelatedAddresses []string       `json:"related_addresses"`
	RelatedTxHashes  []string       `json:"related_tx_hashes"` // ordered, deduplicated, capped per detector
	Description      string         `json:"description"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Timestamp        int64          `json:"timestamp"` // Unix milliseconds
}

// AppendUnique appends values to list preserving order, skipping empties
// and entries already present. Used for the ordered-set signal fields.
func AppendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		dup := false
		for _, existing := range list {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, v)
		}
	}
	return list
}
