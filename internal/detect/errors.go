package detect

import "errors"

// ErrMalformedEvent is returned when an event is missing the address or
// hash fields a detector needs. The dispatcher logs it and keeps running
// the remaining detectors on the same event.
var ErrMalformedEvent = errors.New("malformed transaction event")
