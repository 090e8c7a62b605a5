package ingestion

import "errors"

// Normalization errors. A record failing any of these aborts the whole page
// it arrived in: partially ingesting a page risks permanently losing records
// once the fetch window advances past them.
var (
	// ErrMalformedRecord is returned when a required field is missing or an
	// address/amount/timestamp field fails parsing.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrUnknownKind is returned for raw kind codes outside the code table.
	// Unknown kinds are never silently dropped; a dropped record would
	// corrupt later balance replay.
	ErrUnknownKind = errors.New("unknown transaction kind")

	// ErrUnknownAsset is returned when a token does not resolve through the
	// asset registry. Unresolved assets are a hard failure, not a skip.
	ErrUnknownAsset = errors.New("unknown asset")
)
