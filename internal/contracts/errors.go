package contracts

import "errors"

// Domain error taxonomy. Repositories translate storage-level failures
// (constraint violations, empty result sets) into these sentinels so
// callers can branch with errors.Is without importing pgx.
var (
	// ErrNotFound signals a lookup miss. It is an absent result, not a
	// failure path at the API boundary.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVersion signals a (symbol, version) collision on report
	// append. The first report wins; the duplicate is rejected, not retried.
	ErrDuplicateVersion = errors.New("duplicate report version")

	// ErrOrphanReport signals an append for a symbol with no instrument
	// row. The caller must upsert the instrument first.
	ErrOrphanReport = errors.New("instrument does not exist for report")
)
