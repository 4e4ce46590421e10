package rowdex

import "github.com/rowdex/rowdex/internal/model"

// Sentinel errors. Defined in internal/model so every internal package can
// return them without importing the (higher-level) root package; aliased
// here so callers of the public API can match with errors.Is against the
// rowdex.Err* names.
var (
	ErrIndexNotFound     = model.ErrIndexNotFound
	ErrMapSizeExhausted  = model.ErrMapSizeExhausted
	ErrHookAttachFailed  = model.ErrHookAttachFailed
	ErrUnregisteredTable = model.ErrUnregisteredTable
	ErrNeedsRebuild      = model.ErrNeedsRebuild
	ErrInvalidBinding    = model.ErrInvalidBinding
)
