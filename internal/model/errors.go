package model

import "errors"

// Sentinel errors returned by the public API. Internal packages wrap these
// with context via fmt.Errorf("...: %w", err) so callers can still match
// with errors.Is.
var (
	// ErrIndexNotFound is returned by the non-creating lookup path
	// (indexengine.Cache.Lookup, Instance.LookupIndex) for a name that has
	// never been opened, in this process or a prior one. Open/GetIndex
	// never return it — they create lazily instead.
	ErrIndexNotFound = errors.New("rowdex: index not found")

	// ErrMapSizeExhausted is returned when the mmap back-off probe fails to
	// find any acceptable map size after all attempts.
	ErrMapSizeExhausted = errors.New("rowdex: could not reserve an mmap region for index environment")

	// ErrHookAttachFailed is returned by ConnectionHandler.Attach when the
	// underlying driver refuses to install the mutation hooks. Surfaced to
	// the caller immediately — the connection is unusable for change
	// capture.
	ErrHookAttachFailed = errors.New("rowdex: failed to attach connection hooks")

	// ErrUnregisteredTable names the case of a (database, table) pair that
	// was never passed to Bind. No function in rowdex returns it:
	// Registry.Lookup reports such a table as (nil, false), and the hooks
	// skip it silently.
	ErrUnregisteredTable = errors.New("rowdex: no index binding registered for table")

	// ErrNeedsRebuild is returned by Open when the on-disk milli_version
	// file carries a schema version different from the running code's
	// version, or one that does not parse as an integer.
	ErrNeedsRebuild = errors.New("rowdex: index directory schema is stale and needs a full rebuild")

	// ErrInvalidBinding is a setup-time programming error: a malformed
	// TableIndexBinding (missing index name, update query, or primary key
	// function) was passed to Bind.
	ErrInvalidBinding = errors.New("rowdex: invalid table index binding")
)
