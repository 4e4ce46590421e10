//go:build !sqlite_preupdate_hook

package hooks

// This reference is intentionally undefined: rowdex requires mattn/go-sqlite3
// built with the sqlite_preupdate_hook tag, or RegisterPreUpdateHook silently
// registers nothing and every DELETE is silently dropped from the index.
// Build (and test) with `-tags sqlite_preupdate_hook`, or use `make build` /
// `make test`.
var _ = rowdex_was_built_without_the_required_sqlite_preupdate_hook_tag
