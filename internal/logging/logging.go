// Package logging provides the configured zerolog loggers used throughout
// rowdex. Loggers write JSON to stdout with a "component" field. Stack
// traces are the caller's job: wrap an error with
// github.com/pkg/errors.WithStack at the boundary where it is first
// logged, and log it through Event.Stack() — the marshaler wired here
// renders the trace under the "stack" key.
package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var wireStackMarshaler sync.Once

// New returns a logger tagged with component.
func New(component string) zerolog.Logger {
	wireStackMarshaler.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	})
	return zerolog.New(os.Stdout).With().
		Timestamp().
		Str("component", component).
		Logger()
}
