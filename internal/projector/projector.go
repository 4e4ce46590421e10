// Package projector renders one SQL result row into a JSON document, with
// a special policy for TEXT columns that already hold JSON literals: SQLite
// schemas commonly store structured data as JSON text, and the index wants
// the structured value, not the string.
package projector

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rowdex/rowdex/internal/model"
)

// Project renders the current row of rows (rows.Next must already have
// returned true) into an ordered Document, applying the TEXT JSON-sniff
// policy to every column.
func Project(rows *sql.Rows) (*model.Document, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("rowdex: projector: columns: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("rowdex: projector: column types: %w", err)
	}

	dest := make([]any, len(cols))
	raw := make([]any, len(cols))
	for i := range dest {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("rowdex: projector: scan: %w", err)
	}

	doc := model.NewDocument()
	for i, name := range cols {
		declared := ""
		if colTypes[i] != nil {
			declared = strings.ToUpper(colTypes[i].DatabaseTypeName())
		}
		doc.Set(name, projectValue(declared, raw[i]))
	}
	return doc, nil
}

// projectValue applies the per-column projection policy. declared is the
// uppercased database type name as reported by the driver (may be empty
// for computed/expression columns, in which case the Go runtime type of v
// drives the same TEXT-vs-other decision).
func projectValue(declared string, v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64:
		return t
	case float64:
		return t
	case bool:
		return t
	case []byte:
		if declared == "TEXT" {
			return projectText(string(t))
		}
		// BLOB: consistently represented as a JSON array of byte values so
		// the index can distinguish it from text without a side channel.
		return blobToJSONInts(t)
	case string:
		if declared == "TEXT" || declared == "" {
			return projectText(t)
		}
		return t
	default:
		return t
	}
}

// projectText is the leading-byte JSON sniff: if the first byte is '"',
// '{', or '[', attempt to parse as JSON; on parse failure, or if the first
// byte doesn't suggest JSON, use the raw string verbatim. The leading-byte
// check keeps free-form strings that happen to parse as numbers from being
// mis-parsed.
func projectText(s string) any {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '"', '{', '[':
		var parsed any
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		if err := dec.Decode(&parsed); err != nil {
			return s
		}
		// Reject trailing garbage after the JSON value (e.g. "123abc" is
		// not a JSON document even though it starts with a digit — this
		// branch only triggers on quote/brace/bracket starts, but a
		// truncated/garbled document like `{"a":1}trailing` must still
		// fall back to the raw string).
		if dec.More() {
			return s
		}
		return parsed
	default:
		return s
	}
}

func blobToJSONInts(b []byte) []int {
	out := make([]int, len(b))
	for i, c := range b {
		out[i] = int(c)
	}
	return out
}
