package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is an ordered name→JSON-value mapping. Field order is
// preserved on encode because the projector builds
// documents column-by-column in the order the projection query returned
// them, and callers may rely on that order for display purposes even though
// it has no effect on index semantics.
type Document struct {
	fields []string
	values map[string]any
}

// NewDocument returns an empty ordered document.
func NewDocument() *Document {
	return &Document{values: make(map[string]any)}
}

// Set assigns value to name, appending name to the field order the first
// time it is seen and overwriting the value (without moving its position)
// on subsequent calls.
func (d *Document) Set(name string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, exists := d.values[name]; !exists {
		d.fields = append(d.fields, name)
	}
	d.values[name] = value
}

// Get returns the value stored for name and whether it was present.
func (d *Document) Get(name string) (any, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Fields returns the field names in insertion order. Callers must not
// mutate the returned slice.
func (d *Document) Fields() []string {
	return d.fields
}

// PrimaryKey resolves and stringifies the value of the primary key field —
// the stringified value is the document's external identifier. Returns an
// error if the field is absent.
func (d *Document) PrimaryKey(field string) (string, error) {
	v, ok := d.values[field]
	if !ok {
		return "", fmt.Errorf("rowdex: document has no primary key field %q", field)
	}
	return stringifyPrimaryKey(v), nil
}

func stringifyPrimaryKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(bytes.Trim(b, `"`))
	}
}

// MarshalJSON renders the document as a JSON object preserving field order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(d.values[f])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores field order using json.Decoder's token stream,
// since encoding/json does not expose object key order through a plain
// map[string]any unmarshal.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("rowdex: document JSON must be an object")
	}

	d.fields = nil
	d.values = make(map[string]any)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("rowdex: document JSON key must be a string")
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return err
		}
		d.Set(key, val)
	}
	_, err = dec.Token() // closing '}'
	return err
}

// Clone returns a deep-enough copy safe to mutate independently (field
// slice and top-level map are copied; nested values are shared, matching
// the projector's immutable-after-build usage pattern).
func (d *Document) Clone() *Document {
	out := &Document{
		fields: append([]string(nil), d.fields...),
		values: make(map[string]any, len(d.values)),
	}
	for k, v := range d.values {
		out.values[k] = v
	}
	return out
}
