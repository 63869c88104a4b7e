package salesforce

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a field-name→value mapping that preserves the key order of the
// JSON object it was decoded from. encoding/json maps lose order, but the
// query envelope contract derives its column list from the first row's key
// sequence, so order is load-bearing here. Nested objects decode as nested
// *Record values; numbers decode as json.Number so they re-encode verbatim.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.keys) }

// Keys returns the field names in first-seen order. The slice is a copy.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Get returns the value for key and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores a value under key. A new key is appended to the order;
// setting an existing key keeps its original position.
func (r *Record) Set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Without returns a copy of the record with the given key removed,
// preserving the order of the remaining fields.
func (r *Record) Without(key string) *Record {
	out := NewRecord()
	for _, k := range r.keys {
		if k == key {
			continue
		}
		out.Set(k, r.values[k])
	}
	return out
}

// UnmarshalJSON decodes a JSON object via the token stream so that key order
// survives the round trip.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeOrdered(dec)
	if err != nil {
		return fmt.Errorf("salesforce: decode record: %w", err)
	}
	rec, ok := v.(*Record)
	if !ok {
		return fmt.Errorf("salesforce: record must be a JSON object, got %T", v)
	}
	*r = *rec
	return nil
}

// MarshalJSON encodes the record's fields in their recorded order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("salesforce: marshal record field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrdered consumes one JSON value from dec. Objects become *Record,
// arrays []any, scalars their json.Token form (string, json.Number, bool, nil).
func decodeOrdered(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		rec := NewRecord()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T, want string", keyTok)
			}
			val, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			rec.Set(key, val)
		}
		// consume the closing '}'
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return rec, nil

	case '[':
		arr := make([]any, 0)
		for dec.More() {
			val, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		// consume the closing ']'
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}
