package models

import (
	"encoding/json"
	"io"
)

// Record is one loosely-typed row as the vendor returned it. The API adds
// and renames fields without notice, so rows stay maps until the storage
// layer filters them against the authoritative table schema.
type Record = map[string]interface{}

// DecodeJSON decodes vendor JSON into out with numbers kept as json.Number.
// Wildberries ids (rrd_id, shk_id) do not survive a float64 round trip.
func DecodeJSON(r io.Reader, out interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(out)
}

// Number extracts a numeric field from a record, tolerating absent keys.
func Number(rec Record, key string) (json.Number, bool) {
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// String extracts a string field from a record, tolerating absent keys.
func String(rec Record, key string) (string, bool) {
	v, ok := rec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
