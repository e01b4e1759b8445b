package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/samber/oops"
)

// ErrCorruptRecord is returned when a persisted blob cannot be decoded into a [Record].
var ErrCorruptRecord = errors.New("corrupt session record")

// ErrNotFound is returned by [Store.Load] when no record is persisted.
var ErrNotFound = errors.New("session record not found")

// Record is the persisted form of a login: the session token and the backend's user object.
type Record struct {
	Token    string         `json:"token"`
	UserData map[string]any `json:"userData"`
}

// Provider returns the "provider" entry of UserData when it is a string.
func (r Record) Provider() (string, bool) {
	p, ok := r.UserData["provider"].(string)
	return p, ok
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	return Record{Token: r.Token, UserData: CloneMap(r.UserData)}
}

// Encode renders r as JSON.
func Encode(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, oops.Code("SESSION_ENCODE").Wrap(err)
	}
	return data, nil
}

// Decode parses a blob produced by [Encode]. A blob that is not a JSON object yields
// [ErrCorruptRecord]. Missing fields decode to their zero values. Numbers in UserData decode
// as [json.Number] and re-encode unchanged.
func Decode(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return Record{}, oops.Code("SESSION_DECODE").Wrap(errors.Join(ErrCorruptRecord, err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Record{}, oops.Code("SESSION_DECODE").Wrap(errors.Join(ErrCorruptRecord, errors.New("trailing data")))
	}
	return r, nil
}

// CloneMap deep-copies JSON-shaped values: nested maps and slices are copied, scalars shared.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
