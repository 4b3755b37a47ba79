// Package cursor encodes and decodes the opaque continuation tokens used by
// every list endpoint. A token carries the last-seen sort key plus a hash of
// the filter set it was minted under, so replaying it with different filters
// fails instead of silently skipping or repeating rows.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"hash/fnv"
)

// ErrInvalid is returned for malformed tokens and for tokens minted under a
// different filter combination. Callers map it to a 400-equivalent response.
var ErrInvalid = errors.New("invalid page token")

// Key is the sort-position anchor: the last-seen primary sort value and the
// tie-breaking id. Iteration resumes strictly after this key.
type Key struct {
	Primary string `json:"p"`
	ID      string `json:"id"`
}

type payload struct {
	Filter  uint32 `json:"f"`
	Primary string `json:"p"`
	ID      string `json:"id"`
}

func filterHash(scope string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(scope))
	return h.Sum32()
}

// Encode produces an opaque token binding the key to the given filter scope.
func Encode(scope string, k Key) string {
	raw, _ := json.Marshal(payload{
		Filter:  filterHash(scope),
		Primary: k.Primary,
		ID:      k.ID,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode reverses Encode. Any malformed input, and any token whose bound
// filter scope does not match, yields ErrInvalid.
func Decode(scope, token string) (Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Key{}, ErrInvalid
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Key{}, ErrInvalid
	}
	if p.Filter != filterHash(scope) {
		return Key{}, ErrInvalid
	}
	return Key{Primary: p.Primary, ID: p.ID}, nil
}
