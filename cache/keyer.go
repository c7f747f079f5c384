package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// ListKey returns the cache key for a query result. criteria is the
// canonical form of a normalized filter set; two filter sets that select
// the same items in the same order must produce equal maps.
//
// Format: list:<first 16 hex chars of SHA-256 over sorted-key JSON>
func ListKey(criteria map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, criteria); err != nil {
		return "", fmt.Errorf("cache: encode list criteria: %w", err)
	}
	sum := sha256.Sum256(buf.Bytes())
	return KeyPrefixList + hex.EncodeToString(sum[:8]), nil
}

// writeCanonical writes v as JSON with object keys sorted at every depth.
func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
