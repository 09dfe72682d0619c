package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/specrun/internal/canon"
)

// marshalStrings converts a path or trace to canonical JSON TEXT for storage.
// A nil slice is stored as [].
func marshalStrings(field string, ss []string) (string, error) {
	data, err := canon.Marshal(ss)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", field, err)
	}
	return string(data), nil
}

// unmarshalStrings is the inverse of marshalStrings.
func unmarshalStrings(field, text string) ([]string, error) {
	var ss []string
	if err := json.Unmarshal([]byte(text), &ss); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return ss, nil
}
