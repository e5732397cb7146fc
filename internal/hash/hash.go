package hash

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Key serializes v and returns "<namespace>:<fnv64a hex>".
// Equal values always produce equal keys, so it is safe for cache lookups.
func Key(namespace string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}

	h := fnv.New64a()
	h.Write([]byte(namespace)) // nolint:errcheck
	h.Write([]byte{0})         // nolint:errcheck
	h.Write(data)              // nolint:errcheck

	return fmt.Sprintf("%s:%x", namespace, h.Sum64()), nil
}
