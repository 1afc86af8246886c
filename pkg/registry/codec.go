package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Container is an ordered collection of entities of one kind, sorted by
// the kind's primary key, stored whole at one address.
type Container[T any] struct {
	Entries []T `json:"entries"`
}

// Encode produces the canonical, deterministic byte encoding of a
// container. Determinism requires the caller to have already sorted
// Entries by primary key (pkg/state does this on every write).
func Encode[T any](c Container[T]) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode container: %w", err)
	}
	return b, nil
}

// Decode parses a container's byte encoding, rejecting unknown fields
// anywhere in the structure. An empty/nil input decodes to an empty
// container, matching the state accessor's "absent address is an empty
// bucket" rule.
func Decode[T any](data []byte) (Container[T], error) {
	var c Container[T]
	if len(data) == 0 {
		return c, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Container[T]{}, fmt.Errorf("decode container: %w", err)
	}
	return c, nil
}
