// Package state implements the container-bucket state accessor:
// get(kind, id) and set(kind, id, entity) for every entity kind, each
// backed by a read-modify-write of the whole bucket at address(kind, id).
// Delete is provided for agents only (DeleteAgent); the other kinds have
// no delete method.
// Every accessor method re-fetches the container, scans for the
// primary key, and re-serializes the whole bucket on write.
package state

import (
	"sort"

	"github.com/certen/cert-registry/pkg/chainkv"
	"github.com/certen/cert-registry/pkg/registry"
)

// Store is the state accessor. It holds no entity-specific state of its
// own; all state lives in the underlying KV.
type Store struct {
	kv chainkv.KV
}

// New returns a Store backed by the given KV.
func New(kv chainkv.KV) *Store {
	return &Store{kv: kv}
}

// bucketGet reads and decodes the container at addr; an absent address
// decodes to an empty container. bucketPut encodes and writes it back.
func bucketGet[T any](s *Store, addr string) (registry.Container[T], error) {
	raw, err := s.kv.Get([]byte(addr))
	if err != nil {
		return registry.Container[T]{}, err
	}
	return registry.Decode[T](raw)
}

func bucketPut[T any](s *Store, addr string, c registry.Container[T]) error {
	raw, err := registry.Encode(c)
	if err != nil {
		return err
	}
	return s.kv.Set([]byte(addr), raw)
}

// getEntry scans a container for the entry whose key matches id and
// returns it plus the index it was found at (-1 if absent).
func getEntry[T any](c registry.Container[T], keyOf func(T) string, id string) (T, int) {
	for i, e := range c.Entries {
		if keyOf(e) == id {
			return e, i
		}
	}
	var zero T
	return zero, -1
}

// setEntry replaces the entry with the same primary key if present,
// otherwise inserts preserving sort order by primary key.
func setEntry[T any](c registry.Container[T], keyOf func(T) string, entity T) registry.Container[T] {
	id := keyOf(entity)
	for i, e := range c.Entries {
		if keyOf(e) == id {
			c.Entries[i] = entity
			return c
		}
	}
	c.Entries = append(c.Entries, entity)
	sort.Slice(c.Entries, func(i, j int) bool {
		return keyOf(c.Entries[i]) < keyOf(c.Entries[j])
	})
	return c
}

// deleteEntry removes the entry with the given primary key, if present.
func deleteEntry[T any](c registry.Container[T], keyOf func(T) string, id string) registry.Container[T] {
	out := c.Entries[:0]
	for _, e := range c.Entries {
		if keyOf(e) != id {
			out = append(out, e)
		}
	}
	c.Entries = out
	return c
}
