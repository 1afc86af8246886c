// Package chainkv wraps CometBFT's dbm.DB to back the certificate
// registry's state accessor (pkg/state). Adapted from the validator
// platform's pkg/kvdb.KVAdapter: same Get/Set shape, generalized with
// Delete for the state accessor's bucket deletes. There is no iterator.
package chainkv

import (
	dbm "github.com/cometbft/cometbft-db"
)

// KV is the storage abstraction the state accessor depends on. A bucket
// lives at one key (the address); the accessor never needs anything more
// than byte get/set/delete.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Adapter wraps a CometBFT dbm.DB and exposes the KV interface.
type Adapter struct {
	db dbm.DB
}

// NewAdapter creates a new Adapter for the given underlying DB.
func NewAdapter(db dbm.DB) *Adapter {
	return &Adapter{db: db}
}

// Get implements KV.Get.
func (a *Adapter) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	// v may be nil if key not found - the state accessor treats nil as
	// "bucket absent".
	return v, nil
}

// Set implements KV.Set.
func (a *Adapter) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.SetSync(key, value)
}

// Delete implements KV.Delete.
func (a *Adapter) Delete(key []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.DeleteSync(key)
}
