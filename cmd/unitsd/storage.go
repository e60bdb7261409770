package main

import (
	"fmt"

	"github.com/units-io/units/config"
	"github.com/units-io/units/core/rawdb"
)

// openStorage opens the ObjectStorage/ProofStorage pair named by
// cfg.Type, returning a close func that's a no-op for the in-memory
// backend.
func openStorage(cfg config.StorageConfig) (rawdb.ObjectStorage, rawdb.ProofStorage, func() error, error) {
	switch cfg.Type {
	case config.StorageMemory:
		store := rawdb.NewMemoryStore()
		return store, store, func() error { return nil }, nil
	case config.StorageFile:
		store, err := rawdb.OpenFileObjectStore(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unitsd: unknown storage type %q", cfg.Type)
	}
}
