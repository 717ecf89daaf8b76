package postgres

import "github.com/andresuchdata/restock-engine/internal/repository"

// Store bundles the postgres repositories into a single backend.
type Store struct {
	*inventoryRepository
	*referenceRepository
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{
		inventoryRepository: NewInventoryRepository(db),
		referenceRepository: NewReferenceRepository(db),
	}
}
