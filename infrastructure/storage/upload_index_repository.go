package storage

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.UploadIndexStore = (*UploadIndexRepository)(nil)

// firstUploadIndex is handed to a slot that never uploaded anything.
const firstUploadIndex = 1

// UploadIndexRepository keeps one monotonic counter per slot.
// It names temporary chunk files so two runs of a slot never reuse a name.
type UploadIndexRepository struct {
	db *badger.DB
}

func NewUploadIndexRepository(db *badger.DB) *UploadIndexRepository {
	return &UploadIndexRepository{db: db}
}

func (r UploadIndexRepository) Load(slot domain.SlotID) (uint64, error) {
	index := uint64(firstUploadIndex)
	err := r.db.View(func(txn *badger.Txn) error {
		stored, found, err := readIndex(txn, slot)
		if err != nil {
			return err
		}
		if found {
			index = stored
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("load upload index of slot %d: %w", slot, err)
	}
	return index, nil
}

func (r UploadIndexRepository) Raise(slot domain.SlotID, index uint64) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return raiseIndex(txn, slot, index)
	})
	if err != nil {
		return fmt.Errorf("raise upload index of slot %d: %w", slot, err)
	}
	return nil
}
