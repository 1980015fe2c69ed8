package storage

import (
	"chunk-relay/contract"
	"chunk-relay/domain"
	"chunk-relay/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

var _ contract.ResumeStore = (*ResumeRepository)(nil)

// ResumeRepository holds at most one record per slot: the state reached after the last completed chunk.
type ResumeRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewResumeRepository(db *badger.DB, log *slog.Logger) *ResumeRepository {
	return &ResumeRepository{
		db:  db,
		log: log,
	}
}

// Save overwrites the record of the slot and raises its upload counter in the same transaction.
func (r ResumeRepository) Save(slot domain.SlotID, job domain.TransferJob) error {
	data := encodeJob(job)
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(resumeKey(slot), data); err != nil {
			return err
		}
		return raiseIndex(txn, slot, job.UploadIndex)
	})
	if err != nil {
		return fmt.Errorf("save resume record of slot %d: %w", slot, err)
	}
	return nil
}

// Load reports found=false when the slot has no record.
// A record that cannot be decoded yields ErrCorruptResumeRecord.
func (r ResumeRepository) Load(slot domain.SlotID) (domain.TransferJob, bool, error) {
	var job domain.TransferJob
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resumeKey(slot))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			decoded, err := decodeJob(v)
			if err != nil {
				return fmt.Errorf("%w: slot %d: %w", errors.ErrCorruptResumeRecord, slot, err)
			}
			job = decoded
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.TransferJob{}, false, nil
	}
	if err != nil {
		return domain.TransferJob{}, true, err
	}
	return job, true, nil
}

func (r ResumeRepository) Delete(slot domain.SlotID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(resumeKey(slot))
	})
	if err != nil {
		return fmt.Errorf("delete resume record of slot %d: %w", slot, err)
	}
	return nil
}

// Scan lists the records of slots 1..maxSlots in slot order.
// Undecodable records are returned with Err set, records of slots above maxSlots are left alone.
func (r ResumeRepository) Scan(maxSlots int) ([]domain.PendingRecovery, error) {
	var pending []domain.PendingRecovery
	prefix := []byte(resumePrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			slot, err := slotFromKey(item.Key(), resumePrefix)
			if err != nil {
				r.log.Warn("Skipping resume record with malformed key", "error", err)
				continue
			}
			if slot < 1 || int(slot) > maxSlots {
				r.log.Warn("Resume record outside the configured slots, leaving it untouched",
					"slot", slot, "max_sessions", maxSlots)
				continue
			}

			p := domain.PendingRecovery{Slot: slot}
			err = item.Value(func(v []byte) error {
				job, err := decodeJob(v)
				if err != nil {
					p.Err = fmt.Errorf("%w: slot %d: %w", errors.ErrCorruptResumeRecord, slot, err)
					return nil
				}
				p.Job = job
				return nil
			})
			if err != nil {
				return err
			}
			pending = append(pending, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan resume records: %w", err)
	}
	return pending, nil
}
