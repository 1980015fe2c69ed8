package storage

import (
	"chunk-relay/domain"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	resumePrefix  = "resume:"
	indexPrefix   = "index:"
	catalogPrefix = "catalog:"
)

// Slot numbers are zero padded so prefix scans return slots in order.
func resumeKey(slot domain.SlotID) []byte {
	return []byte(fmt.Sprintf("%s%04d", resumePrefix, slot))
}

func indexKey(slot domain.SlotID) []byte {
	return []byte(fmt.Sprintf("%s%04d", indexPrefix, slot))
}

func slotFromKey(key []byte, prefix string) (domain.SlotID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(string(key), prefix))
	if err != nil {
		return 0, fmt.Errorf("malformed key %q: %w", key, err)
	}
	return domain.SlotID(n), nil
}

// NUL never appears in a segment, so keys sort like LogicalPath.Compare.
func catalogKey(path domain.LogicalPath) []byte {
	return []byte(catalogPrefix + strings.Join(path, "\x00"))
}

func readIndex(txn *badger.Txn, slot domain.SlotID) (uint64, bool, error) {
	item, err := txn.Get(indexKey(slot))
	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var index uint64
	err = item.Value(func(v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("upload index of slot %d has %d bytes", slot, len(v))
		}
		index = binary.BigEndian.Uint64(v)
		return nil
	})
	return index, true, err
}

// raiseIndex never lowers the counter: a reused upload index could collide with a blob name still on the remote side.
func raiseIndex(txn *badger.Txn, slot domain.SlotID, index uint64) error {
	current, found, err := readIndex(txn, slot)
	if err != nil {
		return err
	}
	if found && current >= index {
		return nil
	}
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], index)
	return txn.Set(indexKey(slot), v[:])
}
