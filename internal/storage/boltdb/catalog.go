package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/iudanet/matswap/internal/models"
)

// storedRecord запись каталога вместе с порядковым номером вставки.
// BoltDB хранит ключи отсортированными, поэтому порядок вставки хранится отдельно.
type storedRecord struct {
	Record *models.Record `json:"record"`
	Seq    uint64         `json:"seq"`
}

// SaveRecord stores or overwrites a record by its ID
func (s *Storage) SaveRecord(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	return s.update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketCatalog)
		if err != nil {
			return err
		}

		key := []byte(record.ID)

		// При перезаписи сохраняем исходную позицию
		var seq uint64
		if existing := b.Get(key); existing != nil {
			var prev storedRecord
			if err := json.Unmarshal(existing, &prev); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			seq = prev.Seq
		} else {
			seq, err = b.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to allocate sequence: %w", err)
			}
		}

		data, err := json.Marshal(storedRecord{Record: record, Seq: seq})
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		if err := b.Put(key, data); err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}

		return nil
	})
}

// ListRecords returns all stored records in insertion order
func (s *Storage) ListRecords(ctx context.Context) ([]*models.Record, error) {
	var stored []storedRecord

	err := s.view(func(tx *bbolt.Tx) error {
		b, err := bucket(tx, bucketCatalog)
		if err != nil {
			return err
		}

		// Итерируемся по всем записям
		return b.ForEach(func(k, v []byte) error {
			var sr storedRecord
			if err := json.Unmarshal(v, &sr); err != nil {
				return fmt.Errorf("failed to unmarshal record %s: %w", k, err)
			}
			if sr.Record == nil {
				return fmt.Errorf("record %s is empty", k)
			}
			stored = append(stored, sr)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(stored, func(i, j int) bool { return stored[i].Seq < stored[j].Seq })

	records := make([]*models.Record, 0, len(stored))
	for _, sr := range stored {
		records = append(records, sr.Record)
	}

	return records, nil
}
