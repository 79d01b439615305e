package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iudanet/matswap/internal/models"
)

// saveRecordScript атомарно сохраняет запись и запоминает порядок вставки.
// KEYS[1]: hash записей, KEYS[2]: список id в порядке вставки
// ARGV[1]: id, ARGV[2]: JSON записи
var saveRecordScript = goredis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
    redis.call("RPUSH", KEYS[2], ARGV[1])
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// SaveRecord stores or overwrites a record by its ID
func (s *Storage) SaveRecord(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	keys := []string{s.catalogKey(), s.catalogOrderKey()}
	if err := saveRecordScript.Run(ctx, s.rdb, keys, record.ID, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// ListRecords returns all stored records in insertion order
func (s *Storage) ListRecords(ctx context.Context) ([]*models.Record, error) {
	ids, err := s.rdb.LRange(ctx, s.catalogOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read record order: %w", err)
	}

	records := make([]*models.Record, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	values, err := s.rdb.HMGet(ctx, s.catalogKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id в списке без записи в hash: пропускаем
			continue
		}

		record := &models.Record{}
		if err := json.Unmarshal([]byte(raw), record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", ids[i], err)
		}
		records = append(records, record)
	}

	return records, nil
}
