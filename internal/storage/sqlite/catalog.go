package sqlite

import (
	"context"
	"fmt"

	"github.com/iudanet/matswap/internal/models"
)

// SaveRecord stores or overwrites a record by its ID.
// ON CONFLICT ... DO UPDATE сохраняет seq, а значит и позицию вставки.
func (s *Storage) SaveRecord(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	query := `
		INSERT INTO catalog_entries (id, type, name, image_url, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			image_url = excluded.image_url,
			description = excluded.description
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		string(record.Type),
		record.Name,
		record.ImageURL,
		record.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	return nil
}

// ListRecords returns all stored records in insertion order
func (s *Storage) ListRecords(ctx context.Context) ([]*models.Record, error) {
	query := `
		SELECT id, type, name, image_url, description
		FROM catalog_entries
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Record, 0)
	for rows.Next() {
		var (
			record  models.Record
			typeStr string
		)
		if err := rows.Scan(&record.ID, &typeStr, &record.Name, &record.ImageURL, &record.Description); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.Type = models.RecordType(typeStr)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}
