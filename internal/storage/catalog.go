package storage

import (
	"context"

	"github.com/iudanet/matswap/internal/models"
)

// CatalogStorage defines the custom-catalog-entries slot.
// Built-in seed records are not persisted, only records inserted at runtime.
type CatalogStorage interface {
	// SaveRecord stores or overwrites a record by its ID.
	// Overwrite keeps the original insertion position.
	SaveRecord(ctx context.Context, record *models.Record) error

	// ListRecords returns all stored records in insertion order
	ListRecords(ctx context.Context) ([]*models.Record, error)
}

// Storage is a complete backend for one installation
type Storage interface {
	AuthStorage
	CatalogStorage

	// Ping проверяет доступность хранилища (health check)
	Ping(ctx context.Context) error
	Close() error
}
