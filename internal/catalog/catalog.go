// Package catalog implements the barcode-keyed record store.
//
// A Catalog is created by the composition root and passed to whoever needs it.
// Reads may run concurrently, inserts are serialized.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/internal/storage"
	"github.com/iudanet/matswap/internal/validation"
)

// Catalog хранит записи каталога в памяти в порядке вставки
type Catalog struct {
	store   storage.CatalogStorage // nil: пользовательские записи не сохраняются
	logger  *slog.Logger
	records map[string]*models.Record
	order   []string // id в порядке первой вставки
	mu      sync.RWMutex
}

// New создает каталог со встроенным набором записей и загружает
// пользовательские записи из store (если он задан).
func New(ctx context.Context, store storage.CatalogStorage, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Catalog{
		store:   store,
		logger:  logger,
		records: make(map[string]*models.Record),
	}

	for _, r := range builtinRecords() {
		c.put(r)
	}

	if store == nil {
		return c, nil
	}

	custom, err := store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load custom catalog entries: %w", err)
	}

	for _, r := range custom {
		// запись в хранилище могла быть испорчена вручную
		if !validation.IsValidID(r.ID) {
			logger.WarnContext(ctx, "Skipping stored catalog entry with invalid barcode",
				slog.String("id", r.ID))
			continue
		}
		c.put(r)
	}

	logger.DebugContext(ctx, "Catalog loaded",
		slog.Int("records", len(c.order)),
		slog.Int("custom", len(custom)))

	return c, nil
}

// put сохраняет запись, сохраняя позицию уже существующего id. Вызывается под mu.
func (c *Catalog) put(r *models.Record) {
	if _, exists := c.records[r.ID]; !exists {
		c.order = append(c.order, r.ID)
	}
	c.records[r.ID] = r.Clone()
}

// Lookup returns the record stored under id.
// The second result is false if id is not a valid barcode or nothing is stored under it.
func (c *Catalog) Lookup(id string) (*models.Record, bool) {
	if !validation.IsValidID(id) {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.records[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Insert stores {id, fields}, replacing any record under the same id entirely.
// Fields are not validated here: empty name or image are accepted.
func (c *Catalog) Insert(ctx context.Context, id string, fields models.RecordFields) error {
	if err := validation.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	expected, _ := validation.TypeForID(id)
	if fields.Type != expected {
		return fmt.Errorf("%w: %s requires type %q, got %q", ErrTypeMismatch, id, expected, fields.Type)
	}

	record := models.NewRecord(id, fields)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Сначала сохраняем, чтобы при ошибке записи память осталась прежней
	if c.store != nil {
		if err := c.store.SaveRecord(ctx, record); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist catalog entry",
				slog.String("id", id),
				slog.Any("error", err))
			return fmt.Errorf("failed to save record %s: %w", id, err)
		}
	}

	_, existed := c.records[id]
	c.put(record)

	c.logger.InfoContext(ctx, "Catalog entry stored",
		slog.String("id", id),
		slog.String("type", string(fields.Type)),
		slog.Bool("overwrite", existed))

	return nil
}

// ListByType returns records of the given type in insertion order.
// Unknown types yield an empty slice.
func (c *Catalog) ListByType(t models.RecordType) []*models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*models.Record, 0)
	for _, id := range c.order {
		r := c.records[id]
		if r.Type == t {
			result = append(result, r.Clone())
		}
	}
	return result
}

// Contains reports whether a record is stored under id
func (c *Catalog) Contains(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Len returns the number of records
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// GenerateID suggests the next free barcode for the type:
// the highest numeric suffix in use plus one, zero-padded to three digits.
func (c *Catalog) GenerateID(t models.RecordType) (string, error) {
	prefix, ok := validation.PrefixForType(t)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	highest := 0
	for _, id := range c.order {
		num, found := strings.CutPrefix(id, prefix+"-")
		if !found {
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}

	return fmt.Sprintf("%s-%03d", prefix, highest+1), nil
}

// ResolvePair resolves a style and a material barcode for a swap description.
func (c *Catalog) ResolvePair(styleID, materialID string) (*models.SwapPair, error) {
	style, err := c.resolve(styleID, models.RecordTypeStyle)
	if err != nil {
		return nil, err
	}

	material, err := c.resolve(materialID, models.RecordTypeMaterial)
	if err != nil {
		return nil, err
	}

	return &models.SwapPair{Style: style, Material: material}, nil
}

func (c *Catalog) resolve(id string, t models.RecordType) (*models.Record, error) {
	if !validation.IsValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, id)
	}

	r, ok := c.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	if r.Type != t {
		return nil, fmt.Errorf("%w: %s is %q, expected %q", ErrTypeMismatch, id, r.Type, t)
	}

	return r, nil
}
