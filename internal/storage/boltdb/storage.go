package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/matswap/internal/storage"
)

var (
	// BoltDB bucket names, по одному на логический слот
	bucketCredentials = []byte("admin-credentials")
	bucketSession     = []byte("auth-session")
	bucketAttempts    = []byte("failed-attempts")
	bucketCatalog     = []byte("custom-catalog-entries")

	allBuckets = [][]byte{bucketCredentials, bucketSession, bucketAttempts, bucketCatalog}

	// ключ единственной записи в singleton-слотах
	currentKey = []byte("current")
)

// Storage represents BoltDB storage implementation
type Storage struct {
	db *bbolt.DB
}

// Compile-time check that Storage implements storage.Storage
var _ storage.Storage = (*Storage)(nil)

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping проверяет, что файл открыт и читается
func (s *Storage) Ping(ctx context.Context) error {
	return s.view(func(tx *bbolt.Tx) error {
		_, err := bucket(tx, bucketCredentials)
		return err
	})
}

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// update и view проверяют, что хранилище не закрыто
func (s *Storage) update(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(fn)
}

func (s *Storage) view(fn func(tx *bbolt.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(fn)
}

// bucket возвращает bucket или ошибку, если его удалили
func bucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%s bucket not found", name)
	}
	return b, nil
}
