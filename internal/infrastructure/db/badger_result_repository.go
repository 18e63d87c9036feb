// Package db internal/infrastructure/db/badger_result_repository.go
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/damon-houk/ratepivot/internal/domain/entity"
	"github.com/dgraph-io/badger/v3"
)

// BadgerResultRepository implements the pivot result repository interface using BadgerDB
type BadgerResultRepository struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerResultRepository creates a new BadgerDB result repository.
// Entries expire after ttl; zero keeps them until the database is removed.
func NewBadgerResultRepository(db *badger.DB, ttl time.Duration) *BadgerResultRepository {
	return &BadgerResultRepository{db: db, ttl: ttl}
}

// OpenBadger opens (or creates) a BadgerDB at dir with Badger's own logger disabled.
// An empty dir opens an in-memory database.
func OpenBadger(dir string) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = nil // Disable Badger's default logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Store saves a result under key
func (r *BadgerResultRepository) Store(ctx context.Context, key string, series []entity.PriceSeries) error {
	// Serialize result to JSON
	data, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal pivot result: %w", err)
	}

	// Store in BadgerDB
	err = r.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte("result:"+key), data)
		if r.ttl > 0 {
			e = e.WithTTL(r.ttl)
		}
		return txn.SetEntry(e)
	})

	if err != nil {
		return fmt.Errorf("failed to store pivot result: %w", err)
	}

	return nil
}

// Find retrieves a result by key
func (r *BadgerResultRepository) Find(ctx context.Context, key string) ([]entity.PriceSeries, bool, error) {
	var series []entity.PriceSeries

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("result:" + key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &series)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to retrieve pivot result: %w", err)
	}

	return series, true, nil
}
