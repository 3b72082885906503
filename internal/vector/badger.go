package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const chunkPrefix = "chunk:"

type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(dbPath string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable logging, the TUI owns the terminal
	return openBadger(opts)
}

// NewInMemoryBadgerStore opens a throwaway store, used by tests
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts)
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func chunkKey(id string) []byte {
	return []byte(chunkPrefix + id)
}

func (s *BadgerStore) StoreChunks(ctx context.Context, chunks []Chunk) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if chunk.ID == "" {
			return fmt.Errorf("chunk %d of %s has no id", chunk.Index, chunk.Source)
		}

		data, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk: %w", err)
		}

		if err := wb.Set(chunkKey(chunk.ID), data); err != nil {
			return fmt.Errorf("failed to stage chunk: %w", err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to write chunks: %w", err)
	}
	return nil
}

func (s *BadgerStore) SearchSimilar(ctx context.Context, queryEmbedding []float32, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	chunks, err := s.loadChunks(ctx)
	if err != nil {
		return nil, err
	}

	return rankChunks(queryEmbedding, chunks, topK), nil
}

// loadChunks reads every stored chunk in key order
func (s *BadgerStore) loadChunks(ctx context.Context) ([]Chunk, error) {
	var chunks []Chunk
	prefix := []byte(chunkPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var chunk Chunk
				if err := json.Unmarshal(val, &chunk); err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve chunks: %w", err)
	}

	return chunks, nil
}

func (s *BadgerStore) CountChunks(ctx context.Context) (int, error) {
	count := 0
	prefix := []byte(chunkPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

func (s *BadgerStore) DeleteSource(ctx context.Context, source string) (int, error) {
	chunks, err := s.loadChunks(ctx)
	if err != nil {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	deleted := 0
	for _, chunk := range chunks {
		if chunk.Source != source {
			continue
		}
		if err := wb.Delete(chunkKey(chunk.ID)); err != nil {
			return 0, fmt.Errorf("failed to delete chunk: %w", err)
		}
		deleted++
	}

	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to delete chunks of %s: %w", source, err)
	}
	return deleted, nil
}

func (s *BadgerStore) Clear(ctx context.Context) error {
	if err := s.db.DropPrefix([]byte(chunkPrefix)); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
