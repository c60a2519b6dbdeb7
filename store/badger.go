package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	postKeyPrefix    = "post:"
	commentKeyPrefix = "comment:"
)

// BadgerStore serves the dataset from badger. Keys carry the zero-padded position of
// each record so that prefix iteration yields storage order.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// NewBadgerStore opens badger at path (in memory when path is empty), drops whatever
// it held and writes ds.
func NewBadgerStore(path string, ds Dataset) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}

	s := &BadgerStore{db: db}
	if err := s.seed(ds); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *BadgerStore) seed(ds Dataset) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("failed to drop existing data: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for i, p := range ds.Posts {
			if err := setEntity(txn, recordKey(postKeyPrefix, i), p); err != nil {
				return err
			}
		}
		for i, c := range ds.Comments {
			if err := setEntity(txn, recordKey(commentKeyPrefix, i), c); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerStore) ListPosts(ctx context.Context) ([]Post, error) {
	posts := make([]Post, 0)
	err := scan(ctx, s.db, postKeyPrefix, func(val []byte) error {
		var p Post
		if err := json.Unmarshal(val, &p); err != nil {
			return fmt.Errorf("failed to unmarshal post: %w", err)
		}
		posts = append(posts, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *BadgerStore) ListComments(ctx context.Context) ([]Comment, error) {
	comments := make([]Comment, 0)
	err := scan(ctx, s.db, commentKeyPrefix, func(val []byte) error {
		var c Comment
		if err := json.Unmarshal(val, &c); err != nil {
			return fmt.Errorf("failed to unmarshal comment: %w", err)
		}
		comments = append(comments, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func recordKey(prefix string, pos int) []byte {
	return []byte(fmt.Sprintf("%s%010d", prefix, pos))
}

func setEntity(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return txn.Set(key, data)
}

func scan(ctx context.Context, db *badger.DB, prefix string, fn func(val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(val); err != nil {
				return err
			}
		}
		return nil
	})
}
