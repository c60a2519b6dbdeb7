package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

const (
	DriverMemory = "memory"
	DriverBadger = "badger"
)

// Option configures the storage backing both services.
type Option struct {
	// Driver is "memory" or "badger".
	Driver string `yaml:"driver" validate:"oneof=memory badger"`
	// Path is the badger directory. Empty runs badger in memory.
	Path string `yaml:"path"`
	// DataFile overrides the embedded seed dataset.
	DataFile string `yaml:"data_file"`
}

// PostRepository is the read-only view the posts service needs.
type PostRepository interface {
	ListPosts(ctx context.Context) ([]Post, error)
}

// CommentRepository is the read-only view the comments service needs.
type CommentRepository interface {
	ListComments(ctx context.Context) ([]Comment, error)
}

// Store is a read-only repository over a Dataset. Implementations are seeded once
// and never mutated afterwards, so they are safe for concurrent use.
type Store interface {
	PostRepository
	CommentRepository
	Close() error
}

// Open builds the store selected by opt and seeds it with ds.
func Open(opt Option, ds Dataset) (Store, error) {
	switch opt.Driver {
	case "", DriverMemory:
		return NewMemoryStore(ds), nil
	case DriverBadger:
		return NewBadgerStore(opt.Path, ds)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opt.Driver)
	}
}
