package store

import (
	"context"
	"slices"
)

// MemoryStore keeps the dataset in process memory.
type MemoryStore struct {
	posts    []Post
	comments []Comment
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ds Dataset) *MemoryStore {
	return &MemoryStore{
		posts:    clonePosts(ds.Posts),
		comments: slices.Clone(ds.Comments),
	}
}

// ListPosts returns a copy of every post in insertion order.
func (s *MemoryStore) ListPosts(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return clonePosts(s.posts), nil
}

// ListComments returns a copy of every comment in storage order.
func (s *MemoryStore) ListComments(ctx context.Context) ([]Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.comments), nil
}

func (s *MemoryStore) Close() error {
	return nil
}
