package gateway

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/n9te9/go-graphql-rest-gateway/store"
	"github.com/n9te9/go-graphql-rest-gateway/upstream"
)

const (
	defaultPageLimit  = 10
	defaultPageOffset = 0
)

// PostsAPI is what the gateway needs from the posts service.
type PostsAPI interface {
	ListPosts(ctx context.Context) ([]store.Post, error)
}

// CommentsAPI is what the gateway needs from the comments service.
type CommentsAPI interface {
	ListComments(ctx context.Context, q upstream.CommentsQuery) ([]store.Comment, error)
}

// PaginationOption controls the limit and offset arguments of comment lists.
// When disabled the arguments are accepted and ignored, matching the legacy gateway.
type PaginationOption struct {
	Enable       bool `yaml:"enable"`
	DefaultLimit int  `yaml:"default_limit" validate:"gte=0"`
}

type resolver struct {
	posts      PostsAPI
	comments   CommentsAPI
	pagination PaginationOption
}

func (r *resolver) resolvers() map[string]graphql.FieldResolveFn {
	return map[string]graphql.FieldResolveFn{
		"Query.posts":    r.queryPosts,
		"Query.comments": r.queryComments,
		"Post.comments":  r.postComments,
	}
}

func (r *resolver) queryPosts(p graphql.ResolveParams) (interface{}, error) {
	return r.posts.ListPosts(p.Context)
}

func (r *resolver) queryComments(p graphql.ResolveParams) (interface{}, error) {
	comments, err := r.comments.ListComments(p.Context, upstream.CommentsQuery{})
	if err != nil {
		return nil, err
	}
	return r.paginate(comments, p.Args)
}

type commentsResult struct {
	comments []store.Comment
	err      error
}

// postComments fetches the comments embedded in the parent post with one call per
// post. The call starts immediately and the returned thunk waits for it, so sibling
// posts are fetched concurrently.
func (r *resolver) postComments(p graphql.ResolveParams) (interface{}, error) {
	post, ok := sourcePost(p.Source)
	if !ok {
		return nil, fmt.Errorf("unexpected source %T for Post.comments", p.Source)
	}

	ch := make(chan commentsResult, 1)
	go func() {
		comments, err := r.comments.ListComments(p.Context, upstream.IDSet(post.Comments))
		ch <- commentsResult{comments: comments, err: err}
	}()

	return func() (interface{}, error) {
		res := <-ch
		if res.err != nil {
			return nil, res.err
		}
		return r.paginate(res.comments, p.Args)
	}, nil
}

func sourcePost(src interface{}) (store.Post, bool) {
	switch v := src.(type) {
	case store.Post:
		return v, true
	case *store.Post:
		if v != nil {
			return *v, true
		}
	}
	return store.Post{}, false
}

func (r *resolver) paginate(comments []store.Comment, args map[string]interface{}) ([]store.Comment, error) {
	if !r.pagination.Enable {
		return comments, nil
	}

	limit := r.pagination.DefaultLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := defaultPageOffset

	if v, ok := args["limit"].(int); ok {
		limit = v
	}
	if v, ok := args["offset"].(int); ok {
		offset = v
	}
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("limit and offset must not be negative")
	}

	if offset >= len(comments) {
		return []store.Comment{}, nil
	}
	end := min(offset+limit, len(comments))
	return comments[offset:end], nil
}
