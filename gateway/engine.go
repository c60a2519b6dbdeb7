package gateway

import (
	"fmt"

	"github.com/graphql-go/graphql"
)

// executionEngine bundles the read-only parts needed to serve GraphQL requests.
// A gateway never mutates it; re-registering upstreams builds a new one.
type executionEngine struct {
	schema graphql.Schema
}

// buildEngine wires the resolvers to the given service APIs and compiles the
// embedded schema around them.
func buildEngine(settings GatewayOption, posts PostsAPI, comments CommentsAPI) (*executionEngine, error) {
	if posts == nil || comments == nil {
		return nil, fmt.Errorf("posts and comments APIs are required")
	}

	r := &resolver{
		posts:      posts,
		comments:   comments,
		pagination: settings.Pagination,
	}

	schema, err := buildSchema(schemaSDL, r.resolvers())
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway schema: %w", err)
	}

	return &executionEngine{schema: schema}, nil
}
