package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-rest-gateway/service"
	"github.com/n9te9/go-graphql-rest-gateway/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedComments() []store.Comment {
	return store.SeedDataset().Comments
}

type failingRepo struct{}

func (failingRepo) ListPosts(context.Context) ([]store.Post, error) {
	return nil, errors.New("disk on fire")
}

func (failingRepo) ListComments(context.Context) ([]store.Comment, error) {
	return nil, errors.New("disk on fire")
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func commentIDs(t *testing.T, w *httptest.ResponseRecorder) []int {
	t.Helper()
	var comments []store.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	ids := make([]int, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestPostsHandler_List(t *testing.T) {
	h := service.NewPostsHandler(store.NewMemoryStore(store.SeedDataset()), nil, nil)

	w := get(t, h, "/posts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var posts []store.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	assert.Equal(t, store.SeedDataset().Posts, posts)
}

func TestPostsHandler_RepositoryError(t *testing.T) {
	h := service.NewPostsHandler(failingRepo{}, nil, nil)

	w := get(t, h, "/posts")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPostsHandler_MethodNotAllowed(t *testing.T) {
	h := service.NewPostsHandler(store.NewMemoryStore(store.SeedDataset()), nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCommentsHandler_List(t *testing.T) {
	h := service.NewCommentsHandler(store.NewMemoryStore(store.SeedDataset()), service.Option{}, nil, nil)

	tests := []struct {
		name   string
		target string
		want   []int
	}{
		{name: "no filter keeps storage order", target: "/comments", want: []int{1, 3, 2}},
		{name: "id set keeps storage order", target: "/comments?id=2,1", want: []int{1, 2}},
		{name: "post id", target: "/comments?postId=2", want: []int{3}},
		{name: "id set wins over post id", target: "/comments?id=1&postId=2", want: []int{1}},
		{name: "non numeric id matches nothing", target: "/comments?id=abc", want: []int{}},
		{name: "non numeric post id matches nothing", target: "/comments?postId=abc", want: []int{}},
		{name: "partially numeric id set", target: "/comments?id=3,abc", want: []int{3}},
		{name: "empty id is unfiltered", target: "/comments?id=", want: []int{1, 3, 2}},
		{name: "unknown ids", target: "/comments?id=42", want: []int{}},
		{name: "hex id", target: "/comments?id=0x1", want: []int{1}},
		{name: "hex post id", target: "/comments?postId=0x2", want: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, h, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, commentIDs(t, w))
		})
	}
}

func TestCommentsHandler_EmptyResultIsArray(t *testing.T) {
	h := service.NewCommentsHandler(store.NewMemoryStore(store.SeedDataset()), service.Option{}, nil, nil)

	w := get(t, h, "/comments?postId=99")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCommentsHandler_IDSetReturnsForeignParent(t *testing.T) {
	h := service.NewCommentsHandler(store.NewMemoryStore(store.SeedDataset()), service.Option{}, nil, nil)

	w := get(t, h, "/comments?id=1&postId=2")
	var comments []store.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, store.Comment{ID: 1, PostID: 1, User: "user3", Comment: "Well Done!"}, comments[0])
}

func TestCommentsHandler_StrictFilters(t *testing.T) {
	h := service.NewCommentsHandler(store.NewMemoryStore(store.SeedDataset()), service.Option{StrictFilters: true}, nil, nil)

	w := get(t, h, "/comments?id=1,abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid id-set filter"}`, w.Body.String())

	w = get(t, h, "/comments?id=1,2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{1, 2}, commentIDs(t, w))
}

func TestCommentsHandler_RepositoryError(t *testing.T) {
	h := service.NewCommentsHandler(failingRepo{}, service.Option{}, nil, nil)

	w := get(t, h, "/comments")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	repo := store.NewMemoryStore(store.SeedDataset())
	for name, h := range map[string]http.Handler{
		"posts":    service.NewPostsHandler(repo, nil, nil),
		"comments": service.NewCommentsHandler(repo, service.Option{}, nil, nil),
	} {
		t.Run(name, func(t *testing.T) {
			w := get(t, h, "/health")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
		})
	}
}
