package service_test

import (
	"net/url"
	"testing"

	"github.com/n9te9/go-graphql-rest-gateway/service"
	"github.com/stretchr/testify/assert"
)

func TestParseCommentFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.CommentFilter
	}{
		{
			name:  "no filter",
			query: "",
			want:  service.CommentFilter{Kind: service.FilterAll},
		},
		{
			name:  "id set",
			query: "id=2,1",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{2, 1}},
		},
		{
			name:  "id set wins over post id",
			query: "id=1&postId=2",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{1}},
		},
		{
			name:  "empty id falls through to post id",
			query: "id=&postId=2",
			want:  service.CommentFilter{Kind: service.FilterPostID, PostID: 2},
		},
		{
			name:  "empty id and no post id is unfiltered",
			query: "id=",
			want:  service.CommentFilter{Kind: service.FilterAll},
		},
		{
			name:  "non numeric id tokens are kept as invalid",
			query: "id=1,abc",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{1}, Invalid: []string{"abc"}},
		},
		{
			name:  "blank id token reads as zero",
			query: "id=1,,%202%20",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{1, 0, 2}},
		},
		{
			name:  "integral decimal token",
			query: "id=3.0,1.5",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{3}, Invalid: []string{"1.5"}},
		},
		{
			name:  "post id reads leading digits",
			query: "postId=2abc",
			want:  service.CommentFilter{Kind: service.FilterPostID, PostID: 2},
		},
		{
			name:  "prefixed integer id tokens",
			query: "id=0x1,0X3,0o2,0b11",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{1, 3, 2, 3}},
		},
		{
			name:  "malformed prefixed id tokens",
			query: "id=-0x1,0x,0x%2B1,0xg",
			want:  service.CommentFilter{Kind: service.FilterIDSet, Invalid: []string{"-0x1", "0x", "0x+1", "0xg"}},
		},
		{
			name:  "exponent id token",
			query: "id=1e1,inf,NaN,1_0",
			want:  service.CommentFilter{Kind: service.FilterIDSet, IDs: []int{10}, Invalid: []string{"inf", "NaN", "1_0"}},
		},
		{
			name:  "hex post id",
			query: "postId=0x2z",
			want:  service.CommentFilter{Kind: service.FilterPostID, PostID: 2},
		},
		{
			name:  "signed hex post id",
			query: "postId=-0x2",
			want:  service.CommentFilter{Kind: service.FilterPostID, PostID: -2},
		},
		{
			name:  "hex prefix without digits",
			query: "postId=0xz",
			want:  service.CommentFilter{Kind: service.FilterPostID, Invalid: []string{"0xz"}},
		},
		{
			name:  "post id without digits",
			query: "postId=abc",
			want:  service.CommentFilter{Kind: service.FilterPostID, Invalid: []string{"abc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, service.ParseCommentFilter(q))
		})
	}
}

func TestCommentFilter_InvalidPostIDMatchesNothing(t *testing.T) {
	f := service.ParseCommentFilter(url.Values{"postId": {"x"}})
	assert.False(t, f.Valid())
	assert.Empty(t, f.Apply(seedComments()))
}
