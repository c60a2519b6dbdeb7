package store_test

import (
	"testing"

	"github.com/n9te9/go-graphql-rest-gateway/store"
	"github.com/stretchr/testify/assert"
)

func TestCheckIntegrity(t *testing.T) {
	tests := []struct {
		name string
		ds   store.Dataset
		want []store.Defect
	}{
		{
			name: "seeded data round-trips",
			ds:   store.SeedDataset(),
			want: nil,
		},
		{
			name: "missing comment and wrong parent",
			ds: store.Dataset{
				Posts: []store.Post{
					{ID: 1, Comments: []int{1, 4}},
					{ID: 2, Comments: []int{2}},
				},
				Comments: []store.Comment{
					{ID: 1, PostID: 1},
					{ID: 2, PostID: 1},
				},
			},
			want: []store.Defect{
				{Kind: store.DefectMissingComment, PostID: 1, CommentID: 4},
				{Kind: store.DefectParentMismatch, PostID: 2, CommentID: 2, ActualPostID: 1},
			},
		},
		{
			name: "comment ids overlapping post ids do not cross-match",
			ds: store.Dataset{
				Posts:    []store.Post{{ID: 2, Comments: []int{1}}},
				Comments: []store.Comment{{ID: 2, PostID: 2}, {ID: 1, PostID: 2}},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.CheckIntegrity(tt.ds))
		})
	}
}

func TestDefect_String(t *testing.T) {
	d := store.Defect{Kind: store.DefectParentMismatch, PostID: 2, CommentID: 2, ActualPostID: 1}
	assert.Equal(t, "post 2 references comment 2 whose postId is 1", d.String())
}
