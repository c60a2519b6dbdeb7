package store

import "slices"

// Post is a post record. Comments holds the identifiers of its comments and is the
// only link from a post to its children.
type Post struct {
	ID       int    `json:"id" yaml:"id" validate:"gte=0"`
	Title    string `json:"title" yaml:"title"`
	User     string `json:"user" yaml:"user"`
	Comments []int  `json:"comments" yaml:"comments" validate:"dive,gte=0"`
}

// Comment is a comment record. PostID references Post.ID but is not enforced.
type Comment struct {
	ID      int    `json:"id" yaml:"id" validate:"gte=0"`
	PostID  int    `json:"postId" yaml:"postId" validate:"gte=0"`
	User    string `json:"user" yaml:"user"`
	Comment string `json:"comment" yaml:"comment"`
}

// Dataset is the full content served by the posts and comments services.
type Dataset struct {
	Posts    []Post    `json:"posts" yaml:"posts" validate:"unique=ID,dive"`
	Comments []Comment `json:"comments" yaml:"comments" validate:"unique=ID,dive"`
}

func clonePosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i, p := range posts {
		p.Comments = slices.Clone(p.Comments)
		out[i] = p
	}
	return out
}
