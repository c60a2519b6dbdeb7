package store

import "fmt"

type DefectKind string

const (
	DefectMissingComment DefectKind = "missing_comment"
	DefectParentMismatch DefectKind = "parent_mismatch"
)

// Defect is a comment reference embedded in a post that does not round-trip.
type Defect struct {
	Kind      DefectKind
	PostID    int
	CommentID int
	// ActualPostID is the parent recorded on the comment, for DefectParentMismatch.
	ActualPostID int
}

func (d Defect) String() string {
	switch d.Kind {
	case DefectMissingComment:
		return fmt.Sprintf("post %d references comment %d which does not exist", d.PostID, d.CommentID)
	case DefectParentMismatch:
		return fmt.Sprintf("post %d references comment %d whose postId is %d", d.PostID, d.CommentID, d.ActualPostID)
	}
	return string(d.Kind)
}

// CheckIntegrity reports every comment id embedded in a post that does not resolve
// to a comment whose PostID equals that post's ID.
func CheckIntegrity(ds Dataset) []Defect {
	byID := make(map[int]Comment, len(ds.Comments))
	for _, c := range ds.Comments {
		byID[c.ID] = c
	}

	var defects []Defect
	for _, p := range ds.Posts {
		for _, id := range p.Comments {
			c, ok := byID[id]
			switch {
			case !ok:
				defects = append(defects, Defect{Kind: DefectMissingComment, PostID: p.ID, CommentID: id})
			case c.PostID != p.ID:
				defects = append(defects, Defect{
					Kind:         DefectParentMismatch,
					PostID:       p.ID,
					CommentID:    id,
					ActualPostID: c.PostID,
				})
			}
		}
	}

	return defects
}
