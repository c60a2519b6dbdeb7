package upstream

func ByPostIDForTest(postID int) CommentsQuery {
	return CommentsQuery{postID: &postID}
}
