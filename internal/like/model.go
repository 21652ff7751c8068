package like

// Status résume les likes d'un post pour l'utilisateur courant.
type Status struct {
	PostID     string   `json:"post_id"`
	Likes      []string `json:"likes"`
	LikesCount int      `json:"likes_count"`
	IsLiked    bool     `json:"is_liked"`
}

func NewStatus(postID, userID string, likes []string) Status {
	s := Status{PostID: postID, Likes: likes, LikesCount: len(likes)}
	for _, id := range likes {
		if id == userID {
			s.IsLiked = true
			break
		}
	}
	return s
}
