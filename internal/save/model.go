package save

import (
	"time"

	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/remote"
)

// Save relie un utilisateur à un post qu'il a enregistré.
type Save struct {
	ID        string     `json:"$id"`
	User      remote.Ref `json:"user"`
	Post      remote.Ref `json:"post"`
	CreatedAt time.Time  `json:"$createdAt"`
}

// SavedPost est un enregistrement accompagné du post résolu.
type SavedPost struct {
	SaveID string     `json:"save_id"`
	Post   *post.Post `json:"post"`
}
