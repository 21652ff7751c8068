package like

import (
	"context"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/remote"
)

type Repo struct {
	svc *remote.Service
}

func NewRepo(svc *remote.Service) *Repo {
	return &Repo{svc: svc}
}

// LikePost remplace la liste complète des likes du post : le dernier
// écrivain gagne, aucune fusion n'est faite.
func (r *Repo) LikePost(ctx context.Context, postID string, likes []string) (*post.Post, error) {
	const op = "likePost"

	if postID == "" {
		return nil, errs.Validation(op, "post id is required")
	}
	if likes == nil {
		likes = []string{}
	}

	doc, err := r.svc.Databases.UpdateDocument(ctx, r.svc.PostCollection, postID, map[string]any{
		"likes": likes,
	})
	if err != nil {
		return nil, remote.Classify(op, err)
	}

	return post.Decode(op, doc)
}
