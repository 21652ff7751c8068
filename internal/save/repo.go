package save

import (
	"context"
	"errors"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/remote"
)

const SavedPostsLimit = 100

type Repo struct {
	svc   *remote.Service
	posts *post.Repo
}

func NewRepo(svc *remote.Service, posts *post.Repo) *Repo {
	return &Repo{svc: svc, posts: posts}
}

func (r *Repo) SavePost(ctx context.Context, userID, postID string) (*Save, error) {
	const op = "savePost"

	if userID == "" || postID == "" {
		return nil, errs.Validation(op, "user id and post id are required")
	}

	doc, err := r.svc.Databases.CreateDocument(ctx, r.svc.SavesCollection, remote.UniqueID(), map[string]any{
		"user": userID,
		"post": postID,
	})
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return decode(op, doc)
}

func (r *Repo) DeleteSavedPost(ctx context.Context, saveID string) error {
	const op = "deleteSavedPost"

	if saveID == "" {
		return errs.Validation(op, "save id is required")
	}
	return remote.Classify(op, r.svc.Databases.DeleteDocument(ctx, r.svc.SavesCollection, saveID))
}

func (r *Repo) GetSave(ctx context.Context, saveID string) (*Save, error) {
	const op = "getSave"

	if saveID == "" {
		return nil, errs.Validation(op, "save id is required")
	}
	doc, err := r.svc.Databases.GetDocument(ctx, r.svc.SavesCollection, saveID)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return decode(op, doc)
}

// GetSavedPosts liste les posts enregistrés par userID, les plus récents
// d'abord. Les relations non développées sont résolues une à une ; un post
// supprimé entre-temps est ignoré.
func (r *Repo) GetSavedPosts(ctx context.Context, userID string) ([]SavedPost, error) {
	const op = "getSavedPosts"

	if userID == "" {
		return nil, errs.Validation(op, "user id is required")
	}

	list, err := r.svc.Databases.ListDocuments(ctx, r.svc.SavesCollection,
		remote.Equal("user", userID),
		remote.OrderDesc(remote.AttrCreatedAt),
		remote.Limit(SavedPostsLimit),
	)
	if err != nil {
		return nil, remote.Classify(op, err)
	}

	out := make([]SavedPost, 0, len(list.Documents))
	for _, doc := range list.Documents {
		s, err := decode(op, doc)
		if err != nil {
			return nil, err
		}
		p, err := r.resolve(ctx, op, s.Post)
		if errors.Is(err, errs.ErrNotFound) {
			logs.LogJSON("WARN", "Saved post no longer exists", map[string]interface{}{
				"saveID": s.ID,
				"postID": s.Post.ID,
			})
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, SavedPost{SaveID: s.ID, Post: p})
	}
	return out, nil
}

func (r *Repo) resolve(ctx context.Context, op string, ref remote.Ref) (*post.Post, error) {
	if ref.Doc == nil {
		return r.posts.GetPostByID(ctx, ref.ID)
	}
	var doc remote.Document
	b, err := ref.MarshalJSON()
	if err == nil {
		err = doc.UnmarshalJSON(b)
	}
	if err != nil {
		return nil, errs.Remote(op, err)
	}
	return post.Decode(op, &doc)
}

func decode(op string, doc *remote.Document) (*Save, error) {
	var s Save
	if err := doc.Decode(&s); err != nil {
		return nil, errs.Remote(op, err)
	}
	return &s, nil
}
