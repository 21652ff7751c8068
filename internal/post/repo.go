package post

import (
	"context"
	"errors"
	"strings"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/logs"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/saga"
)

const (
	RecentPostsLimit   = 20
	InfinitePostsLimit = 9
	UserPostsLimit     = 50
)

// Paramètres de l'aperçu servi pour chaque image de post.
var DefaultPreview = remote.Preview{Width: 2000, Height: 2000, Gravity: "top", Quality: 100}

type Repo struct {
	svc *remote.Service
}

func NewRepo(svc *remote.Service) *Repo {
	return &Repo{svc: svc}
}

// CreatePost envoie l'image, calcule son aperçu puis écrit le document.
// Toute étape en échec supprime le fichier envoyé.
func (r *Repo) CreatePost(ctx context.Context, in NewPost) (*Post, error) {
	const op = "createPost"

	if in.UserID == "" {
		return nil, errs.Validation(op, "creator id is required")
	}
	if in.File.Body == nil {
		return nil, errs.Validation(op, "an image file is required")
	}

	var file *remote.File
	var imageURL string
	var created *Post

	err := saga.New(op).
		Step("upload-file", func(ctx context.Context) error {
			f, err := r.UploadFile(ctx, in.File)
			if err != nil {
				return err
			}
			file = f
			return nil
		}, func(ctx context.Context) error {
			return r.svc.Storage.DeleteFile(ctx, file.ID)
		}, func() string {
			return "file:" + file.ID
		}).
		Step("preview-url", func(context.Context) error {
			u, err := r.GetFilePreview(file.ID)
			if err != nil {
				return err
			}
			imageURL = u
			return nil
		}, nil, nil).
		Step("create-document", func(ctx context.Context) error {
			doc, err := r.svc.Databases.CreateDocument(ctx, r.svc.PostCollection, remote.UniqueID(), map[string]any{
				"creator":  in.UserID,
				"caption":  in.Caption,
				"imageUrl": imageURL,
				"imageId":  file.ID,
				"location": in.Location,
				"tags":     ParseTags(in.Tags),
			})
			if err != nil {
				return remote.Classify(op, err)
			}
			p, err := Decode(op, doc)
			if err != nil {
				return err
			}
			created = p
			return nil
		}, nil, nil).
		Run(ctx)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePost met à jour le post. Quand une nouvelle image est fournie,
// l'ancienne n'est supprimée qu'une fois le document mis à jour ; en cas
// d'échec, c'est la nouvelle qui est supprimée.
//
// Si la suppression de l'ancienne image échoue, le post mis à jour est
// retourné avec une erreur errs.ErrConsistency.
func (r *Repo) UpdatePost(ctx context.Context, in UpdatePost) (*Post, error) {
	const op = "updatePost"

	if in.PostID == "" {
		return nil, errs.Validation(op, "post id is required")
	}

	hasFile := in.File != nil && in.File.Body != nil
	image := struct{ id, url string }{in.ImageID, in.ImageURL}
	var newFile *remote.File
	var updated *Post

	s := saga.New(op)
	if hasFile {
		s.Step("upload-file", func(ctx context.Context) error {
			f, err := r.UploadFile(ctx, *in.File)
			if err != nil {
				return err
			}
			newFile = f
			return nil
		}, func(ctx context.Context) error {
			return r.svc.Storage.DeleteFile(ctx, newFile.ID)
		}, func() string {
			return "file:" + newFile.ID
		}).
			Step("preview-url", func(context.Context) error {
				u, err := r.GetFilePreview(newFile.ID)
				if err != nil {
					return err
				}
				image.id, image.url = newFile.ID, u
				return nil
			}, nil, nil)
	}

	s.Step("update-document", func(ctx context.Context) error {
		doc, err := r.svc.Databases.UpdateDocument(ctx, r.svc.PostCollection, in.PostID, map[string]any{
			"caption":  in.Caption,
			"imageUrl": image.url,
			"imageId":  image.id,
			"location": in.Location,
			"tags":     ParseTags(in.Tags),
		})
		if err != nil {
			return remote.Classify(op, err)
		}
		p, err := Decode(op, doc)
		if err != nil {
			return err
		}
		updated = p
		return nil
	}, nil, nil)

	if hasFile && in.ImageID != "" {
		s.AfterCommit("delete-old-file", func(ctx context.Context) error {
			return r.removeFile(ctx, in.ImageID)
		}, func() string {
			return "file:" + in.ImageID
		})
	}

	if err := s.Run(ctx); err != nil {
		if updated != nil {
			return updated, err
		}
		return nil, err
	}
	return updated, nil
}

// DeletePost supprime le document puis son image. Sans les deux ids, rien
// n'est fait. Si l'image ne peut pas être supprimée, le document est recréé.
func (r *Repo) DeletePost(ctx context.Context, postID, imageID string) error {
	const op = "deletePost"

	if postID == "" || imageID == "" {
		return nil
	}

	var snapshot *remote.Document

	return saga.New(op).
		Step("snapshot-document", func(ctx context.Context) error {
			doc, err := r.svc.Databases.GetDocument(ctx, r.svc.PostCollection, postID)
			if err != nil {
				return remote.Classify(op, err)
			}
			snapshot = doc
			return nil
		}, nil, nil).
		Step("delete-document", func(ctx context.Context) error {
			return remote.Classify(op, r.svc.Databases.DeleteDocument(ctx, r.svc.PostCollection, postID))
		}, func(ctx context.Context) error {
			_, err := r.svc.Databases.CreateDocument(ctx, r.svc.PostCollection, snapshot.ID, snapshot.Restorable())
			return err
		}, func() string {
			return "file:" + imageID
		}).
		Step("delete-file", func(ctx context.Context) error {
			return remote.Classify(op, r.removeFile(ctx, imageID))
		}, nil, nil).
		Run(ctx)
}

// removeFile supprime un fichier du bucket. Un fichier déjà absent compte
// comme supprimé.
func (r *Repo) removeFile(ctx context.Context, id string) error {
	err := r.svc.Storage.DeleteFile(ctx, id)
	if remote.IsNotFound(err) {
		logs.LogJSON("WARN", "File already deleted", map[string]interface{}{
			"fileID": id,
		})
		return nil
	}
	return err
}

func (r *Repo) UploadFile(ctx context.Context, upload remote.Upload) (*remote.File, error) {
	const op = "uploadFile"

	f, err := r.svc.Storage.CreateFile(ctx, remote.UniqueID(), upload)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	if f == nil {
		return nil, errs.Remote(op, errors.New("upload returned no file"))
	}
	return f, nil
}

func (r *Repo) GetFilePreview(fileID string) (string, error) {
	const op = "getFilePreview"

	if fileID == "" {
		return "", errs.Validation(op, "file id is required")
	}
	u, err := r.svc.Storage.PreviewURL(fileID, DefaultPreview)
	if err != nil {
		return "", remote.Classify(op, err)
	}
	if u == "" {
		return "", errs.Remote(op, errors.New("empty preview url"))
	}
	return u, nil
}

func (r *Repo) DeleteFile(ctx context.Context, fileID string) error {
	const op = "deleteFile"

	if fileID == "" {
		return errs.Validation(op, "file id is required")
	}
	return remote.Classify(op, r.svc.Storage.DeleteFile(ctx, fileID))
}

func (r *Repo) GetPostByID(ctx context.Context, id string) (*Post, error) {
	const op = "getPostById"

	if id == "" {
		return nil, errs.Validation(op, "post id is required")
	}
	doc, err := r.svc.Databases.GetDocument(ctx, r.svc.PostCollection, id)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return Decode(op, doc)
}

func (r *Repo) GetRecentPosts(ctx context.Context) ([]*Post, error) {
	return r.list(ctx, "getRecentPosts",
		remote.OrderDesc(remote.AttrUpdatedAt),
		remote.Limit(RecentPostsLimit),
	)
}

// GetInfinitePosts renvoie la page qui suit le post cursor, ou la première
// page quand cursor est vide.
func (r *Repo) GetInfinitePosts(ctx context.Context, cursor string) ([]*Post, error) {
	queries := []remote.Query{
		remote.OrderDesc(remote.AttrUpdatedAt),
		remote.Limit(InfinitePostsLimit),
	}
	if cursor != "" {
		queries = append(queries, remote.CursorAfter(cursor))
	}
	return r.list(ctx, "getInfinitePosts", queries...)
}

func (r *Repo) SearchPosts(ctx context.Context, term string) ([]*Post, error) {
	const op = "searchPosts"

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errs.Validation(op, "search term is required")
	}
	return r.list(ctx, op, remote.Search("caption", term))
}

func (r *Repo) GetUserPosts(ctx context.Context, userID string) ([]*Post, error) {
	const op = "getUserPosts"

	if userID == "" {
		return nil, errs.Validation(op, "user id is required")
	}
	return r.list(ctx, op,
		remote.Equal("creator", userID),
		remote.OrderDesc(remote.AttrCreatedAt),
		remote.Limit(UserPostsLimit),
	)
}

func (r *Repo) list(ctx context.Context, op string, queries ...remote.Query) ([]*Post, error) {
	list, err := r.svc.Databases.ListDocuments(ctx, r.svc.PostCollection, queries...)
	if err != nil {
		return nil, remote.Classify(op, err)
	}
	return decodeList(op, list)
}
