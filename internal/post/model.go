package post

import (
	"time"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/remote"
)

type Post struct {
	ID        string     `json:"$id"`
	Caption   string     `json:"caption"`
	ImageURL  string     `json:"imageUrl"`
	ImageID   string     `json:"imageId"`
	Location  string     `json:"location"`
	Tags      []string   `json:"tags"`
	Creator   remote.Ref `json:"creator"`
	Likes     remote.IDs `json:"likes"`
	CreatedAt time.Time  `json:"$createdAt"`
	UpdatedAt time.Time  `json:"$updatedAt"`
}

type NewPost struct {
	UserID   string
	Caption  string
	Location string
	Tags     string
	File     remote.Upload
}

// UpdatePost porte l'état courant de l'image (ImageID, ImageURL) et,
// optionnellement, un nouveau fichier qui la remplace.
type UpdatePost struct {
	PostID   string
	Caption  string
	Location string
	Tags     string
	ImageID  string
	ImageURL string
	File     *remote.Upload
}

// Decode lit un document de la collection des posts.
func Decode(op string, doc *remote.Document) (*Post, error) {
	var p Post
	if err := doc.Decode(&p); err != nil {
		return nil, errs.Remote(op, err)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Likes == nil {
		p.Likes = remote.IDs{}
	}
	return &p, nil
}

func decodeList(op string, list *remote.DocumentList) ([]*Post, error) {
	posts := make([]*Post, 0, len(list.Documents))
	for _, doc := range list.Documents {
		p, err := Decode(op, doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}
