package storage

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dezobq/snapgram/internal/remote"
)

const defaultFolder = "posts"

// urlBuilder dérive la clé objet et l'URL publique d'un fichier. Les
// paramètres d'aperçu sont transmis en query string au CDN d'images.
type urlBuilder struct {
	base   string
	folder string
}

func (u urlBuilder) key(id string) string {
	folder := strings.Trim(u.folder, "/")
	if folder == "" {
		folder = defaultFolder
	}
	return fmt.Sprintf("%s/%s", folder, id)
}

func (u urlBuilder) preview(id string, opts remote.Preview) (string, error) {
	if id == "" {
		return "", fmt.Errorf("preview: identifiant de fichier vide")
	}
	base, err := url.Parse(strings.TrimRight(u.base, "/") + "/" + u.key(id))
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}

	q := base.Query()
	if opts.Width > 0 {
		q.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		q.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		q.Set("quality", strconv.Itoa(opts.Quality))
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}
