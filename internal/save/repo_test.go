package save

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/errs"
	"github.com/dezobq/snapgram/internal/post"
	"github.com/dezobq/snapgram/internal/remote"
	"github.com/dezobq/snapgram/internal/remote/remotetest"
)

func setup(t *testing.T) (*Repo, *post.Repo, *remotetest.Platform) {
	t.Helper()
	p := remotetest.New()
	posts := post.NewRepo(p.Service())
	return NewRepo(p.Service(), posts), posts, p
}

func newPost(t *testing.T, posts *post.Repo, caption string) *post.Post {
	t.Helper()
	created, err := posts.CreatePost(context.Background(), post.NewPost{
		UserID:  "author",
		Caption: caption,
		File:    remote.Upload{Name: "a.png", Body: strings.NewReader("png")},
	})
	require.NoError(t, err)
	return created
}

func TestSaveAndDelete(t *testing.T) {
	repo, posts, p := setup(t)
	ctx := context.Background()
	target := newPost(t, posts, "à garder")

	s, err := repo.SavePost(ctx, "reader", target.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader", s.User.ID)
	assert.Equal(t, target.ID, s.Post.ID)
	assert.Equal(t, 1, p.DocCount("saves"))

	require.NoError(t, repo.DeleteSavedPost(ctx, s.ID))
	assert.Equal(t, 0, p.DocCount("saves"))

	assert.ErrorIs(t, repo.DeleteSavedPost(ctx, s.ID), errs.ErrNotFound)
}

func TestSaveValidation(t *testing.T) {
	repo, _, p := setup(t)
	ctx := context.Background()

	_, err := repo.SavePost(ctx, "", "post")
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = repo.SavePost(ctx, "user", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.ErrorIs(t, repo.DeleteSavedPost(ctx, ""), errs.ErrValidation)
	_, err = repo.GetSavedPosts(ctx, "")
	assert.ErrorIs(t, err, errs.ErrValidation)

	assert.Empty(t, p.Calls())
}

func TestGetSavedPosts(t *testing.T) {
	repo, posts, _ := setup(t)
	ctx := context.Background()

	first := newPost(t, posts, "premier")
	second := newPost(t, posts, "second")
	gone := newPost(t, posts, "supprimé")

	for _, target := range []*post.Post{first, second, gone} {
		_, err := repo.SavePost(ctx, "reader", target.ID)
		require.NoError(t, err)
	}
	_, err := repo.SavePost(ctx, "other", first.ID)
	require.NoError(t, err)

	require.NoError(t, posts.DeletePost(ctx, gone.ID, gone.ImageID))

	saved, err := repo.GetSavedPosts(ctx, "reader")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "second", saved[0].Post.Caption)
	assert.Equal(t, "premier", saved[1].Post.Caption)
	assert.NotEmpty(t, saved[0].SaveID)
}

func TestResolveExpandedRelationship(t *testing.T) {
	repo, _, p := setup(t)

	ref := remote.Ref{ID: "p1", Doc: map[string]any{
		"$id":      "p1",
		"caption":  "inline",
		"imageId":  "f1",
		"tags":     []any{"x"},
		"creator":  map[string]any{"$id": "u1"},
		"likes":    []any{"u2"},
		"location": "",
	}}

	got, err := repo.resolve(context.Background(), "test", ref)
	require.NoError(t, err)
	assert.Equal(t, "inline", got.Caption)
	assert.Equal(t, "u1", got.Creator.ID)
	assert.Equal(t, remote.IDs{"u2"}, got.Likes)
	assert.Empty(t, p.Calls())
}
