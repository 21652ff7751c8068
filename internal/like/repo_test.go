package like

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

func setup(t *testing.T) (*Repo, *post.Post) {
	t.Helper()
	p := remotetest.New()
	created, err := post.NewRepo(p.Service()).CreatePost(context.Background(), post.NewPost{
		UserID: "author",
		File:   remote.Upload{Name: "a.png", Body: strings.NewReader("png")},
	})
	require.NoError(t, err)
	return NewRepo(p.Service()), created
}

func TestLikePostOverwrites(t *testing.T) {
	repo, created := setup(t)
	ctx := context.Background()

	_, err := repo.LikePost(ctx, created.ID, []string{"u1", "u2"})
	require.NoError(t, err)

	_, err = repo.LikePost(ctx, created.ID, []string{})
	require.NoError(t, err)

	got, err := repo.LikePost(ctx, created.ID, []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, remote.IDs{"u1"}, got.Likes)
}

func TestLikePostNilClears(t *testing.T) {
	repo, created := setup(t)

	_, err := repo.LikePost(context.Background(), created.ID, []string{"u1"})
	require.NoError(t, err)

	got, err := repo.LikePost(context.Background(), created.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, got.Likes)
	assert.Empty(t, got.Likes)
}

func TestLikePostErrors(t *testing.T) {
	repo, _ := setup(t)

	_, err := repo.LikePost(context.Background(), "", []string{"u1"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = repo.LikePost(context.Background(), "missing", []string{"u1"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestNewStatus(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		likes     []string
		wantLiked bool
	}{
		{"Liked", "u2", []string{"u1", "u2"}, true},
		{"Not liked", "u3", []string{"u1"}, false},
		{"Anonymous", "", []string{"u1"}, false},
		{"No likes", "u1", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStatus("p1", tt.userID, tt.likes)
			assert.Equal(t, tt.wantLiked, s.IsLiked)
			assert.Equal(t, len(tt.likes), s.LikesCount)
		})
	}
}
