package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dezobq/snapgram/internal/errs"
)

type recorder struct{ events []string }

func (r *recorder) do(name string, err error) func(context.Context) error {
	return func(context.Context) error {
		r.events = append(r.events, name)
		return err
	}
}

func static(s string) func() string { return func() string { return s } }

func TestRunSuccess(t *testing.T) {
	rec := &recorder{}
	s := New("createPost").
		Step("upload", rec.do("upload", nil), rec.do("undo-upload", nil), static("file1")).
		Step("write", rec.do("write", nil), nil, nil).
		AfterCommit("cleanup", rec.do("cleanup", nil), static("old"))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"upload", "write", "cleanup"}, rec.events)
	assert.Equal(t, []string{"upload", "write", "cleanup"}, s.Steps())
}

func TestRunCompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")
	s := New("updatePost").
		Step("a", rec.do("a", nil), rec.do("undo-a", nil), nil).
		Step("b", rec.do("b", nil), nil, nil).
		Step("c", rec.do("c", nil), rec.do("undo-c", nil), nil).
		Step("d", rec.do("d", boom), rec.do("undo-d", nil), nil).
		AfterCommit("never", rec.do("never", nil), nil)

	err := s.Run(context.Background())
	assert.Same(t, boom, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "undo-c", "undo-a"}, rec.events)
}

func TestRunCompensationFailureIsConsistencyWarning(t *testing.T) {
	rec := &recorder{}
	cause := errs.Remote("createDocument", errors.New("503"))
	s := New("createPost").
		Step("upload", rec.do("upload", nil), rec.do("undo-upload", errors.New("delete failed")), static("file42")).
		Step("write", rec.do("write", cause), nil, nil)

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrConsistency)
	assert.ErrorIs(t, err, errs.ErrRemote)
	assert.Equal(t, []string{"file42"}, errs.ResourcesOf(err))
}

func TestRunAfterCommitFailure(t *testing.T) {
	rec := &recorder{}
	s := New("updatePost").
		Step("write", rec.do("write", nil), rec.do("undo-write", nil), nil).
		AfterCommit("delete-old-file", rec.do("delete-old-file", errors.New("timeout")), static("old-file"))

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrConsistency)
	assert.Equal(t, []string{"old-file"}, errs.ResourcesOf(err))
	assert.NotContains(t, rec.events, "undo-write")
}

func TestCompensationIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var compensated bool
	s := New("createPost").
		Step("upload", func(context.Context) error { return nil }, func(ctx context.Context) error {
			compensated = ctx.Err() == nil
			return nil
		}, nil).
		Step("write", func(ctx context.Context) error {
			cancel()
			return ctx.Err()
		}, nil, nil)

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, compensated)
}
