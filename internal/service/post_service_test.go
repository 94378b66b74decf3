package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Yatube/internal/model"
	"Yatube/internal/pkg"
)

func TestPostService_Create(t *testing.T) {
	db := newTestDB(t)
	auth := createUser(t, db, "auth")
	g := createGroup(t, db, "test-slug")
	svc := NewPostService(db, nil)
	ctx := context.Background()

	post, err := svc.Create(ctx, auth, PostInput{Text: "  Test post  ", GroupID: &g.ID})
	require.NoError(t, err)
	assert.Equal(t, "Test post", post.Text)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, g.ID, *post.GroupID)

	got, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "auth", got.Author.Username)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPostService_CreateValidation(t *testing.T) {
	db := newTestDB(t)
	auth := createUser(t, db, "auth")
	svc := NewPostService(db, nil)
	ctx := context.Background()
	missing := uint64(999)

	_, err := svc.Create(ctx, auth, PostInput{Text: "   ", GroupID: &missing})
	require.ErrorIs(t, err, ErrValidation)
	fields := FieldErrors(err)
	assert.Contains(t, fields, "text")
	assert.Contains(t, fields, "group")

	_, err = svc.Create(ctx, nil, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrAuthRequired)

	var n int64
	require.NoError(t, db.Model(&model.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPostService_CreateWithImage(t *testing.T) {
	db := newTestDB(t)
	auth := createUser(t, db, "auth")
	root := t.TempDir()
	svc := NewPostService(db, pkg.NewMediaStore(root, "/media/", 1<<20))
	ctx := context.Background()

	post, err := svc.Create(ctx, auth, PostInput{Text: "with image", Image: bytes.NewReader(smallGIF)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(post.Image, "posts/"))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(post.Image)))
	assert.NoError(t, err)

	_, err = svc.Create(ctx, auth, PostInput{Text: "bad image", Image: strings.NewReader("plain text")})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, FieldErrors(err), "image")
}

func TestPostService_EditByAuthor(t *testing.T) {
	db := newTestDB(t)
	auth := createUser(t, db, "auth")
	g := createGroup(t, db, "test-slug")
	post := createPost(t, db, auth, g, "before")
	svc := NewPostService(db, nil)
	ctx := context.Background()

	orig, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, auth, post.ID, PostInput{Text: "after"})
	require.NoError(t, err)
	assert.Equal(t, "after", edited.Text)
	assert.Nil(t, edited.GroupID)
	assert.Equal(t, auth.ID, edited.AuthorID)
	assert.True(t, orig.CreatedAt.Equal(edited.CreatedAt))
}

func TestPostService_EditByOtherUserLeavesPost(t *testing.T) {
	db := newTestDB(t)
	auth := createUser(t, db, "auth")
	other := createUser(t, db, "other")
	g := createGroup(t, db, "test-slug")
	post := createPost(t, db, auth, g, "original")
	svc := NewPostService(db, nil)
	ctx := context.Background()

	_, err := svc.Edit(ctx, other, post.ID, PostInput{Text: "hijacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Edit(ctx, nil, post.ID, PostInput{Text: "hijacked"})
	assert.ErrorIs(t, err, ErrAuthRequired)

	got, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, g.ID, *got.GroupID)

	_, err = svc.Edit(ctx, auth, 999, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_DetailAndComments(t *testing.T) {
	db := newTestDB(t)
	auth := createUser(t, db, "auth")
	reader := createUser(t, db, "reader")
	post := createPost(t, db, auth, nil, "first")
	createPost(t, db, auth, nil, "second")
	svc := NewPostService(db, nil)
	ctx := context.Background()

	_, err := svc.AddComment(ctx, reader, post.ID, "older")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	c, err := svc.AddComment(ctx, reader, post.ID, "newer")
	require.NoError(t, err)
	assert.Equal(t, "reader", c.Author.Username)

	detail, err := svc.Detail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.AuthorPostCount)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "newer", detail.Comments[0].Text)

	_, err = svc.AddComment(ctx, reader, post.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddComment(ctx, reader, 999, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.AddComment(ctx, nil, post.ID, "x")
	assert.ErrorIs(t, err, ErrAuthRequired)

	_, err = svc.Detail(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
