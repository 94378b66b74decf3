package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Yatube/internal/model"
)

func postIDs(posts []model.Post) []uint64 {
	ids := make([]uint64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFeedService_PostAppearsInExactlyItsFeeds(t *testing.T) {
	db := newTestDB(t)
	auth, group := feedFixture(t, db)
	ctx := context.Background()
	svc := NewFeedService(db, 10)

	other := createGroup(t, db, "other-slug")
	post := createPost(t, db, auth, group, "Test post")

	global, err := svc.Global(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, postIDs(global.Posts), post.ID)

	g, err := svc.Group(ctx, "test-slug", "")
	require.NoError(t, err)
	assert.Equal(t, []uint64{post.ID}, postIDs(g.Posts))
	assert.Equal(t, "test-slug", g.Group.Slug)

	empty, err := svc.Group(ctx, other.Slug, "")
	require.NoError(t, err)
	assert.Empty(t, empty.Posts)
	assert.Equal(t, 1, empty.Page.Number)

	profile, err := svc.Author(ctx, "auth", nil, "")
	require.NoError(t, err)
	assert.Equal(t, []uint64{post.ID}, postIDs(profile.Posts))
	assert.Equal(t, "auth", profile.Author.Username)
	assert.False(t, profile.ShowFollow)
}

func TestFeedService_UnknownSlugAndUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewFeedService(db, 10)
	ctx := context.Background()

	_, err := svc.Group(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Author(ctx, "ghost", nil, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedService_Pagination(t *testing.T) {
	db := newTestDB(t)
	auth, g := feedFixture(t, db)
	for i := 0; i < 12; i++ {
		createPost(t, db, auth, g, fmt.Sprintf("post %d", i))
	}
	ctx := context.Background()

	tests := []struct {
		name  string
		size  int
		page  string
		want  int
		numOf int
	}{
		{"first page", 10, "1", 10, 1},
		{"second page", 10, "2", 2, 2},
		{"past the end clamps", 10, "3", 2, 2},
		{"garbage is page one", 10, "abc", 10, 1},
		{"overflow is the last page", 10, "99999999999999999999", 2, 2},
		{"small pages", 2, "6", 2, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewFeedService(db, tt.size)
			for _, load := range []func() (*Feed, error){
				func() (*Feed, error) { return svc.Global(ctx, tt.page) },
				func() (*Feed, error) { return svc.Group(ctx, "test-slug", tt.page) },
				func() (*Feed, error) { return svc.Author(ctx, "auth", nil, tt.page) },
			} {
				feed, err := load()
				require.NoError(t, err)
				assert.Len(t, feed.Posts, tt.want)
				assert.Equal(t, tt.numOf, feed.Page.Number)
			}
		})
	}
}

func TestFeedService_GlobalPage(t *testing.T) {
	db := newTestDB(t)
	auth, _ := feedFixture(t, db)
	for i := 0; i < 12; i++ {
		createPost(t, db, auth, nil, fmt.Sprintf("post %d", i))
	}
	svc := NewFeedService(db, 10)

	page, err := svc.GlobalPage(context.Background(), "500")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, int64(12), page.Total)
}

func TestFeedService_FollowedFeed(t *testing.T) {
	db := newTestDB(t)
	auth, _ := feedFixture(t, db)
	follower := createUser(t, db, "follower")
	stranger := createUser(t, db, "stranger")
	ctx := context.Background()

	_, err := NewFollowService(db).Follow(ctx, follower, "auth")
	require.NoError(t, err)
	post := createPost(t, db, auth, nil, "for followers")
	createPost(t, db, follower, nil, "my own post")
	createPost(t, db, stranger, nil, "not followed")

	svc := NewFeedService(db, 10)

	feed, err := svc.Followed(ctx, follower, "")
	require.NoError(t, err)
	assert.Equal(t, []uint64{post.ID}, postIDs(feed.Posts), "only followed authors, never the viewer")
	assert.Equal(t, int64(1), feed.Page.Total)

	feed, err = svc.Followed(ctx, stranger, "")
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)

	_, err = svc.Followed(ctx, nil, "")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestFeedService_AuthorFollowState(t *testing.T) {
	db := newTestDB(t)
	auth, _ := feedFixture(t, db)
	follower := createUser(t, db, "follower")
	ctx := context.Background()
	svc := NewFeedService(db, 10)

	_, err := NewFollowService(db).Follow(ctx, follower, "auth")
	require.NoError(t, err)

	feed, err := svc.Author(ctx, "auth", follower, "")
	require.NoError(t, err)
	assert.True(t, feed.ShowFollow)
	assert.True(t, feed.Following)
	assert.Equal(t, int64(1), feed.FollowerCount)

	feed, err = svc.Author(ctx, "auth", auth, "")
	require.NoError(t, err)
	assert.False(t, feed.ShowFollow)
	assert.False(t, feed.Following)

	feed, err = svc.Author(ctx, "follower", nil, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), feed.FollowingCount)
	assert.False(t, feed.ShowFollow)
}

// feedFixture creates the user "auth" and the group "test-slug".
func feedFixture(t *testing.T, db *gorm.DB) (*model.User, *model.Group) {
	t.Helper()
	return createUser(t, db, "auth"), createGroup(t, db, "test-slug")
}
