package service

import (
	"context"

	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/pkg"
	"Yatube/internal/repository/database"
)

// Feed is one page of posts plus whatever the page header needs.
type Feed struct {
	Posts []model.Post
	Page  pkg.Page

	Group  *model.Group
	Author *model.User

	// ShowFollow is set when the viewer is logged in and is not the author.
	ShowFollow     bool
	Following      bool
	FollowingCount int64
	FollowerCount  int64
}

type FeedService struct {
	posts    *database.PostRepository
	groups   *database.GroupRepository
	users    *database.UserRepository
	follows  *database.FollowRepository
	pageSize int
}

func NewFeedService(db *gorm.DB, pageSize int) *FeedService {
	if pageSize <= 0 {
		pageSize = pkg.DefaultPageSize
	}
	return &FeedService{
		posts:    &database.PostRepository{DB: db},
		groups:   &database.GroupRepository{DB: db},
		users:    &database.UserRepository{DB: db},
		follows:  &database.FollowRepository{DB: db},
		pageSize: pageSize,
	}
}

func (s *FeedService) PageSize() int { return s.pageSize }

func (s *FeedService) Global(ctx context.Context, page string) (*Feed, error) {
	return s.list(ctx, database.AllPosts, page)
}

// GlobalPage resolves requested against the current number of posts without
// loading any of them.
func (s *FeedService) GlobalPage(ctx context.Context, requested string) (pkg.Page, error) {
	total, err := s.posts.Count(ctx, database.AllPosts)
	if err != nil {
		return pkg.Page{}, err
	}
	return pkg.NewPage(total, s.pageSize, requested), nil
}

func (s *FeedService) Group(ctx context.Context, slug, page string) (*Feed, error) {
	g, err := s.groups.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "group "+slug)
	}
	feed, err := s.list(ctx, database.InGroup(g.ID), page)
	if err != nil {
		return nil, err
	}
	feed.Group = g
	return feed, nil
}

// Author lists the posts of username. viewer may be nil.
func (s *FeedService) Author(ctx context.Context, username string, viewer *model.User, page string) (*Feed, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user "+username)
	}
	feed, err := s.list(ctx, database.ByAuthor(author.ID), page)
	if err != nil {
		return nil, err
	}
	feed.Author = author

	if feed.FollowingCount, feed.FollowerCount, err = s.follows.Counts(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewer != nil && viewer.ID != 0 && viewer.ID != author.ID {
		feed.ShowFollow = true
		if feed.Following, err = s.follows.IsFollowing(ctx, viewer.ID, author.ID); err != nil {
			return nil, err
		}
	}
	return feed, nil
}

// Followed lists posts by every author viewer follows.
func (s *FeedService) Followed(ctx context.Context, viewer *model.User, page string) (*Feed, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, ErrAuthRequired
	}
	return s.list(ctx, database.FollowedBy(viewer.ID), page)
}

func (s *FeedService) list(ctx context.Context, filter database.PostFilter, page string) (*Feed, error) {
	posts, p, err := s.posts.ListPage(ctx, filter, s.pageSize, page)
	if err != nil {
		return nil, err
	}
	return &Feed{Posts: posts, Page: p}, nil
}
