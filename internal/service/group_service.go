package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/repository/database"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type GroupService struct {
	groups *database.GroupRepository
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{groups: &database.GroupRepository{DB: db}}
}

func (s *GroupService) Create(ctx context.Context, title, slug, description string) (*model.Group, error) {
	ve := &ValidationError{}
	title = strings.TrimSpace(title)
	if title == "" {
		ve.Add("title", msgRequired)
	} else if len([]rune(title)) > 200 {
		ve.Add("title", "Ensure this value has at most 200 characters.")
	}
	switch {
	case slug == "":
		ve.Add("slug", msgRequired)
	case len(slug) > 50:
		ve.Add("slug", "Ensure this value has at most 50 characters.")
	case !slugPattern.MatchString(slug):
		ve.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	g := &model.Group{Title: title, Slug: slug, Description: description}
	if err := s.groups.Create(ctx, g); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

func (s *GroupService) List(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}
