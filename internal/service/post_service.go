package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/pkg"
	"Yatube/internal/repository/database"
)

const msgRequired = "This field is required."

// PostInput is the editable part of a post. A nil Image keeps the current one.
type PostInput struct {
	Text    string
	GroupID *uint64
	Image   io.Reader
}

// PostDetail backs the single post page.
type PostDetail struct {
	Post            *model.Post
	AuthorPostCount int64
	Comments        []model.Comment
}

type PostService struct {
	posts    *database.PostRepository
	comments *database.CommentRepository
	groups   *database.GroupRepository
	media    *pkg.MediaStore
}

func NewPostService(db *gorm.DB, media *pkg.MediaStore) *PostService {
	return &PostService{
		posts:    &database.PostRepository{DB: db},
		comments: &database.CommentRepository{DB: db},
		groups:   &database.GroupRepository{DB: db},
		media:    media,
	}
}

func (s *PostService) Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, ErrAuthRequired
	}
	post := &model.Post{AuthorID: author.ID}
	if err := s.apply(ctx, post, in); err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Edit changes text, group and image of a post. Anyone but the author gets
// ErrForbidden and the post is left as it was.
func (s *PostService) Edit(ctx context.Context, editor *model.User, postID uint64, in PostInput) (*model.Post, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if d := Authorize(editor, post); !d.Allowed {
		if editor == nil || editor.ID == 0 {
			return post, ErrAuthRequired
		}
		return post, fmt.Errorf("edit post %d: %s: %w", postID, d.Reason, ErrForbidden)
	}
	if err = s.apply(ctx, post, in); err != nil {
		return post, err
	}
	if err = s.posts.UpdateContent(ctx, post); err != nil {
		return nil, fmt.Errorf("update post %d: %w", postID, err)
	}
	return s.Get(ctx, postID)
}

func (s *PostService) Get(ctx context.Context, postID uint64) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("post %d", postID))
	}
	return post, nil
}

func (s *PostService) Detail(ctx context.Context, postID uint64) (*PostDetail, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.CountByAuthor(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, AuthorPostCount: count, Comments: comments}, nil
}

func (s *PostService) AddComment(ctx context.Context, author *model.User, postID uint64, text string) (*model.Comment, error) {
	if author == nil || author.ID == 0 {
		return nil, ErrAuthRequired
	}
	if _, err := s.Get(ctx, postID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		ve := &ValidationError{}
		ve.Add("text", msgRequired)
		return nil, ve
	}
	c := &model.Comment{PostID: postID, AuthorID: author.ID, Text: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.Author = *author
	return c, nil
}

// apply validates in and copies it onto post. The image is written last so a
// rejected form leaves nothing on disk.
func (s *PostService) apply(ctx context.Context, post *model.Post, in PostInput) error {
	ve := &ValidationError{}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		ve.Add("text", msgRequired)
	}

	var group *model.Group
	if in.GroupID != nil {
		g, err := s.groups.FindByID(ctx, *in.GroupID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			ve.Add("group", "Select a valid choice.")
		case err != nil:
			return fmt.Errorf("load group: %w", err)
		default:
			group = g
		}
	}
	if err := ve.Err(); err != nil {
		return err
	}

	if in.Image != nil {
		if s.media == nil {
			ve.Add("image", "Image uploads are disabled.")
			return ve
		}
		name, err := s.media.SaveImage(in.Image)
		switch {
		case errors.Is(err, pkg.ErrNotAnImage):
			ve.Add("image", "Upload a valid image.")
			return ve
		case errors.Is(err, pkg.ErrImageTooLarge):
			ve.Add("image", "The image is too large.")
			return ve
		case err != nil:
			return err
		}
		post.Image = name
	}

	post.Text = text
	post.Group = group
	if group != nil {
		post.GroupID = &group.ID
	} else {
		post.GroupID = nil
	}
	return nil
}
