package database

import (
	"context"

	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/pkg"
)

// PostFilter narrows the post set a feed is built from.
type PostFilter func(*gorm.DB) *gorm.DB

func AllPosts(db *gorm.DB) *gorm.DB { return db }

func InGroup(groupID uint64) PostFilter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.group_id = ?", groupID)
	}
}

func ByAuthor(authorID uint64) PostFilter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id = ?", authorID)
	}
}

// FollowedBy keeps posts whose author userID follows.
func FollowedBy(userID uint64) PostFilter {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.author_id IN (SELECT follow.author_id FROM follow WHERE follow.user_id = ?)", userID)
	}
}

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Omit("Author", "Group").Create(post).Error
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	return &post, err
}

// UpdateContent writes the editable columns of post. Author and creation time
// are never touched.
func (r *PostRepository) UpdateContent(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
}

func (r *PostRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Delete(&model.Post{}, id).Error
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("author_id = ?", authorID).
		Count(&n).Error
	return n, err
}

// Count reports how many posts pass filter.
func (r *PostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	if filter == nil {
		filter = AllPosts
	}
	var total int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Scopes(filter).Count(&total).Error
	return total, err
}

// ListPage counts the filtered posts, clamps the requested page and loads it
// newest first. id breaks ties between posts created in the same instant.
func (r *PostRepository) ListPage(ctx context.Context, filter PostFilter, size int, requested string) ([]model.Post, pkg.Page, error) {
	if filter == nil {
		filter = AllPosts
	}
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, pkg.Page{}, err
	}
	page := pkg.NewPage(total, size, requested)

	list := make([]model.Post, 0, page.Size)
	if total == 0 {
		return list, page, nil
	}
	err = r.DB.WithContext(ctx).
		Scopes(filter).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC, posts.id DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&list).Error
	return list, page, err
}

type CommentRepository struct {
	DB *gorm.DB
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Omit("Post", "Author").Create(c).Error
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}
