package database

import (
	"context"

	"gorm.io/gorm"

	"Yatube/internal/model"
)

type GroupRepository struct {
	DB *gorm.DB
}

func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	return r.DB.WithContext(ctx).Create(g).Error
}

func (r *GroupRepository) FindBySlug(ctx context.Context, slug string) (*model.Group, error) {
	var g model.Group
	err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&g).Error
	return &g, err
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint64) (*model.Group, error) {
	var g model.Group
	err := r.DB.WithContext(ctx).First(&g, id).Error
	return &g, err
}

func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	var list []model.Group
	err := r.DB.WithContext(ctx).Order("title, id").Find(&list).Error
	return list, err
}
