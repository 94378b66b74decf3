package database

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Yatube/internal/model"
)

type FollowRepository struct {
	DB *gorm.DB
}

type OutboxRepository struct {
	DB *gorm.DB
}

// Follow inserts the (user, author) edge. An existing edge is left alone and
// reported as changed=false. A new edge writes a follow event to the outbox in
// the same transaction.
func (r *FollowRepository) Follow(ctx context.Context, userID, authorID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).Omit("User", "Author").Create(&model.Follow{UserID: userID, AuthorID: authorID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertOutbox(tx, model.EventFollow, userID, authorID)
	})
	return changed, err
}

// Unfollow deletes the edge; changed=false means there was none.
func (r *FollowRepository) Unfollow(ctx context.Context, userID, authorID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertOutbox(tx, model.EventUnfollow, userID, authorID)
	})
	return changed, err
}

func (r *FollowRepository) IsFollowing(ctx context.Context, userID, authorID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Counts returns how many authors userID follows and how many users follow userID.
func (r *FollowRepository) Counts(ctx context.Context, userID uint64) (following, followers int64, err error) {
	db := r.DB.WithContext(ctx).Model(&model.Follow{})
	if err = db.Where("user_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	err = r.DB.WithContext(ctx).Model(&model.Follow{}).Where("author_id = ?", userID).Count(&followers).Error
	return following, followers, err
}

func insertOutbox(tx *gorm.DB, event string, userID, authorID uint64) error {
	payload, err := json.Marshal(map[string]any{
		"event":      event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"follower":   userID,
		"author":     authorID,
	})
	if err != nil {
		return err
	}
	return tx.Create(&model.SocialOutbox{
		EventType: event,
		Follower:  userID,
		Author:    authorID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}

// Pending returns undelivered events oldest first, including failed ones that
// still have retries left.
func (r *OutboxRepository) Pending(ctx context.Context, batchSize, maxRetry int) ([]model.SocialOutbox, error) {
	var list []model.SocialOutbox
	err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).
		Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}
