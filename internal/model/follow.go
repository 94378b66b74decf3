package model

import "time"

// Follow is a directed edge: UserID follows AuthorID.
type Follow struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"not null;uniqueIndex:uk_follow_user_author,priority:1"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID  uint64 `gorm:"not null;uniqueIndex:uk_follow_user_author,priority:2;index:idx_follow_author"`
	Author    User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (Follow) TableName() string {
	return "follow"
}

const (
	EventFollow   = "follow"
	EventUnfollow = "unfollow"

	OutboxPending = 0
	OutboxSent    = 1
	OutboxFailed  = 2
)

// SocialOutbox stores follow graph events until they are relayed.
type SocialOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"`
	Follower  uint64 `gorm:"not null"`
	Author    uint64 `gorm:"not null"`
	Payload   string `gorm:"type:text;not null"`
	Status    int8   `gorm:"not null;default:0;index"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }
