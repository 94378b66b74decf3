package model

import (
	"time"
	"unicode/utf8"
)

type Post struct {
	ID        uint64    `gorm:"primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_post_created;autoCreateTime"`
	Image     string    `gorm:"size:255"`
	AuthorID  uint64    `gorm:"not null;index:idx_post_author"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint64   `gorm:"index:idx_post_group"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
}

// Preview returns the first 15 characters of the text.
func (p Post) Preview() string {
	if utf8.RuneCountInString(p.Text) <= 15 {
		return p.Text
	}
	return string([]rune(p.Text)[:15])
}

type Comment struct {
	ID        uint64    `gorm:"primaryKey"`
	PostID    uint64    `gorm:"not null;index:idx_comment_post"`
	Post      Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	AuthorID  uint64    `gorm:"not null;index"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
