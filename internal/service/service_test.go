package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/repository/database"
)

var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:", database.Options{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createGroup(t *testing.T, db *gorm.DB, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Test group", Slug: slug, Description: "Test description"}
	require.NoError(t, db.Create(g).Error)
	return g
}

func createPost(t *testing.T, db *gorm.DB, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, (&database.PostRepository{DB: db}).Create(context.Background(), p))
	return p
}
