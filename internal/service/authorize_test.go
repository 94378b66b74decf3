package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Yatube/internal/model"
)

func TestAuthorize(t *testing.T) {
	author := &model.User{ID: 1, Username: "auth"}
	other := &model.User{ID: 2, Username: "other"}
	post := &model.Post{ID: 10, AuthorID: 1}

	tests := []struct {
		name   string
		actor  *model.User
		allow  bool
		reason string
	}{
		{"author", author, true, ""},
		{"other user", other, false, ReasonNotAuthor},
		{"anonymous", nil, false, ReasonAnonymous},
		{"zero user", &model.User{}, false, ReasonAnonymous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.actor, post)
			assert.Equal(t, tt.allow, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}

	assert.False(t, Authorize(author, nil).Allowed)
}
