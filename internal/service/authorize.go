package service

import "Yatube/internal/model"

const (
	ReasonAnonymous = "login required"
	ReasonNotAuthor = "only the author can change this post"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize decides whether actor may modify post. Only the author may.
func Authorize(actor *model.User, post *model.Post) Decision {
	switch {
	case actor == nil || actor.ID == 0:
		return Decision{Reason: ReasonAnonymous}
	case post == nil || post.AuthorID != actor.ID:
		return Decision{Reason: ReasonNotAuthor}
	default:
		return Decision{Allowed: true}
	}
}
