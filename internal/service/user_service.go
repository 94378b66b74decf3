package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Yatube/internal/model"
	"Yatube/internal/pkg"
	"Yatube/internal/repository/database"
)

const MinPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// TokenStore remembers the one valid access token per user. Implemented by
// the redis TokenRepository.
type TokenStore interface {
	SaveToken(ctx context.Context, userID uint64, token string) error
	GetToken(ctx context.Context, userID uint64) (string, error)
	DeleteToken(ctx context.Context, userID uint64) error
}

type UserService struct {
	users    *database.UserRepository
	tokens   *pkg.TokenManager
	store    TokenStore
	emailSvc *EmailService
	validate *validator.Validate
}

// NewUserService wires account operations. store may be nil, in which case
// any unexpired token signed with our secret is accepted.
func NewUserService(db *gorm.DB, tokens *pkg.TokenManager, store TokenStore, emailSvc *EmailService) *UserService {
	return &UserService{
		users:    &database.UserRepository{DB: db},
		tokens:   tokens,
		store:    store,
		emailSvc: emailSvc,
		validate: validator.New(),
	}
}

// Signup creates the account and logs it in.
func (s *UserService) Signup(ctx context.Context, username, email, password string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	ve := &ValidationError{}
	switch {
	case username == "":
		ve.Add("username", msgRequired)
	case len(username) > 150 || !usernamePattern.MatchString(username):
		ve.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if email != "" && s.validate.Var(email, "email") != nil {
		ve.Add("email", "Enter a valid email address.")
	}
	checkPassword(ve, "password", password)
	if err := ve.Err(); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{Username: username, Email: email, Password: string(hash)}
	if err = s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login accepts a username or an email address.
func (s *UserService) Login(ctx context.Context, login, password string) (*model.User, string, error) {
	user, err := s.users.FindByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	if s.store == nil {
		return nil
	}
	return s.store.DeleteToken(ctx, userID)
}

// Authenticate resolves an access token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	if s.store != nil {
		stored, err := s.store.GetToken(ctx, claims.UserID)
		if err != nil || stored != token {
			return nil, ErrAuthRequired
		}
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAuthRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the old password, stores the new hash and returns a
// fresh token. With a token store every other session is dropped.
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", notFound(err, "user")
	}
	ve := &ValidationError{}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		ve.Add("old_password", "Your old password was entered incorrectly.")
	}
	checkPassword(ve, "new_password", newPassword)
	if err = ve.Err(); err != nil {
		return "", err
	}
	if err = s.setPassword(ctx, user.ID, newPassword); err != nil {
		return "", err
	}
	return s.issue(ctx, user)
}

func (s *UserService) SendResetCode(ctx context.Context, email string) error {
	return s.emailSvc.SendResetCode(ctx, strings.TrimSpace(email))
}

// ResetPassword redeems a reset code. Existing sessions are dropped.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(email)
	ve := &ValidationError{}
	checkPassword(ve, "new_password", newPassword)
	if err := ve.Err(); err != nil {
		return err
	}
	ok, err := s.emailSvc.VerifyCode(ctx, email, strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeMismatch
	}
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err = s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

func (s *UserService) setPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *UserService) issue(ctx context.Context, user *model.User) (string, error) {
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return "", err
	}
	if s.store != nil {
		if err = s.store.SaveToken(ctx, user.ID, token); err != nil {
			return "", err
		}
	}
	return token, nil
}

func checkPassword(ve *ValidationError, field, password string) {
	switch {
	case password == "":
		ve.Add(field, msgRequired)
	case len(password) < MinPasswordLength:
		ve.Add(field, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
}
