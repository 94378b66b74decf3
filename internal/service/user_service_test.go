package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Yatube/internal/pkg"
)

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[uint64]string
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[uint64]string)}
}

func (f *fakeTokenStore) SaveToken(_ context.Context, userID uint64, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[userID] = token
	return nil
}

func (f *fakeTokenStore) GetToken(_ context.Context, userID uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tok, ok := f.tokens[userID]
	if !ok {
		return "", errors.New("no token")
	}
	return tok, nil
}

func (f *fakeTokenStore) DeleteToken(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, userID)
	return nil
}

type capturedMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []capturedMail
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, capturedMail{to, subject, body})
	return nil
}

var codeInMail = regexp.MustCompile(`>(\d{6})<`)

func newUserService(t *testing.T, db *gorm.DB, store TokenStore) (*UserService, *fakeMailer) {
	t.Helper()
	mailer := &fakeMailer{}
	emailSvc := NewEmailService(db, NewMemoryCodeStore(time.Minute), mailer)
	tokens := pkg.NewTokenManager("test-secret-123", time.Hour)
	return NewUserService(db, tokens, store, emailSvc), mailer
}

func TestUserService_SignupLoginAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newUserService(t, db, nil)
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, "auth", "auth@example.com", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret-pass", user.Password)

	_, _, err = svc.Signup(ctx, "auth", "", "secret-pass")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = svc.Login(ctx, "auth", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ghost", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, token, err = svc.Login(ctx, "auth@example.com", "secret-pass")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestUserService_SignupValidation(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newUserService(t, db, nil)

	_, _, err := svc.Signup(context.Background(), "bad name", "not-an-email", "short")
	require.ErrorIs(t, err, ErrValidation)
	fields := FieldErrors(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestUserService_SingleSession(t *testing.T) {
	db := newTestDB(t)
	store := newFakeTokenStore()
	svc, _ := newUserService(t, db, store)
	ctx := context.Background()

	user, first, err := svc.Signup(ctx, "auth", "", "secret-pass")
	require.NoError(t, err)

	_, second, err := svc.Login(ctx, "auth", "secret-pass")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = svc.Authenticate(ctx, first)
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = svc.Authenticate(ctx, second)
	assert.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))
	_, err = svc.Authenticate(ctx, second)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestUserService_ChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newUserService(t, db, nil)
	ctx := context.Background()

	user, _, err := svc.Signup(ctx, "auth", "", "secret-pass")
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, user.ID, "wrong-pass", "new-secret-pass")
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, FieldErrors(err), "old_password")

	token, err := svc.ChangePassword(ctx, user.ID, "secret-pass", "new-secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "auth", "new-secret-pass")
	assert.NoError(t, err)
}

func TestUserService_PasswordReset(t *testing.T) {
	db := newTestDB(t)
	svc, mailer := newUserService(t, db, nil)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "auth", "auth@example.com", "secret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.SendResetCode(ctx, "nobody@example.com"))
	assert.Empty(t, mailer.sent, "unknown address sends nothing")

	require.NoError(t, svc.SendResetCode(ctx, "auth@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "auth@example.com", mailer.sent[0].to)
	m := codeInMail.FindStringSubmatch(mailer.sent[0].body)
	require.Len(t, m, 2)
	code := m[1]

	err = svc.ResetPassword(ctx, "auth@example.com", "000000x", "brand-new-pass")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	require.NoError(t, svc.ResetPassword(ctx, "auth@example.com", code, "brand-new-pass"))
	_, _, err = svc.Login(ctx, "auth", "brand-new-pass")
	assert.NoError(t, err)

	err = svc.ResetPassword(ctx, "auth@example.com", code, "another-pass")
	assert.ErrorIs(t, err, ErrCodeMismatch, "codes are single use")
}

func TestMemoryCodeStore_Expiry(t *testing.T) {
	store := NewMemoryCodeStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.SaveCode(ctx, "a@b.c", "123456"))
	now = now.Add(2 * time.Minute)

	ok, err := store.ConsumeCode(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCodeStore_BurnsAfterMisses(t *testing.T) {
	store := NewMemoryCodeStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.SaveCode(ctx, "a@b.c", "123456"))
	for i := 0; i < ResetCodeMaxAttempts; i++ {
		ok, err := store.ConsumeCode(ctx, "a@b.c", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := store.ConsumeCode(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "correct code no longer accepted")

	require.NoError(t, store.SaveCode(ctx, "a@b.c", "654321"))
	for i := 0; i < ResetCodeMaxAttempts-1; i++ {
		_, _ = store.ConsumeCode(ctx, "a@b.c", "000000")
	}
	ok, err = store.ConsumeCode(ctx, "a@b.c", "654321")
	require.NoError(t, err)
	assert.True(t, ok)
}
