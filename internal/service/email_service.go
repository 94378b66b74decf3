package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"Yatube/internal/logging"
	"Yatube/internal/pkg"
	"Yatube/internal/repository/database"
)

const ResetCodeTTL = 5 * time.Minute

// ResetCodeMaxAttempts wrong guesses invalidate a reset code.
const ResetCodeMaxAttempts = 5

// CodeStore keeps one-shot reset codes. Implemented by the redis
// ResetCodeRepository and by MemoryCodeStore.
type CodeStore interface {
	SaveCode(ctx context.Context, email, code string) error
	ConsumeCode(ctx context.Context, email, code string) (bool, error)
}

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type EmailService struct {
	codes  CodeStore
	mailer Mailer
	users  *database.UserRepository
}

func NewEmailService(db *gorm.DB, codes CodeStore, mailer Mailer) *EmailService {
	return &EmailService{codes: codes, mailer: mailer, users: &database.UserRepository{DB: db}}
}

// SendResetCode mails a reset code to email. Unknown addresses succeed
// silently so the form cannot be used to probe for accounts.
func (s *EmailService) SendResetCode(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) || email == "" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	code, err := pkg.NewResetCode()
	if err != nil {
		return err
	}
	if err = s.codes.SaveCode(ctx, email, code); err != nil {
		return err
	}
	html := pkg.ResetCodeHTML(user.Username, code, ResetCodeTTL)
	if err = s.mailer.Send(email, "Yatube password reset", html); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// VerifyCode checks and burns the code.
func (s *EmailService) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	if email == "" || code == "" {
		return false, nil
	}
	return s.codes.ConsumeCode(ctx, email, code)
}

// LogMailer writes messages to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, htmlBody string) error {
	logging.Info().Str("to", to).Str("subject", subject).Str("body", htmlBody).Msg("mail not sent: smtp disabled")
	return nil
}

type memoryCode struct {
	code      string
	expiresAt time.Time
	misses    int
}

// MemoryCodeStore is a process-local CodeStore for single instance setups.
type MemoryCodeStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]memoryCode
	now   func() time.Time
}

func NewMemoryCodeStore(ttl time.Duration) *MemoryCodeStore {
	if ttl <= 0 {
		ttl = ResetCodeTTL
	}
	return &MemoryCodeStore{ttl: ttl, codes: make(map[string]memoryCode), now: time.Now}
}

func (m *MemoryCodeStore) SaveCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	m.codes[email] = memoryCode{code: code, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCodeStore) ConsumeCode(_ context.Context, email, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[email]
	if !ok {
		return false, nil
	}
	if !m.now().Before(c.expiresAt) {
		delete(m.codes, email)
		return false, nil
	}
	if c.code != code {
		c.misses++
		if c.misses >= ResetCodeMaxAttempts {
			delete(m.codes, email)
		} else {
			m.codes[email] = c
		}
		return false, nil
	}
	delete(m.codes, email)
	return true, nil
}
