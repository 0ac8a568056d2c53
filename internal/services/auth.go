package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pandeptwidyaop/nodered-backups/internal/config"
	"github.com/pandeptwidyaop/nodered-backups/internal/database"
	"github.com/pandeptwidyaop/nodered-backups/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrAuthDisabled       = errors.New("authentication is disabled")
)

// AuthService guards the UI and API behind a single shared password.
// With no password hash configured every request is allowed through.
type AuthService struct {
	db  *database.DB
	cfg config.AuthConfig
	now func() time.Time
}

func NewAuthService(db *database.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg.Auth, now: time.Now}
}

// Enabled reports whether a password has been configured.
func (s *AuthService) Enabled() bool {
	return s.cfg.Enabled()
}

// CookieName is the name of the session cookie.
func (s *AuthService) CookieName() string {
	return s.cfg.CookieName
}

// SessionDuration is how long a new session stays valid.
func (s *AuthService) SessionDuration() time.Duration {
	return s.cfg.GetSessionDuration()
}

// HashPassword returns a bcrypt hash suitable for auth.password_hash.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(password string) bool {
	if !s.Enabled() {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password))
	return err == nil
}

func (s *AuthService) Login(password, ip, userAgent string) (*models.Session, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	if !s.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// opportunistic cleanup, a failure here must not block the login
	_ = s.CleanExpiredSessions()

	return s.CreateSession(ip, userAgent)
}

func (s *AuthService) CreateSession(ip, userAgent string) (*models.Session, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.New().String(),
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: now.Add(s.SessionDuration()),
		CreatedAt: now,
	}

	_, err := s.db.Exec(
		"INSERT INTO sessions (id, expires_at, ip_address, user_agent, created_at) VALUES (?, ?, ?, ?, ?)",
		session.ID, session.ExpiresAt, session.IPAddress, session.UserAgent, session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) ValidateSession(sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	var ip, userAgent sql.NullString
	err := s.db.QueryRow(
		"SELECT id, expires_at, ip_address, user_agent, created_at FROM sessions WHERE id = ?",
		sessionID,
	).Scan(&session.ID, &session.ExpiresAt, &ip, &userAgent, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	session.IPAddress = ip.String
	session.UserAgent = userAgent.String

	if s.now().After(session.ExpiresAt) {
		_ = s.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	return &session, nil
}

func (s *AuthService) DeleteSession(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	return err
}

func (s *AuthService) CleanExpiredSessions() error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", s.now())
	return err
}
