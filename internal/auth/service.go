package auth

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/validation"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const invalidCredentials = "invalid email or password"

// SessionStore persists server-side sessions.
type SessionStore interface {
	Save(ctx context.Context, session storage.Session) error
	Get(ctx context.Context, id string) (*storage.Session, error)
	Delete(ctx context.Context, id string) error
}

// Service signs administrators in and out and resolves tokens to principals.
type Service struct {
	Users    storage.Repository[models.AdminUser]
	Sessions SessionStore
	Tokens   *TokenIssuer
	Now      func() time.Time
}

// NewService creates an auth service.
func NewService(users storage.Repository[models.AdminUser], sessions SessionStore, tokens *TokenIssuer) *Service {
	return &Service{Users: users, Sessions: sessions, Tokens: tokens, Now: time.Now}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      *models.AdminUser `json:"user"`
}

// Login checks the credentials, opens a session and returns a signed token for it.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidation("email", "email and password are required")
	}

	user, err := s.Users.FindOne(ctx, map[string]any{"email": email})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to load account", err)
	}
	if !user.Active || user.CheckPassword(password) != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	role, err := ParseRole(user.Role)
	if err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials, err)
	}

	now := s.Now()
	session := storage.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(role),
		CreatedAt: now,
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewUnexpected("failed to create session", err)
	}

	token, expires, err := s.Tokens.Issue(user.ID, session.ID, role)
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to issue token", err)
	}

	if err := s.Users.UpdateColumns(ctx, user.ID, map[string]any{"last_login_at": now}); err != nil {
		slog.WarnContext(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	slog.InfoContext(ctx, "administrator signed in", "user_id", user.ID, "role", role)
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves a bearer token to the principal of its live session.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return Principal{}, apperrors.NewUnauthorized("invalid or expired token", err)
	}

	session, err := s.Sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return Principal{}, apperrors.NewUnauthorized("session has expired")
	}
	if err != nil {
		return Principal{}, apperrors.NewUnexpected("failed to load session", err)
	}
	if session.UserID != claims.Subject {
		return Principal{}, apperrors.NewUnauthorized("invalid or expired token")
	}

	return Principal{
		UserID:    session.UserID,
		Email:     session.Email,
		Name:      session.Name,
		Role:      Role(session.Role),
		SessionID: session.ID,
	}, nil
}

// Logout ends the principal's session. Tokens pointing at it stop working immediately.
func (s *Service) Logout(ctx context.Context, p Principal) error {
	if p.SessionID == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, p.SessionID); err != nil {
		return apperrors.NewUnexpected("failed to end session", err)
	}
	return nil
}

// CreateAdmin adds a staff account.
func (s *Service) CreateAdmin(ctx context.Context, email, name, role, password string) (*models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Field("email", email, "required,email"); err != nil {
		return nil, err
	}
	if err := validation.Field("name", strings.TrimSpace(name), "required,min=2"); err != nil {
		return nil, err
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, apperrors.NewValidation("role", "Role must be one of: editor, admin, super_admin")
	}

	user := &models.AdminUser{
		Email:  email,
		Name:   strings.TrimSpace(name),
		Role:   string(parsed),
		Active: true,
	}
	if err := user.SetPassword(password); err != nil {
		if errors.Is(err, models.ErrPasswordTooShort) {
			return nil, apperrors.NewValidation("password", "Password must be at least 12 characters")
		}
		return nil, apperrors.NewUnexpected("failed to hash password", err)
	}

	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperrors.NewConflict("an administrator with this email already exists")
		}
		return nil, apperrors.NewUnexpected("failed to create administrator", err)
	}
	slog.InfoContext(ctx, "administrator created", "user_id", user.ID, "role", user.Role)
	return user, nil
}
