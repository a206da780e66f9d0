// Package identity signs buyers up and in, and resolves bearer tokens into sessions.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"po-bridge-api-server/internal/apperr"
	"po-bridge-api-server/internal/auth"
	"po-bridge-api-server/internal/database"
	"po-bridge-api-server/internal/logger"
	"po-bridge-api-server/internal/models"
	"po-bridge-api-server/internal/session"

	"github.com/go-playground/validator/v10"
)

const MinPasswordLength = 8

// validate applies the same email rule as the HTTP binding layer.
var validate = validator.New()

// Session is the authenticated buyer carried through a request.
type Session struct {
	UserID    string    `json:"userID"`
	Email     string    `json:"email"`
	SessionID string    `json:"-"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	users    database.UserRepository
	sessions session.Store
	issuer   *auth.Issuer
	log      *logger.Logger
}

func NewService(users database.UserRepository, sessions session.Store, issuer *auth.Issuer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{users: users, sessions: sessions, issuer: issuer, log: log}
}

// SignUp creates a buyer account and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, apperr.New(apperr.KindValidation, "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperr.Newf(apperr.KindValidation, "password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "hashing password")
	}

	user := &models.User{
		Email:     email,
		Name:      strings.TrimSpace(name),
		Password:  hashed,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperr.New(apperr.KindConflict, "an account with this email already exists")
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "creating user")
	}

	s.log.Info(s.log.WithUserID(ctx, user.ID.Hex()), "buyer account created")
	return s.open(ctx, user)
}

// SignIn verifies credentials and opens a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.New(apperr.KindUnauthorized, "invalid email or password")
		}
		return nil, apperr.Wrap(apperr.KindDependency, err, "loading user")
	}
	if !auth.CheckPasswordHash(password, user.Password) {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid email or password")
	}
	if user.Status != "" && user.Status != models.UserStatusActive {
		return nil, apperr.New(apperr.KindForbidden, "account is not active")
	}
	return s.open(ctx, user)
}

func (s *Service) open(ctx context.Context, user *models.User) (*Session, error) {
	userID := user.ID.Hex()
	token, claims, err := s.issuer.GenerateJWT(userID, user.Email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "issuing token")
	}
	if err := s.sessions.Create(ctx, claims.ID, userID, s.issuer.TTL()); err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "storing session")
	}
	return &Session{
		UserID:    userID,
		Email:     user.Email,
		SessionID: claims.ID,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut ends the session; later Resolve calls with its token fail.
func (s *Service) SignOut(ctx context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return apperr.New(apperr.KindUnauthorized, "no active session")
	}
	if err := s.sessions.Revoke(ctx, sess.SessionID); err != nil {
		return apperr.Wrap(apperr.KindDependency, err, "revoking session")
	}
	return nil
}

// Resolve turns a bearer token into a live session.
func (s *Service) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := s.issuer.ParseJWT(strings.TrimSpace(token))
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid or expired token")
	}
	live, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDependency, err, "checking session")
	}
	if !live {
		return nil, apperr.New(apperr.KindUnauthorized, "session has ended")
	}
	return &Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
