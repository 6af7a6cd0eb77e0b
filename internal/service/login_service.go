package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/guard"
	"github.com/spec-kit/inventory-console/internal/identity"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// Authenticator signs sessions in and out.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

// SessionResolver returns the user context of a session.
type SessionResolver interface {
	Current(ctx context.Context, sessionID string) (*domain.UserContext, error)
}

// LoginResult is what a successful sign-in shows the caller.
type LoginResult struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	Redirect  string              `json:"redirect"`
	User      *domain.UserContext `json:"user"`
}

// LoginService coordinates sign-in with role resolution.
type LoginService struct {
	auth     Authenticator
	sessions SessionResolver
	logger   *zap.Logger
}

// NewLoginService builds the service.
func NewLoginService(auth Authenticator, sessions SessionResolver, logger *zap.Logger) *LoginService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginService{auth: auth, sessions: sessions, logger: logger}
}

// Login signs the caller in and picks their dashboard. Accounts without a
// role are signed straight back out.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	session, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sid := session.Identity.SessionID

	user, err := s.sessions.Current(ctx, sid)
	if err != nil {
		s.signOut(ctx, sid)
		return nil, err
	}
	var (
		home guard.Page
		ok   bool
	)
	if user != nil {
		home, ok = guard.Home(user.RoleKey)
	}
	if !ok {
		s.signOut(ctx, sid)
		name := session.Identity.Email
		if user != nil {
			name = user.DisplayName
		}
		s.logger.Warn("sign-in without role", zap.String("email", session.Identity.Email))
		return nil, apperrors.NewAuthorizationFailure(
			fmt.Sprintf("Hello %s, you do not have access to this dashboard.", name),
			map[string]any{"title": "Unauthorized User"},
		)
	}

	s.logger.Info("signed in", zap.String("email", user.Email), zap.String("role", string(user.RoleKey)))
	return &LoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Title:     "Login Successful",
		Message:   fmt.Sprintf("Welcome %s, %s", user.DisplayName, user.RoleLabel),
		Redirect:  home.Path(),
		User:      user,
	}, nil
}

// Logout ends the session.
func (s *LoginService) Logout(ctx context.Context, sessionID string) error {
	return s.auth.SignOut(ctx, sessionID)
}

func (s *LoginService) signOut(ctx context.Context, sid string) {
	if err := s.auth.SignOut(ctx, sid); err != nil {
		s.logger.Warn("sign-out after failed login", zap.String("session_id", sid), zap.Error(err))
	}
}
