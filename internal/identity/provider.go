package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/auth"
	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/events"
	"github.com/spec-kit/inventory-console/internal/repository"
	apperrors "github.com/spec-kit/inventory-console/pkg/util/errorutil"
)

// Session is the result of a successful sign-in.
type Session struct {
	Identity  domain.Identity
	Token     string
	ExpiresAt time.Time
}

// Provider authenticates email/password credentials and owns session lifetime.
type Provider struct {
	accounts      repository.AccountRepository
	sessions      SessionStore
	tokens        *auth.TokenManager
	dispatcher    events.Dispatcher
	allowedDomain string
	bcryptCost    int
	logger        *zap.Logger
}

// Dependencies bundles the provider collaborators.
type Dependencies struct {
	Accounts      repository.AccountRepository
	Sessions      SessionStore
	Tokens        *auth.TokenManager
	Dispatcher    events.Dispatcher
	AllowedDomain string
	BcryptCost    int
	Logger        *zap.Logger
}

// NewProvider builds the identity provider.
func NewProvider(deps Dependencies) *Provider {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		accounts:      deps.Accounts,
		sessions:      deps.Sessions,
		tokens:        deps.Tokens,
		dispatcher:    deps.Dispatcher,
		allowedDomain: strings.TrimPrefix(strings.ToLower(deps.AllowedDomain), "@"),
		bcryptCost:    deps.BcryptCost,
		logger:        logger,
	}
}

// AllowedDomain returns the sign-in email domain.
func (p *Provider) AllowedDomain() string {
	return p.allowedDomain
}

// DomainAllowed reports whether email belongs to the sign-in domain.
func (p *Provider) DomainAllowed(email string) bool {
	if p.allowedDomain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+p.allowedDomain)
}

// SignIn verifies credentials, persists a new session and announces it.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", nil)
	}
	if !p.DomainAllowed(email) {
		p.logger.Warn("sign-in from unauthorized domain", zap.String("email", email))
		return nil, apperrors.NewAuthFailure("Please use your @"+p.allowedDomain+" email.", map[string]any{"reason": "domain"})
	}

	account, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthFailure("Sign-in failed. Check credentials.", nil)
		}
		return nil, apperrors.NewDataFetchFailure("accounts", err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewAuthFailure("Sign-in failed. Check credentials.", nil)
	}
	if auth.NeedsRehash(account.PasswordHash, p.bcryptCost) {
		p.rehash(ctx, account, password)
	}

	identity := domain.Identity{SessionID: uuid.NewString(), Email: account.Email, IssuedAt: time.Now()}
	token, exp, err := p.tokens.GenerateToken(identity.SessionID, identity.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := p.sessions.Create(ctx, identity, p.tokens.TTL()); err != nil {
		return nil, apperrors.NewWriteFailure("could not persist session", err)
	}

	p.publish(ctx, identity.SessionID, &identity)
	return &Session{Identity: identity, Token: token, ExpiresAt: exp}, nil
}

// SignOut ends the session and announces that no identity remains.
func (p *Provider) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.NewWriteFailure("could not end session", err)
	}
	p.publish(ctx, sessionID, nil)
	return nil
}

// Lookup returns the identity persisted for a session, or nil.
func (p *Provider) Lookup(ctx context.Context, sessionID string) (*domain.Identity, error) {
	if sessionID == "" {
		return nil, nil
	}
	return p.sessions.Get(ctx, sessionID)
}

// Restore re-announces a persisted session, as a page load does.
func (p *Provider) Restore(ctx context.Context, sessionID string) (*domain.Identity, error) {
	identity, err := p.Lookup(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewDataFetchFailure("session", err)
	}
	if identity == nil {
		return nil, nil
	}
	p.publish(ctx, sessionID, identity)
	return identity, nil
}

// OnSessionChange registers handler for every session change.
func (p *Provider) OnSessionChange(handler events.EventHandler) {
	p.dispatcher.Subscribe(events.EventSessionChanged, handler)
}

// ParseToken resolves a bearer token to its session id.
func (p *Provider) ParseToken(token string) (string, error) {
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

// Register creates or replaces an account.
func (p *Provider) Register(ctx context.Context, email, password string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", nil)
	}
	hash, err := auth.HashPassword(password, p.bcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{Email: email, PasswordHash: hash}
	if err := p.accounts.Upsert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (p *Provider) rehash(ctx context.Context, account *domain.Account, password string) {
	hash, err := auth.HashPassword(password, p.bcryptCost)
	if err == nil {
		account.PasswordHash = hash
		err = p.accounts.Upsert(ctx, account)
	}
	if err != nil {
		p.logger.Warn("password rehash failed", zap.String("email", account.Email), zap.Error(err))
	}
}

func (p *Provider) publish(ctx context.Context, sessionID string, identity *domain.Identity) {
	actor := ""
	if identity != nil {
		actor = identity.Email
	}
	err := p.dispatcher.Publish(ctx, events.Event{
		Type:    events.EventSessionChanged,
		Subject: sessionID,
		Actor:   actor,
		Payload: events.SessionChangedPayload{SessionID: sessionID, Identity: identity},
	})
	if err != nil {
		p.logger.Warn("session change handler failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}
