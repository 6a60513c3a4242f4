package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// SessionService orchestrates credential verification, token issuance and the
// refresh-token rotation protocol.
type SessionService struct {
	users      repository.UserRepository
	records    repository.RefreshTokenRepository
	hasher     *auth.Hasher
	access     *auth.AccessTokenSigner
	refresh    *auth.RefreshTokenSigner
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SessionDependencies encapsulates repo requirements for the session service.
type SessionDependencies struct {
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewSessionService builds the service. The key pair must already be loaded;
// key problems are startup failures, not request failures.
func NewSessionService(cfg config.AuthConfig, keys *auth.KeyPair, deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		users:      deps.UserRepo,
		records:    deps.RefreshTokenRepo,
		hasher:     auth.NewHasher(cfg.BcryptCost),
		access:     auth.NewAccessTokenSigner(keys, cfg.Issuer, cfg.AccessTokenTTL()),
		refresh:    auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL()),
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Register creates a new account and issues the first session.
func (s *SessionService) Register(ctx context.Context, firstName, lastName, email, password string) (*domain.User, domain.TokenPair, error) {
	email = strings.TrimSpace(email)
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.TokenPair{}, apperrors.NewStorageFailure(err)
	}
	if existing != nil {
		return nil, domain.TokenPair{}, apperrors.NewDuplicateEmail()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, domain.TokenPair{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.TokenPair{}, apperrors.NewStorageFailure(err)
	}

	pair, _, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	s.publish(ctx, events.EventUserRegistered, user, nil)
	return user, pair, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// fail identically.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, domain.TokenPair{}, apperrors.NewStorageFailure(err)
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.TokenPair{}, apperrors.NewInvalidCredentials()
	}

	pair, _, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	s.publish(ctx, events.EventUserLoggedIn, user, nil)
	return user, pair, nil
}

// Refresh rotates the session identified by the verified refresh token. The
// new record is created before the old one is deleted: a crash between the
// two never leaves the session without a valid refresh token, at worst it
// leaves a stale record that expires naturally.
func (s *SessionService) Refresh(ctx context.Context, authCtx auth.AuthContext) (*domain.User, domain.TokenPair, error) {
	user, err := s.users.GetByID(ctx, authCtx.Subject)
	if err != nil {
		return nil, domain.TokenPair{}, apperrors.NewStorageFailure(err)
	}
	if user == nil {
		return nil, domain.TokenPair{}, apperrors.NewUserNotFound()
	}

	pair, record, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	if err := s.records.DeleteByID(ctx, authCtx.RecordID); err != nil {
		return nil, domain.TokenPair{}, apperrors.NewStorageFailure(err)
	}

	s.logger.Info("session refreshed",
		zap.Int64("user_id", user.ID),
		zap.String("old_record_id", authCtx.RecordID),
		zap.String("new_record_id", record.ID),
	)
	s.publish(ctx, events.EventSessionRefreshed, user, events.SessionRefreshedPayload{
		OldRecordID: authCtx.RecordID,
		NewRecordID: record.ID,
	})
	return user, pair, nil
}

// Logout revokes the session by deleting its backing record. Idempotent: a
// retried logout with an already-deleted record still succeeds.
func (s *SessionService) Logout(ctx context.Context, authCtx auth.AuthContext) error {
	if err := s.records.DeleteByID(ctx, authCtx.RecordID); err != nil {
		return apperrors.NewStorageFailure(err)
	}

	s.logger.Info("user logged out",
		zap.Int64("user_id", authCtx.Subject),
		zap.String("record_id", authCtx.RecordID),
	)
	s.publish(ctx, events.EventSessionRevoked, &domain.User{ID: authCtx.Subject, Role: authCtx.Role},
		events.SessionRevokedPayload{RecordID: authCtx.RecordID})
	return nil
}

// CurrentUser loads the account behind a verified access token.
func (s *SessionService) CurrentUser(ctx context.Context, subject int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		return nil, apperrors.NewStorageFailure(err)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user")
	}
	return user, nil
}

// AccessSigner exposes the access-token signer for middleware usage.
func (s *SessionService) AccessSigner() *auth.AccessTokenSigner {
	return s.access
}

// RefreshSigner exposes the refresh-token signer for middleware usage.
func (s *SessionService) RefreshSigner() *auth.RefreshTokenSigner {
	return s.refresh
}

// issueTokens is the issuance tail shared by register, login and refresh.
// The record insert happens first; signing is pure given valid claims, so a
// signed token without a backing record is never observable.
func (s *SessionService) issueTokens(ctx context.Context, user *domain.User) (domain.TokenPair, *domain.RefreshTokenRecord, error) {
	record, err := s.records.Create(ctx, user.ID, s.refresh.TTL())
	if err != nil {
		return domain.TokenPair{}, nil, apperrors.NewStorageFailure(err)
	}

	accessToken, err := s.access.Sign(user.ID, user.Role)
	if err != nil {
		return domain.TokenPair{}, nil, apperrors.NewInternalError(err)
	}
	refreshToken, err := s.refresh.Sign(user.ID, user.Role, record.ID)
	if err != nil {
		return domain.TokenPair{}, nil, apperrors.NewInternalError(err)
	}

	return domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, record, nil
}

func (s *SessionService) publish(ctx context.Context, eventType events.EventType, user *domain.User, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    user.ID,
		Role:      user.Role,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
