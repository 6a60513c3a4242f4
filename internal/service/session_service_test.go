package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// --- fakes ---

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User

	createErr error
	getErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) delete(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeRefreshRepo struct {
	mu      sync.Mutex
	records map[string]*domain.RefreshTokenRecord

	createErr error
	deleteErr error
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{records: make(map[string]*domain.RefreshTokenRecord)}
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID int64, ttl time.Duration) (*domain.RefreshTokenRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	record := &domain.RefreshTokenRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeRefreshRepo) GetByID(_ context.Context, id string) (*domain.RefreshTokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	// Mirror the store's expires_at > NOW() filter: expired rows are absent.
	if !ok || !record.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeRefreshRepo) expire(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[id]; ok {
		record.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

func (f *fakeRefreshRepo) DeleteByID(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeRefreshRepo) countForUser(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, record := range f.records {
		if record.UserID == userID {
			count++
		}
	}
	return count
}

// --- helpers ---

func testAuthConfig(t *testing.T) (config.AuthConfig, *auth.KeyPair) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	keys, err := auth.LoadKeyPair(pemBytes)
	require.NoError(t, err)

	cfg := config.AuthConfig{
		RefreshSecret:        "test-refresh-secret",
		Issuer:               "auth-service",
		AccessTokenTTLMin:    60,
		RefreshTokenTTLHours: 8760,
		BcryptCost:           4,
	}
	return cfg, keys
}

func newTestService(t *testing.T) (*SessionService, *fakeUserRepo, *fakeRefreshRepo, config.AuthConfig, *auth.KeyPair) {
	t.Helper()

	cfg, keys := testAuthConfig(t)
	users := newFakeUserRepo()
	records := newFakeRefreshRepo()
	svc := NewSessionService(cfg, keys, SessionDependencies{
		UserRepo:         users,
		RefreshTokenRepo: records,
	})
	return svc, users, records, cfg, keys
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code)
}

// --- tests ---

func TestRegisterThenLogin(t *testing.T) {
	t.Parallel()

	svc, _, records, cfg, keys := newTestService(t)
	ctx := context.Background()

	user, registerPair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.Equal(t, domain.RoleCustomer, user.Role)
	require.NotEmpty(t, registerPair.AccessToken)
	require.NotEmpty(t, registerPair.RefreshToken)

	loggedIn, loginPair, err := svc.Login(ctx, "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	// A fresh access token per issuance, same subject throughout.
	require.NotEqual(t, registerPair.AccessToken, loginPair.AccessToken)

	accessSigner := auth.NewAccessTokenSigner(keys, cfg.Issuer, cfg.AccessTokenTTL())
	claims, err := accessSigner.Verify(loginPair.AccessToken)
	require.NoError(t, err)
	subject, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, user.ID, subject)

	// One record per issuance: register + login.
	require.Equal(t, 2, records.countForUser(user.ID))
}

func TestRegisterTrimsFields(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "  Sourav ", " Yadav ", "  sourav@mern.space  ", "passwordSecret")
	require.NoError(t, err)
	require.Equal(t, "Sourav", user.FirstName)
	require.Equal(t, "Yadav", user.LastName)
	require.Equal(t, "sourav@mern.space", user.Email)

	stored, err := users.GetByEmail(ctx, "sourav@mern.space")
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Another", "Person", "sourav@mern.space", "otherPassword")
	requireDomainCode(t, err, "DUPLICATE_EMAIL")
}

func TestLoginUniformFailure(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	// Unknown email and wrong password must be indistinguishable.
	_, _, unknownErr := svc.Login(ctx, "nobody@mern.space", "passwordSecret")
	requireDomainCode(t, unknownErr, "INVALID_CREDENTIALS")

	_, _, wrongErr := svc.Login(ctx, "sourav@mern.space", "wrongPassword")
	requireDomainCode(t, wrongErr, "INVALID_CREDENTIALS")
}

func TestLoginStorageFailure(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newTestService(t)
	users.getErr = errors.New("connection reset")

	_, _, err := svc.Login(context.Background(), "sourav@mern.space", "passwordSecret")
	requireDomainCode(t, err, "STORAGE_FAILURE")
}

func TestRefreshRotation(t *testing.T) {
	t.Parallel()

	svc, _, records, cfg, _ := newTestService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	refreshSigner := auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL())
	claims, err := refreshSigner.Verify(pair.RefreshToken)
	require.NoError(t, err)
	oldRecordID := claims.RecordID()

	refreshed, newPair, err := svc.Refresh(ctx, auth.AuthContext{
		Subject:  user.ID,
		Role:     user.Role,
		RecordID: oldRecordID,
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, refreshed.ID)

	// The old record is gone and exactly one live record remains.
	old, err := records.GetByID(ctx, oldRecordID)
	require.NoError(t, err)
	require.Nil(t, old)
	require.Equal(t, 1, records.countForUser(user.ID))

	// The new refresh token binds to the surviving record.
	newClaims, err := refreshSigner.Verify(newPair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, oldRecordID, newClaims.RecordID())
	survivor, err := records.GetByID(ctx, newClaims.RecordID())
	require.NoError(t, err)
	require.NotNil(t, survivor)
}

func TestRefreshDeletedUser(t *testing.T) {
	t.Parallel()

	svc, users, _, cfg, _ := newTestService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	refreshSigner := auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL())
	claims, err := refreshSigner.Verify(pair.RefreshToken)
	require.NoError(t, err)

	users.delete(user.ID)

	_, _, err = svc.Refresh(ctx, auth.AuthContext{
		Subject:  user.ID,
		Role:     user.Role,
		RecordID: claims.RecordID(),
	})
	requireDomainCode(t, err, "USER_NOT_FOUND")
}

func TestRefreshCrashWindowLeavesStaleRecord(t *testing.T) {
	t.Parallel()

	// New record is created before the old one is deleted. If the delete
	// fails, the stale record survives and expires naturally; the session
	// must never be left with zero valid records.
	svc, _, records, cfg, _ := newTestService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	refreshSigner := auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL())
	claims, err := refreshSigner.Verify(pair.RefreshToken)
	require.NoError(t, err)

	records.deleteErr = errors.New("connection lost")
	_, _, err = svc.Refresh(ctx, auth.AuthContext{
		Subject:  user.ID,
		Role:     user.Role,
		RecordID: claims.RecordID(),
	})
	requireDomainCode(t, err, "STORAGE_FAILURE")

	// Old record still present, new record already inserted.
	require.Equal(t, 2, records.countForUser(user.ID))
	old, err := records.GetByID(ctx, claims.RecordID())
	require.NoError(t, err)
	require.NotNil(t, old)
}

func TestExpiredRecordIsInvisible(t *testing.T) {
	t.Parallel()

	svc, _, records, cfg, _ := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	refreshSigner := auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL())
	claims, err := refreshSigner.Verify(pair.RefreshToken)
	require.NoError(t, err)

	// An expired record no longer backs the token, no matter how valid the
	// signature still is.
	records.expire(claims.RecordID())
	record, err := records.GetByID(ctx, claims.RecordID())
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestRefreshConcurrentSameToken(t *testing.T) {
	t.Parallel()

	svc, _, records, cfg, _ := newTestService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	refreshSigner := auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL())
	claims, err := refreshSigner.Verify(pair.RefreshToken)
	require.NoError(t, err)
	authCtx := auth.AuthContext{Subject: user.ID, Role: user.Role, RecordID: claims.RecordID()}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.Refresh(ctx, authCtx)
		}(i)
	}
	wg.Wait()

	// The second delete hits an already-deleted row, which is a no-op, so
	// neither call may crash or report a storage fault.
	for _, err := range errs {
		require.NoError(t, err)
	}

	old, err := records.GetByID(ctx, authCtx.RecordID)
	require.NoError(t, err)
	require.Nil(t, old)
}

func TestIssuanceFailureLeavesNoTokens(t *testing.T) {
	t.Parallel()

	svc, _, records, _, _ := newTestService(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	// Record insert happens before signing; when it fails no token pair is
	// observable.
	records.createErr = errors.New("insert failed")
	_, failedPair, err := svc.Login(ctx, "sourav@mern.space", "passwordSecret")
	requireDomainCode(t, err, "STORAGE_FAILURE")
	require.Empty(t, failedPair.AccessToken)
	require.Empty(t, failedPair.RefreshToken)
}

func TestLogoutIdempotent(t *testing.T) {
	t.Parallel()

	svc, _, records, cfg, _ := newTestService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	refreshSigner := auth.NewRefreshTokenSigner(cfg.RefreshSecret, cfg.Issuer, cfg.RefreshTokenTTL())
	claims, err := refreshSigner.Verify(pair.RefreshToken)
	require.NoError(t, err)
	authCtx := auth.AuthContext{Subject: user.ID, Role: user.Role, RecordID: claims.RecordID()}

	require.NoError(t, svc.Logout(ctx, authCtx))
	require.Equal(t, 0, records.countForUser(user.ID))

	// Retried logout with the same record id still succeeds.
	require.NoError(t, svc.Logout(ctx, authCtx))
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	svc, users, _, _, _ := newTestService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "Sourav", "Yadav", "sourav@mern.space", "passwordSecret")
	require.NoError(t, err)

	current, err := svc.CurrentUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, current.Email)

	users.delete(user.ID)
	_, err = svc.CurrentUser(ctx, user.ID)
	requireDomainCode(t, err, "NOT_FOUND")
}
