package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/logging"
	"tasktracker/internal/password"
	"tasktracker/internal/token"
	"tasktracker/internal/user"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
	accessMs      = int64(3600000)    // 1 hour
	refreshMs     = int64(604800000)  // 7 days
)

// fakeStore is an in-memory UserStore with the repository's patch semantics
// and injectable failures.
type fakeStore struct {
	users map[uuid.UUID]*user.User

	getByEmailErr error
	getByIDErr    error
	updateErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeStore) add(u *user.User) {
	clone := *u
	f.users[u.ID] = &clone
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.getByEmailErr != nil {
		return nil, f.getByEmailErr
	}
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeStore) Update(ctx context.Context, id uuid.UUID, patch user.Patch) (*user.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.RefreshTokenHash != nil {
		if patch.RefreshTokenHash.Valid {
			value := patch.RefreshTokenHash.String
			u.RefreshTokenHash = &value
		} else {
			u.RefreshTokenHash = nil
		}
	}
	u.UpdatedAt = time.Now()
	clone := *u
	return &clone, nil
}

func testHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)
	return h
}

type fixture struct {
	store         *fakeStore
	service       *Service
	hasher        *password.Hasher
	accessIssuer  token.Issuer
	refreshIssuer token.Issuer
	userID        uuid.UUID
}

// newFixture seeds one user with the given password and wires a service with
// real hashing and real JWT issuers.
func newFixture(t *testing.T, email, plaintextPassword string) *fixture {
	t.Helper()

	hasher := testHasher(t)
	accessIssuer, err := token.NewIssuer(token.BackendJWT, accessSecret, accessMs)
	require.NoError(t, err)
	refreshIssuer, err := token.NewIssuer(token.BackendJWT, refreshSecret, refreshMs)
	require.NoError(t, err)

	passwordHash, err := hasher.Hash(plaintextPassword)
	require.NoError(t, err)

	store := newFakeStore()
	id := uuid.New()
	store.add(&user.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})

	service := NewService(store, hasher, accessIssuer, refreshIssuer, logging.NewLogger(true), accessMs, refreshMs)

	return &fixture{
		store:         store,
		service:       service,
		hasher:        hasher,
		accessIssuer:  accessIssuer,
		refreshIssuer: refreshIssuer,
		userID:        id,
	}
}

func TestLoginIssuesTokenPairForValidCredentials(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")

	result, err := f.service.Login(context.Background(), "john.doe@example.com", "Aa@123456")
	require.NoError(t, err)

	assert.Equal(t, f.userID, result.User.ID)
	assert.Equal(t, "john.doe@example.com", result.User.Email)
	assert.Equal(t, accessMs, result.AccessTokenExpiresIn)
	assert.Equal(t, refreshMs, result.RefreshTokenExpiresIn)

	accessClaims, err := f.accessIssuer.Verify(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.userID, accessClaims.UserID)
	assert.Equal(t, "john.doe@example.com", accessClaims.Email)

	refreshClaims, err := f.refreshIssuer.Verify(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, f.userID, refreshClaims.UserID)

	// Access and refresh tokens are signed with independent secrets.
	_, err = f.accessIssuer.Verify(result.RefreshToken)
	assert.Error(t, err)
}

func TestLoginUnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")

	_, errUnknown := f.service.Login(context.Background(), "nope@example.com", "x")
	_, errWrongPw := f.service.Login(context.Background(), "john.doe@example.com", "wrong-password")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error(),
		"failure must not leak whether the email exists")

	stored := f.store.users[f.userID]
	assert.Nil(t, stored.RefreshTokenHash, "no token may be issued on failed login")
}

func TestLoginRotatesStoredRefreshTokenHash(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	ctx := context.Background()

	first, err := f.service.Login(ctx, "john.doe@example.com", "Aa@123456")
	require.NoError(t, err)

	stored := f.store.users[f.userID]
	require.NotNil(t, stored.RefreshTokenHash)
	assert.True(t, f.hasher.Verify(first.RefreshToken, *stored.RefreshTokenHash),
		"stored hash must correspond to the most recently issued refresh token")

	second, err := f.service.Login(ctx, "john.doe@example.com", "Aa@123456")
	require.NoError(t, err)

	stored = f.store.users[f.userID]
	require.NotNil(t, stored.RefreshTokenHash)
	assert.True(t, f.hasher.Verify(second.RefreshToken, *stored.RefreshTokenHash))
	assert.False(t, f.hasher.Verify(first.RefreshToken, *stored.RefreshTokenHash),
		"a prior session's refresh token must no longer match after rotation")
}

func TestRefreshReissuesAndRotates(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	ctx := context.Background()

	login, err := f.service.Login(ctx, "john.doe@example.com", "Aa@123456")
	require.NoError(t, err)

	refreshed, err := f.service.Refresh(ctx, login.RefreshToken, f.userID)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, accessMs, refreshed.AccessTokenExpiresIn)

	// Strict rotation: the first refresh token is single-use.
	_, err = f.service.Refresh(ctx, login.RefreshToken, f.userID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// The newly issued one works.
	_, err = f.service.Refresh(ctx, refreshed.RefreshToken, f.userID)
	assert.NoError(t, err)
}

func TestRefreshRejectsWellFormedTokenNotMatchingStoredHash(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	ctx := context.Background()

	_, err := f.service.Login(ctx, "john.doe@example.com", "Aa@123456")
	require.NoError(t, err)

	// Correctly signed for this user, but never the token whose hash is stored.
	forged, err := f.refreshIssuer.Issue(token.Payload{UserID: f.userID, Email: "john.doe@example.com"})
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, forged, f.userID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshWithoutStoredHashFails(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")

	// Never logged in: no stored hash.
	_, err := f.service.Refresh(context.Background(), "anything", f.userID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshUnknownUserIsOpaque(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")

	_, errUnknown := f.service.Refresh(context.Background(), "anything", uuid.New())
	_, errNoHash := f.service.Refresh(context.Background(), "anything", f.userID)

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errNoHash.Error(), errUnknown.Error(),
		"a nonexistent user must be indistinguishable from one without a session")
}

func TestLogoutClearsStoredHashAndBlocksRefresh(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	ctx := context.Background()

	login, err := f.service.Login(ctx, "john.doe@example.com", "Aa@123456")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, f.userID))
	assert.Nil(t, f.store.users[f.userID].RefreshTokenHash)

	_, err = f.service.Refresh(ctx, login.RefreshToken, f.userID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionLifecycleScenario(t *testing.T) {
	f := newFixture(t, "u1@example.com", "Aa@123456")
	ctx := context.Background()

	// u1 logs in with correct credentials and receives A1, R1.
	s1, err := f.service.Login(ctx, "u1@example.com", "Aa@123456")
	require.NoError(t, err)

	// refresh with R1 yields A2, R2.
	s2, err := f.service.Refresh(ctx, s1.RefreshToken, f.userID)
	require.NoError(t, err)
	assert.NotEqual(t, s1.AccessToken, s2.AccessToken)

	// R1 is no longer valid for a second refresh.
	_, err = f.service.Refresh(ctx, s1.RefreshToken, f.userID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// logout, then refresh with R2 fails.
	require.NoError(t, f.service.Logout(ctx, f.userID))
	_, err = f.service.Refresh(ctx, s2.RefreshToken, f.userID)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSurfacesRotationPersistenceFailure(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	f.store.updateErr = errors.New("transaction failed")

	result, err := f.service.Login(context.Background(), "john.doe@example.com", "Aa@123456")
	require.Error(t, err, "a failed rotation must never look like a successful login")
	assert.Nil(t, result)
	assert.NotErrorIs(t, err, ErrInvalidCredentials, "infrastructure failure is not a credentials problem")
}

func TestLoginStoreOutageIsOpaque(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	f.store.getByEmailErr = errors.New("connection refused")

	_, err := f.service.Login(context.Background(), "john.doe@example.com", "Aa@123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials,
		"lookup failures collapse into the opaque unauthorized error")
}

func TestLogoutSurfacesPersistenceFailure(t *testing.T) {
	f := newFixture(t, "john.doe@example.com", "Aa@123456")
	f.store.updateErr = errors.New("transaction failed")

	err := f.service.Logout(context.Background(), f.userID)
	require.Error(t, err, "logout must be confirmable, not best-effort")
}
