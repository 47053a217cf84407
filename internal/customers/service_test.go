package customers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zaika-foods/zaika-backend/pkg/auth"
	"github.com/zaika-foods/zaika-backend/pkg/config"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
)

func newCustomerDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(`
		CREATE TABLE customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			phone TEXT,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'customer',
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	t.Cleanup(func() {
		_ = conn.Exec("DROP TABLE customers").Error
	})
	return conn
}

type memorySessions struct {
	tokens  map[string]string
	revoked map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{tokens: map[string]string{}, revoked: map[string]bool{}}
}

func (m *memorySessions) Generate(_ context.Context, accessID string) (string, error) {
	token := uuid.NewString()
	m.tokens[accessID] = token
	delete(m.revoked, accessID)
	return token, nil
}

func (m *memorySessions) Rotate(_ context.Context, accessID, provided string) (string, string, error) {
	current, ok := m.tokens[accessID]
	if !ok || current != provided {
		return "", "", pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token mismatch")
	}
	next := uuid.NewString()
	m.tokens[accessID] = next
	return accessID, next, nil
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	delete(m.tokens, accessID)
	m.revoked[accessID] = true
	return nil
}

type memoryGuests struct{ values map[string]string }

func newMemoryGuests() *memoryGuests { return &memoryGuests{values: map[string]string{}} }

func (m *memoryGuests) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryGuests) Get(_ context.Context, key string) (string, error) {
	return m.values[key], nil
}

func (m *memoryGuests) GuestSessionKey(token string) string { return "zk:session:guest:" + token }

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-at-least-32-bytes-long!",
		Issuer:            "zaika-test",
		ExpirationMinutes: 15,
	}
}

func newCustomerService(t *testing.T, conn *gorm.DB) (*Service, *memorySessions, *memoryGuests) {
	t.Helper()
	sessions := newMemorySessions()
	guests := newMemoryGuests()
	svc, err := NewService(NewRepository(conn), sessions, guests, testJWTConfig(), config.PasswordConfig{}, time.Hour)
	require.NoError(t, err)
	return svc, sessions, guests
}

func registerInput() RegisterInput {
	return RegisterInput{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Phone:    "98765 43210",
		Password: "sup3r-secret",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	conn := newCustomerDB(t)
	svc, _, _ := newCustomerService(t, conn)
	ctx := context.Background()

	created, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.AccessToken)
	require.NotEmpty(t, created.RefreshToken)
	require.Equal(t, "asha@example.com", created.Customer.Email)
	require.False(t, strings.Contains(created.Customer.PasswordHash, "sup3r-secret"))

	logged, err := svc.Login(ctx, "ASHA@example.com", "sup3r-secret")
	require.NoError(t, err)
	require.Equal(t, created.Customer.ID, logged.Customer.ID)

	claims, err := auth.ParseAccessToken(testJWTConfig(), logged.AccessToken)
	require.NoError(t, err)
	require.Equal(t, created.Customer.ID, claims.CustomerID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	conn := newCustomerDB(t)
	svc, _, _ := newCustomerService(t, conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput())
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestRegisterValidation(t *testing.T) {
	conn := newCustomerDB(t)
	svc, _, _ := newCustomerService(t, conn)
	ctx := context.Background()

	bad := registerInput()
	bad.Email = "not-an-email"
	bad.Password = "short"
	bad.Phone = "12345"

	_, err := svc.Register(ctx, bad)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestLoginWrongPassword(t *testing.T) {
	conn := newCustomerDB(t)
	svc, _, _ := newCustomerService(t, conn)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "asha@example.com", "wrong-password")
	require.Error(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever-pass")
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	conn := newCustomerDB(t)
	svc, sessions, _ := newCustomerService(t, conn)
	ctx := context.Background()

	created, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, created.AccessToken, created.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, created.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is dead after rotation.
	_, err = svc.Refresh(ctx, created.AccessToken, created.RefreshToken)
	require.Error(t, err)

	require.NoError(t, svc.Logout(ctx, created.Customer.ID))
	require.True(t, sessions.revoked[created.Customer.ID.String()])
}

func TestGuestSessionLifecycle(t *testing.T) {
	conn := newCustomerDB(t)
	svc, _, _ := newCustomerService(t, conn)
	ctx := context.Background()

	token, err := svc.GuestSession(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, GuestTokenPrefix))

	ok, err := svc.ValidateGuest(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.ValidateGuest(ctx, GuestTokenPrefix+uuid.NewString())
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.ValidateGuest(ctx, "not-a-guest-token")
	require.NoError(t, err)
	require.False(t, ok)
}
