package customers

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zaika-foods/zaika-backend/pkg/auth"
	"github.com/zaika-foods/zaika-backend/pkg/config"
	"github.com/zaika-foods/zaika-backend/pkg/db"
	"github.com/zaika-foods/zaika-backend/pkg/db/models"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/security"
	"github.com/zaika-foods/zaika-backend/pkg/types"
)

const minPasswordLength = 8

// GuestTokenPrefix distinguishes guest customer refs from account UUIDs.
const GuestTokenPrefix = "guest:"

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthResult bundles the account with a fresh token pair.
type AuthResult struct {
	Customer     *models.Customer
	AccessToken  string
	RefreshToken string
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type guestStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GuestSessionKey(token string) string
}

// Service handles registration, login, token refresh and guest sessions.
type Service struct {
	repo        *Repository
	sessions    sessionManager
	guests      guestStore
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	guestTTL    time.Duration
	now         func() time.Time
}

// NewService constructs the customers service.
func NewService(repo *Repository, sessions sessionManager, guests guestStore, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, guestTTL time.Duration) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if guestTTL <= 0 {
		guestTTL = 720 * time.Hour
	}
	return &Service{
		repo:        repo,
		sessions:    sessions,
		guests:      guests,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		guestTTL:    guestTTL,
		now:         time.Now,
	}, nil
}

// Register creates the account and signs the customer in.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := validateRegister(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "account lookup failed")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "password hashing failed")
	}

	customer := &models.Customer{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         enums.RoleCustomer,
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		customer.Phone = &phone
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "account creation failed")
	}

	return s.issueTokens(ctx, customer)
}

// Login verifies the credentials. Unknown email and wrong password produce
// the same generic unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "account lookup failed")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	ok, err := security.VerifyPassword(password, customer.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	return s.issueTokens(ctx, customer)
}

// Refresh rotates the refresh token and mints a new access token. The access
// token may be expired; its claims still identify the session.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) (*AuthResult, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	customer, err := s.repo.FindByID(ctx, claims.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "account lookup failed")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}

	_, newRefresh, err := s.sessions.Rotate(ctx, customer.ID.String(), refreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token rejected")
	}

	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Role:       customer.Role,
		JTI:        uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "token mint failed")
	}

	return &AuthResult{Customer: customer, AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the redis refresh session.
func (s *Service) Logout(ctx context.Context, customerID uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, customerID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "logout failed")
	}
	return nil
}

// Profile returns the account row.
func (s *Service) Profile(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "account lookup failed")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return customer, nil
}

// GuestSession issues a redis-backed guest token. The token doubles as the
// cart customer_ref so guests and accounts flow through the same pipeline.
func (s *Service) GuestSession(ctx context.Context) (string, error) {
	if s.guests == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "guest sessions not configured")
	}
	token := GuestTokenPrefix + uuid.NewString()
	if err := s.guests.Set(ctx, s.guests.GuestSessionKey(token), s.now().UTC().Format(time.RFC3339), s.guestTTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "guest session creation failed")
	}
	return token, nil
}

// ValidateGuest reports whether the guest token is live.
func (s *Service) ValidateGuest(ctx context.Context, token string) (bool, error) {
	if s.guests == nil || !strings.HasPrefix(token, GuestTokenPrefix) {
		return false, nil
	}
	value, err := s.guests.Get(ctx, s.guests.GuestSessionKey(token))
	if err != nil {
		return false, nil
	}
	return value != "", nil
}

func (s *Service) issueTokens(ctx context.Context, customer *models.Customer) (*AuthResult, error) {
	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Role:       customer.Role,
		JTI:        uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "token mint failed")
	}

	refresh, err := s.sessions.Generate(ctx, customer.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session creation failed")
	}

	return &AuthResult{Customer: customer, AccessToken: access, RefreshToken: refresh}, nil
}

func validateRegister(input RegisterInput) error {
	var problems []string
	if strings.TrimSpace(input.Name) == "" {
		problems = append(problems, "name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		problems = append(problems, "email is invalid")
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" && len(types.PhoneDigits(phone)) != 10 {
		problems = append(problems, "phone must have 10 digits")
	}
	if len(input.Password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(problems) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid registration").
			WithDetails(map[string]any{"errors": problems})
	}
	return nil
}
