package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zaika-foods/zaika-backend/api/responses"
	pkgAuth "github.com/zaika-foods/zaika-backend/pkg/auth"
	"github.com/zaika-foods/zaika-backend/pkg/auth/session"
	"github.com/zaika-foods/zaika-backend/pkg/config"
	"github.com/zaika-foods/zaika-backend/pkg/enums"
	pkgerrors "github.com/zaika-foods/zaika-backend/pkg/errors"
	"github.com/zaika-foods/zaika-backend/pkg/logger"
)

const guestTokenHeader = "X-Guest-Token"

// GuestChecker validates a guest session token against its store.
type GuestChecker interface {
	ValidateGuest(ctx context.Context, token string) (bool, error)
}

// Auth validates a bearer token and seeds the request context with the
// customer identity. Guest tokens are rejected here; storefront routes that
// accept guests use Session instead.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticateBearer(r, cfg, verifier, logg)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Session authenticates either an account bearer token or a guest session
// token, so carts and checkout work the same for both.
func Session(cfg config.JWTConfig, verifier session.AccessSessionChecker, guests GuestChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) != "" {
				ctx, err := authenticateBearer(r, cfg, verifier, logg)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token := strings.TrimSpace(r.Header.Get(guestTokenHeader))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}
			if guests == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest sessions unavailable"))
				return
			}
			ok, err := guests.ValidateGuest(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate guest session"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "guest session expired"))
				return
			}

			ctx := WithCustomerRef(r.Context(), token)
			ctx = WithRole(ctx, string(enums.RoleGuest))
			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(enums.RoleGuest))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticateBearer(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) (context.Context, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(r.Context(), claims.CustomerID.String())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}

	ctx := WithCustomerRef(r.Context(), claims.CustomerID.String())
	ctx = WithRole(ctx, string(claims.Role))

	if logg != nil {
		ctx = logg.WithCustomerID(ctx, claims.CustomerID.String())
		ctx = logg.WithActorRole(ctx, string(claims.Role))
	}
	return ctx, nil
}
