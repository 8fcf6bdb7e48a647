// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

const (
	IdentityKey contextKey = "identity"
	UserRoleKey contextKey = "user_role"
)

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*Identity, error)
}

type RoleLookup interface {
	GetRole(ctx context.Context, email string) (string, error)
}

// Identity is the verified claim carried by a bearer token.
type Identity struct {
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Decision is the outcome of a Guard. A nil Err means the request may
// proceed, using Request (which may carry an enriched context).
type Decision struct {
	Request *http.Request
	Err     error
}

func (d Decision) Allowed() bool {
	return d.Err == nil
}

func Allow(r *http.Request) Decision {
	return Decision{Request: r}
}

func Deny(r *http.Request, err error) Decision {
	return Decision{Request: r, Err: err}
}

// Guard inspects a request and decides whether it may reach the handler.
// Guards never write to the response; Middleware does that.
type Guard func(r *http.Request) Decision

func (g Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g(r)
		if !d.Allowed() {
			core.JSONError(w, d.Err)
			return
		}
		next.ServeHTTP(w, d.Request)
	})
}

// Chain runs guards in order, feeding each the request produced by the
// previous one and stopping at the first denial.
func Chain(guards ...Guard) Guard {
	return func(r *http.Request) Decision {
		for _, g := range guards {
			d := g(r)
			if !d.Allowed() {
				return d
			}
			r = d.Request
		}
		return Allow(r)
	}
}

func RequireToken(verifier TokenVerifier) Guard {
	return func(r *http.Request) Decision {
		header := r.Header.Get("Authorization")
		if header == "" {
			return Deny(r, core.UnauthorizedError("missing authorization token"))
		}

		token, ok := parseBearer(header)
		if !ok {
			return Deny(r, core.TokenInvalidError())
		}

		identity, err := verifier.VerifyAccessToken(r.Context(), token)
		if err != nil {
			return Deny(r, authError(err))
		}

		ctx := context.WithValue(r.Context(), IdentityKey, identity)
		return Allow(r.WithContext(ctx))
	}
}

// RequireRole looks the caller's role up in the role store on every
// request; the token itself carries no role.
func RequireRole(roles RoleLookup, role string) Guard {
	return func(r *http.Request) Decision {
		identity := GetIdentity(r.Context())
		if identity == nil {
			return Deny(r, core.UnauthorizedError("authentication required"))
		}

		got, err := roles.GetRole(r.Context(), identity.Email)
		if err != nil {
			return Deny(r, err)
		}

		if got != role {
			return Deny(r, core.ForbiddenError("forbidden access"))
		}

		ctx := context.WithValue(r.Context(), UserRoleKey, got)
		return Allow(r.WithContext(ctx))
	}
}

func RequireAdmin(roles RoleLookup) Guard {
	return RequireRole(roles, "admin")
}

// RequireSelf compares a query parameter against the verified email. An
// absent parameter is allowed through; handlers treat it as "no results".
func RequireSelf(param string) Guard {
	return RequireSelfFrom(func(r *http.Request) string {
		return r.URL.Query().Get(param)
	})
}

func RequireSelfFrom(extract func(*http.Request) string) Guard {
	return func(r *http.Request) Decision {
		identity := GetIdentity(r.Context())
		if identity == nil {
			return Deny(r, core.UnauthorizedError("authentication required"))
		}

		want := extract(r)
		if want == "" {
			return Allow(r)
		}

		if !strings.EqualFold(want, identity.Email) {
			return Deny(r, core.ForbiddenError("forbidden access"))
		}

		return Allow(r)
	}
}

func parseBearer(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func authError(err error) error {
	if core.IsAppError(err) {
		return err
	}

	if errors.Is(err, core.ErrTokenExpired) {
		return core.TokenExpiredError()
	}
	return core.TokenInvalidError()
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetUserEmail(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Email
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}
