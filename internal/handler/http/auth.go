package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/production-orders/internal/apperr"
	"github.com/vasiliy-maslov/production-orders/internal/user"
)

// ActorHeader names the acting user. There are no credentials.
const ActorHeader = "X-User-Name"

var (
	errActorRequired = apperr.New(apperr.ErrUnauthorized, "a known user is required")
	errAdminRequired = apperr.New(apperr.ErrForbidden, "only an Admin can perform this action")
)

type actorKey struct{}

// ActorFromContext returns the user resolved by Auth.Middleware, or nil.
func ActorFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(actorKey{}).(*user.User)
	return u
}

// Auth resolves the acting user and gates mutations when Required is set.
type Auth struct {
	users    user.Service
	required bool
}

func NewAuth(users user.Service, required bool) *Auth {
	return &Auth{users: users, required: required}
}

// Middleware attaches the user named by ActorHeader to the request context.
// Unknown names are rejected only when authentication is required.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get(ActorHeader)
		if name == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := a.users.Login(r.Context(), name)
		if err != nil {
			if !errors.Is(err, user.ErrUserNotFound) {
				log.Error().Err(err).Str("actor", name).Msg("Failed to resolve actor")
				respondWithError(w, http.StatusInternalServerError, "Failed to resolve user")
				return
			}
			if a.required {
				log.Warn().Str("actor", name).Msg("Unknown actor rejected")
				respondWithError(w, http.StatusUnauthorized, "Unknown user")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser allows the request when authentication is off or a known user
// is acting.
func (a *Auth) requireUser(r *http.Request) error {
	if !a.required || ActorFromContext(r.Context()) != nil {
		return nil
	}
	return errActorRequired
}

func (a *Auth) requireAdmin(r *http.Request) error {
	if !a.required {
		return nil
	}
	actor := ActorFromContext(r.Context())
	if actor == nil {
		return errActorRequired
	}
	if !actor.IsAdmin() {
		return errAdminRequired
	}
	return nil
}
