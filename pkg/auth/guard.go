package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rallypoint/rallypoint/internal/rest"
	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	LoginPath     = "/dashboard/login/v1"
	DashboardPath = "/dashboard/default"
)

var authPages = []string{"/dashboard/login", "/dashboard/register", "/dashboard/forgot-password"}

// Guard resolves the session of every request and enforces which paths need one.
type Guard struct {
	service Service
	cookies *Cookies
}

func NewGuard(service Service, cookies *Cookies) *Guard {
	return &Guard{service: service, cookies: cookies}
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, signedIn := g.resolve(w, r)
		ctx := r.Context()
		if signedIn {
			ctx = contextSetUser(ctx, u)
		}

		path := r.URL.Path
		switch {
		case path == "/" || path == "/dashboard":
			if signedIn {
				http.Redirect(w, r, DashboardPath, http.StatusTemporaryRedirect)
			} else {
				http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
			}
			return
		case isAuthPage(path):
			if signedIn {
				http.Redirect(w, r, DashboardPath, http.StatusTemporaryRedirect)
				return
			}
		case strings.HasPrefix(path, "/dashboard"):
			if !signedIn {
				http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
				return
			}
		case strings.HasPrefix(path, "/api/") && !strings.HasPrefix(path, "/api/auth/"):
			if !signedIn {
				rest.WriteFailure(w, backend.Classify(user.ErrNoUser))
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve finds the user behind the access token, falling back to the refresh token cookie.
// A successful refresh rotates the session cookies.
func (g *Guard) resolve(w http.ResponseWriter, r *http.Request) (user.User, bool) {
	if token := AccessToken(r); token != "" {
		u, err := g.service.UserFromToken(r.Context(), token)
		if err == nil {
			return u, true
		}
		log.Debugf("access token rejected: %v", err)
	}

	refreshToken := RefreshToken(r)
	if refreshToken == "" {
		return user.User{}, false
	}
	session, u, err := g.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		log.Debugf("refresh token rejected: %v", err)
		return user.User{}, false
	}
	g.cookies.Set(w, session)
	return u, true
}

func isAuthPage(path string) bool {
	for _, prefix := range authPages {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func contextSetUser(ctx context.Context, u user.User) context.Context {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.Scope().SetUser(sentry.User{
			ID:    u.Id.String(),
			Email: u.Email,
		})
	}
	return user.WithUser(ctx, u)
}
