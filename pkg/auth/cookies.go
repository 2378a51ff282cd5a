package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/rallypoint/rallypoint/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/xhit/go-str2duration/v2"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Cookies writes and clears the session cookies.
type Cookies struct {
	accessTTL  time.Duration
	refreshTTL time.Duration
	secure     bool
	now        func() time.Time
}

func NewCookies(cfg config.Auth, now func() time.Time) *Cookies {
	if now == nil {
		now = time.Now
	}
	return &Cookies{
		accessTTL:  ttl(cfg.AccessTokenTTL, time.Hour),
		refreshTTL: ttl(cfg.RefreshTokenTTL, 30*24*time.Hour),
		secure:     cfg.SecureCookies,
		now:        now,
	}
}

func ttl(value string, fallback time.Duration) time.Duration {
	d, err := str2duration.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Warnf("invalid cookie ttl %q, using %s", value, fallback)
		return fallback
	}
	return d
}

// Set writes both session cookies.
func (c *Cookies) Set(w http.ResponseWriter, s Session) {
	http.SetCookie(w, c.cookie(AccessTokenCookie, s.AccessToken, c.accessTTL))
	http.SetCookie(w, c.cookie(RefreshTokenCookie, s.RefreshToken, c.refreshTTL))
}

// Clear expires both session cookies.
func (c *Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			SameSite: http.SameSiteStrictMode,
			HttpOnly: true,
			Secure:   c.secure,
			Path:     "/",
		})
	}
}

func (c *Cookies) cookie(name string, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  c.now().Add(ttl),
		SameSite: http.SameSiteStrictMode,
		HttpOnly: true,
		Secure:   c.secure,
		Path:     "/",
	}
}

// AccessToken returns the bearer token of r, or its access token cookie.
func AccessToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func RefreshToken(r *http.Request) string {
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
