package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/propertyhub/rental-api/internal/api/middleware"
	"github.com/propertyhub/rental-api/internal/core/token"
)

const (
	stateCookie = "oauthState"
	stateTTL    = 10 * time.Minute
)

// CookieConfig controls the attributes of the cookies the API sets.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

// NewCookieConfig returns Strict, insecure cookies outside production. In
// production cookies are Secure, and crossSite switches SameSite to None so a
// client on another site still sends them.
func NewCookieConfig(production, crossSite bool) CookieConfig {
	cfg := CookieConfig{Secure: production, SameSite: http.SameSiteStrictMode}
	if production && crossSite {
		cfg.SameSite = http.SameSiteNoneMode
	}
	return cfg
}

func (cc CookieConfig) setRefresh(c echo.Context, value string) {
	c.SetCookie(cc.cookie(middleware.RefreshCookie, value, int(token.RefreshTTL/time.Second)))
}

func (cc CookieConfig) clearRefresh(c echo.Context) {
	c.SetCookie(cc.cookie(middleware.RefreshCookie, "", -1))
}

func (cc CookieConfig) setState(c echo.Context, value string) {
	ck := cc.cookie(stateCookie, value, int(stateTTL/time.Second))
	// The provider redirects back cross-site, so Strict would drop the cookie.
	ck.SameSite = http.SameSiteLaxMode
	c.SetCookie(ck)
}

func (cc CookieConfig) clearState(c echo.Context) {
	ck := cc.cookie(stateCookie, "", -1)
	ck.SameSite = http.SameSiteLaxMode
	c.SetCookie(ck)
}

func (cc CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: cc.SameSite,
	}
}
