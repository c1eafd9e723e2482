package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/middleware"
	"github.com/iliyamo/vidtube-accounts/internal/service"
)

const refreshCookie = "refreshToken"

// CookieSettings are the attributes shared by both token cookies.
type CookieSettings struct {
	Secure bool
	Domain string
}

func (s CookieSettings) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func secondsUntil(t time.Time) int {
	return max(int(time.Until(t).Seconds()), 1)
}

func (s CookieSettings) setTokens(c echo.Context, pair service.TokenPair) {
	c.SetCookie(s.cookie(middleware.AccessCookie, pair.AccessToken, secondsUntil(pair.AccessExp)))
	c.SetCookie(s.cookie(refreshCookie, pair.RefreshToken, secondsUntil(pair.RefreshExp)))
}

func (s CookieSettings) clearTokens(c echo.Context) {
	c.SetCookie(s.cookie(middleware.AccessCookie, "", -1))
	c.SetCookie(s.cookie(refreshCookie, "", -1))
}
