package middleware // reusable HTTP middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
)

// AccessCookie is the cookie that carries the access token.
const AccessCookie = "accessToken"

// AccessVerifier validates an access token and returns its account id.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// Authenticate returns an Echo middleware that accepts an access token from
// the accessToken cookie or an "Authorization: Bearer" header, and stores the
// account id in the context for handlers (see AccountID).
func Authenticate(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(AccessCookie); err == nil {
				raw = ck.Value
			}
			if raw == "" {
				auth := c.Request().Header.Get(echo.HeaderAuthorization)
				if strings.HasPrefix(auth, "Bearer ") {
					raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				}
			}
			if raw == "" {
				return apperror.Unauthorized("unauthorized request")
			}

			id, err := v.VerifyAccess(raw)
			if err != nil {
				return err
			}
			c.Set(accountIDKey, id)
			return next(c)
		}
	}
}
