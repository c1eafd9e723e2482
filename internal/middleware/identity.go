package middleware

// identity.go holds the context key shared by Authenticate and everything
// that keys on the caller (handlers, rate limiter, response cache).

import "github.com/labstack/echo/v4"

const accountIDKey = "account_id"

// AccountID returns the authenticated account id, or "" when the request
// did not pass through Authenticate.
func AccountID(c echo.Context) string {
	if v, ok := c.Get(accountIDKey).(string); ok {
		return v
	}
	return ""
}

// callerKey is AccountID with "anon" standing in for unauthenticated calls.
func callerKey(c echo.Context) string {
	if id := AccountID(c); id != "" {
		return id
	}
	return "anon"
}
