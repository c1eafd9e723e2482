package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/handler"
	"github.com/iliyamo/vidtube-accounts/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// are not rate limited.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// AccountRoutes carries what the account endpoints are wired with. Limiter
// guards the credential endpoints; Cache fronts the channel profile.
type AccountRoutes struct {
	Handler  *handler.AccountHandler
	Verifier middleware.AccessVerifier
	Limiter  echo.MiddlewareFunc
	Cache    echo.MiddlewareFunc
}

// RegisterAccounts registers the /api/v1/users and /api/v1/subscriptions
// endpoints. Register, login and refresh are public; everything else runs
// behind Authenticate.
func RegisterAccounts(e *echo.Echo, r AccountRoutes) {
	h := r.Handler
	limiter := orPass(r.Limiter)
	cache := orPass(r.Cache)
	auth := middleware.Authenticate(r.Verifier)

	users := e.Group("/api/v1/users")
	users.POST("/register", h.Register, limiter)
	users.POST("/login", h.Login, limiter)
	users.POST("/refresh-token", h.Refresh, limiter)

	users.POST("/logout", h.Logout, auth)
	users.POST("/change-password", h.ChangePassword, auth)
	users.GET("/current-user", h.Me, auth)
	users.PATCH("/update-account", h.UpdateAccount, auth)
	users.PATCH("/avatar", h.UpdateAvatar, auth)
	users.PATCH("/cover-image", h.UpdateCoverImage, auth)
	// cache runs after auth so its key can include the viewer
	users.GET("/c/:userName", h.ChannelProfile, auth, cache)
	users.GET("/history", h.WatchHistory, auth)
	users.POST("/history/:videoId", h.RecordWatch, auth)

	subs := e.Group("/api/v1/subscriptions", auth)
	subs.POST("/c/:userName", h.ToggleSubscription)
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}
