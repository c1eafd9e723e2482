package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
	"github.com/iliyamo/vidtube-accounts/internal/media"
	"github.com/iliyamo/vidtube-accounts/internal/model"
	"github.com/iliyamo/vidtube-accounts/internal/service"
)

// Accounts is the account service as seen by the HTTP layer.
type Accounts interface {
	Register(ctx context.Context, in service.RegisterInput, avatar, cover *media.File) (*model.PublicAccount, error)
	Login(ctx context.Context, in service.LoginInput) (*model.PublicAccount, service.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
	Current(ctx context.Context, accountID string) (*model.PublicAccount, error)
	UpdateProfile(ctx context.Context, accountID, fullName, email string) (*model.PublicAccount, error)
	ReplaceAvatar(ctx context.Context, accountID string, file *media.File) (*model.PublicAccount, error)
	ReplaceCoverImage(ctx context.Context, accountID string, file *media.File) (*model.PublicAccount, error)
	ChannelProfile(ctx context.Context, viewerID, userName string) (*model.ChannelProfile, error)
	ToggleSubscription(ctx context.Context, viewerID, userName string) (bool, error)
	WatchHistory(ctx context.Context, accountID string) ([]model.VideoSummary, error)
	RecordWatch(ctx context.Context, accountID, videoID string) error
}

// TokenRotator exchanges a refresh token for a new pair.
type TokenRotator interface {
	Rotate(ctx context.Context, presented string) (service.TokenPair, error)
}

// AccountHandler bundles dependencies for the /users and /subscriptions
// endpoints.
type AccountHandler struct {
	Accounts      Accounts
	Tokens        TokenRotator
	Cookies       CookieSettings
	Timeout       time.Duration
	UploadTimeout time.Duration
}

func NewAccountHandler(a Accounts, t TokenRotator, cookies CookieSettings, timeout, uploadTimeout time.Duration) *AccountHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 30 * time.Second
	}
	return &AccountHandler{Accounts: a, Tokens: t, Cookies: cookies, Timeout: timeout, UploadTimeout: uploadTimeout}
}

func (h *AccountHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

func (h *AccountHandler) uploadCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.UploadTimeout)
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.BadRequest("invalid body")
	}
	return nil
}

// formFile opens an optional multipart file. A missing file, or a request
// that is not multipart at all, yields (nil, nil).
func formFile(c echo.Context, field string) (*media.File, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, apperror.BadRequest("invalid " + field + " upload")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, apperror.BadRequest("invalid " + field + " upload")
	}
	return &media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
