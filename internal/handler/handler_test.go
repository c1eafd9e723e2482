package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
	"github.com/iliyamo/vidtube-accounts/internal/media"
	"github.com/iliyamo/vidtube-accounts/internal/middleware"
	"github.com/iliyamo/vidtube-accounts/internal/model"
	"github.com/iliyamo/vidtube-accounts/internal/service"
)

type fakeAccounts struct {
	err          error
	registerIn   service.RegisterInput
	avatarBody   string
	coverSeen    bool
	loginIn      service.LoginInput
	loggedOut    string
	channelQuery [2]string
	watched      [2]string
}

var testAccount = &model.PublicAccount{ID: "acc-1", UserName: "ann01", Email: "a@x.com", FullName: "Ann"}

func (f *fakeAccounts) Register(_ context.Context, in service.RegisterInput, avatar, cover *media.File) (*model.PublicAccount, error) {
	f.registerIn = in
	if avatar != nil {
		b, _ := io.ReadAll(avatar.Body)
		f.avatarBody = string(b)
	}
	f.coverSeen = cover != nil
	return testAccount, f.err
}

func (f *fakeAccounts) Login(_ context.Context, in service.LoginInput) (*model.PublicAccount, service.TokenPair, error) {
	f.loginIn = in
	if f.err != nil {
		return nil, service.TokenPair{}, f.err
	}
	return testAccount, testPair(), nil
}

func (f *fakeAccounts) Logout(_ context.Context, id string) error { f.loggedOut = id; return f.err }

func (f *fakeAccounts) ChangePassword(context.Context, string, string, string) error { return f.err }

func (f *fakeAccounts) Current(context.Context, string) (*model.PublicAccount, error) {
	return testAccount, f.err
}

func (f *fakeAccounts) UpdateProfile(context.Context, string, string, string) (*model.PublicAccount, error) {
	return testAccount, f.err
}

func (f *fakeAccounts) ReplaceAvatar(context.Context, string, *media.File) (*model.PublicAccount, error) {
	return testAccount, f.err
}

func (f *fakeAccounts) ReplaceCoverImage(context.Context, string, *media.File) (*model.PublicAccount, error) {
	return testAccount, f.err
}

func (f *fakeAccounts) ChannelProfile(_ context.Context, viewer, userName string) (*model.ChannelProfile, error) {
	f.channelQuery = [2]string{viewer, userName}
	if f.err != nil {
		return nil, f.err
	}
	return &model.ChannelProfile{UserName: userName, SubscribersCount: 3, IsSubscribed: true}, nil
}

func (f *fakeAccounts) ToggleSubscription(context.Context, string, string) (bool, error) {
	return true, f.err
}

func (f *fakeAccounts) WatchHistory(context.Context, string) ([]model.VideoSummary, error) {
	return []model.VideoSummary{}, f.err
}

func (f *fakeAccounts) RecordWatch(_ context.Context, id, videoID string) error {
	f.watched = [2]string{id, videoID}
	return f.err
}

type fakeRotator struct{ presented string }

func (r *fakeRotator) Rotate(_ context.Context, presented string) (service.TokenPair, error) {
	r.presented = presented
	if presented != "valid-refresh" {
		return service.TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}
	return testPair(), nil
}

func testPair() service.TokenPair {
	return service.TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		AccessExp:    time.Now().Add(15 * time.Minute),
		RefreshExp:   time.Now().Add(24 * time.Hour),
	}
}

type verifier struct{}

func (verifier) VerifyAccess(token string) (string, error) {
	if token == "good" {
		return "acc-1", nil
	}
	return "", apperror.Unauthorized("invalid access token")
}

func newTestServer(t *testing.T) (*echo.Echo, *fakeAccounts, *fakeRotator) {
	t.Helper()
	accounts := &fakeAccounts{}
	rot := &fakeRotator{}
	h := NewAccountHandler(accounts, rot, CookieSettings{Secure: true}, time.Second, time.Second)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	auth := middleware.Authenticate(verifier{})
	g := e.Group("/api/v1/users")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh-token", h.Refresh)
	g.POST("/logout", h.Logout, auth)
	g.GET("/current-user", h.Me, auth)
	g.GET("/c/:userName", h.ChannelProfile, auth)
	g.POST("/history/:videoId", h.RecordWatch, auth)
	return e, accounts, rot
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var r Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	return r
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestLogin_SetsCookiesAndEnvelope(t *testing.T) {
	e, accounts, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"userName":"ann01","password":"pw1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ann01", accounts.loginIn.UserName)

	r := decode(t, rec)
	require.True(t, r.Success)
	require.Equal(t, http.StatusOK, r.Status)
	data := r.Data.(map[string]any)
	require.Equal(t, "new-access", data["accessToken"])
	require.Equal(t, "new-refresh", data["refreshToken"])
	require.NotContains(t, rec.Body.String(), "password")

	cookies := cookiesByName(rec)
	for _, name := range []string{"accessToken", "refreshToken"} {
		ck := cookies[name]
		require.NotNil(t, ck, name)
		require.True(t, ck.HttpOnly)
		require.True(t, ck.Secure)
		require.Equal(t, http.SameSiteStrictMode, ck.SameSite)
		require.Equal(t, "/", ck.Path)
		require.Greater(t, ck.MaxAge, 0)
	}
	require.Equal(t, "new-refresh", cookies["refreshToken"].Value)
}

func TestLogin_ErrorKinds(t *testing.T) {
	e, accounts, _ := newTestServer(t)

	for _, tc := range []struct {
		err    error
		status int
		msg    string
	}{
		{apperror.NotFound("user does not exist"), http.StatusNotFound, "user does not exist"},
		{apperror.Unauthorized("invalid user credentials"), http.StatusUnauthorized, "invalid user credentials"},
		{errors.New("dial tcp: secret detail"), http.StatusInternalServerError, "internal server error"},
	} {
		accounts.err = tc.err
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{"email":"a@x.com"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, tc.status, rec.Code)
		r := decode(t, rec)
		require.False(t, r.Success)
		require.Equal(t, tc.msg, r.Message)
		require.NotContains(t, rec.Body.String(), "secret detail")
		require.Empty(t, rec.Result().Cookies())
	}
}

func TestRefresh_CookieOrBody(t *testing.T) {
	e, _, rot := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "valid-refresh"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "new-access", cookiesByName(rec)["accessToken"].Value)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token",
		strings.NewReader(`{"refreshToken":"valid-refresh"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "valid-refresh", rot.presented)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token",
		strings.NewReader(`{"refreshToken":"stale"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_ClearsCookies(t *testing.T) {
	e, accounts, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "good"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "acc-1", accounts.loggedOut)
	cookies := cookiesByName(rec)
	require.Less(t, cookies["accessToken"].MaxAge, 0)
	require.Less(t, cookies["refreshToken"].MaxAge, 0)
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, decode(t, rec).Success)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChannelProfile_PassesViewerAndName(t *testing.T) {
	e, accounts, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/creator", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, [2]string{"acc-1", "creator"}, accounts.channelQuery)
	data := decode(t, rec).Data.(map[string]any)
	require.Equal(t, float64(3), data["subscribersCount"])
	require.Equal(t, true, data["isSubscribed"])

	accounts.err = apperror.NotFound("channel does not exist")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordWatch(t *testing.T) {
	e, accounts, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/history/v1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, [2]string{"acc-1", "v1"}, accounts.watched)
}

func TestRegister_Multipart(t *testing.T) {
	e, accounts, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"fullName": "Ann", "email": "a@x.com", "userName": "Ann01", "password": "pw1"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Ann01", accounts.registerIn.UserName)
	require.Equal(t, "png-bytes", accounts.avatarBody)
	require.False(t, accounts.coverSeen)
	r := decode(t, rec)
	require.Equal(t, http.StatusCreated, r.Status)
	require.Equal(t, "acc-1", r.Data.(map[string]any)["_id"])
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	e.GET("/limited", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate limit exceeded", decode(t, rec).Message)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, decode(t, rec).Success)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
