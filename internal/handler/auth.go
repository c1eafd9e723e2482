package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
	"github.com/iliyamo/vidtube-accounts/internal/middleware"
	"github.com/iliyamo/vidtube-accounts/internal/model"
	"github.com/iliyamo/vidtube-accounts/internal/service"
)

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" form:"email"`
	UserName string `json:"userName" form:"userName"`
	Password string `json:"password" form:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type loginResp struct {
	User         *model.PublicAccount `json:"user"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
}

type tokensResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register: multipart form with email, fullName, userName, password, an
// avatar file and an optional coverImage file.
func (h *AccountHandler) Register(c echo.Context) error {
	avatar, closeAvatar, err := formFile(c, "avatar")
	if err != nil {
		return err
	}
	defer closeAvatar()
	cover, closeCover, err := formFile(c, "coverImage")
	if err != nil {
		return err
	}
	defer closeCover()

	in := service.RegisterInput{
		FullName: c.FormValue("fullName"),
		Email:    c.FormValue("email"),
		UserName: c.FormValue("userName"),
		Password: c.FormValue("password"),
	}

	ctx, cancel := h.uploadCtx(c)
	defer cancel()
	acc, err := h.Accounts.Register(ctx, in, avatar, cover)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, acc, "User registered successfully")
}

// Login: sets both token cookies and also returns the tokens in the body
// for clients that cannot use cookies.
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	acc, pair, err := h.Accounts.Login(ctx, service.LoginInput{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	h.Cookies.setTokens(c, pair)
	return respond(c, http.StatusOK, loginResp{
		User:         acc,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

// Refresh: the refresh token comes from the refreshToken cookie or, failing
// that, the request body.
func (h *AccountHandler) Refresh(c echo.Context) error {
	presented := ""
	if ck, err := c.Cookie(refreshCookie); err == nil {
		presented = ck.Value
	}
	if presented == "" {
		var req refreshReq
		_ = c.Bind(&req)
		presented = req.RefreshToken
	}
	if presented == "" {
		return apperror.Unauthorized("unauthorized request")
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	pair, err := h.Tokens.Rotate(ctx, presented)
	if err != nil {
		return err
	}
	h.Cookies.setTokens(c, pair)
	return respond(c, http.StatusOK, tokensResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

// Logout clears the stored refresh token and both cookies.
func (h *AccountHandler) Logout(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Accounts.Logout(ctx, middleware.AccountID(c)); err != nil {
		return err
	}
	h.Cookies.clearTokens(c)
	return respond(c, http.StatusOK, nil, "User logged out")
}

func (h *AccountHandler) Me(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	acc, err := h.Accounts.Current(ctx, middleware.AccountID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, acc, "Current user fetched successfully")
}
