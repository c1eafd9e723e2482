package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/apperror"
	"github.com/iliyamo/vidtube-accounts/internal/middleware"
)

type changePasswordReq struct {
	OldPassword string `json:"oldPassword" form:"oldPassword"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

type updateAccountReq struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Accounts.ChangePassword(ctx, middleware.AccountID(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Password changed successfully")
}

func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	var req updateAccountReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	acc, err := h.Accounts.UpdateProfile(ctx, middleware.AccountID(c), req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, acc, "Account details updated successfully")
}

func (h *AccountHandler) UpdateAvatar(c echo.Context) error {
	file, closeFile, err := formFile(c, "avatar")
	if err != nil {
		return err
	}
	defer closeFile()
	if file == nil {
		return apperror.BadRequest("avatar file is missing")
	}

	ctx, cancel := h.uploadCtx(c)
	defer cancel()
	acc, err := h.Accounts.ReplaceAvatar(ctx, middleware.AccountID(c), file)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, acc, "Avatar image updated successfully")
}

func (h *AccountHandler) UpdateCoverImage(c echo.Context) error {
	file, closeFile, err := formFile(c, "coverImage")
	if err != nil {
		return err
	}
	defer closeFile()
	if file == nil {
		return apperror.BadRequest("cover image file is missing")
	}

	ctx, cancel := h.uploadCtx(c)
	defer cancel()
	acc, err := h.Accounts.ReplaceCoverImage(ctx, middleware.AccountID(c), file)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, acc, "Cover image updated successfully")
}
