package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube-accounts/internal/middleware"
)

func (h *AccountHandler) ChannelProfile(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	p, err := h.Accounts.ChannelProfile(ctx, middleware.AccountID(c), c.Param("userName"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, p, "User channel fetched successfully")
}

func (h *AccountHandler) ToggleSubscription(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	subscribed, err := h.Accounts.ToggleSubscription(ctx, middleware.AccountID(c), c.Param("userName"))
	if err != nil {
		return err
	}
	msg := "Unsubscribed successfully"
	if subscribed {
		msg = "Subscribed successfully"
	}
	return respond(c, http.StatusOK, echo.Map{"subscribed": subscribed}, msg)
}

func (h *AccountHandler) WatchHistory(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	history, err := h.Accounts.WatchHistory(ctx, middleware.AccountID(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, history, "Watch history fetched successfully")
}

func (h *AccountHandler) RecordWatch(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.Accounts.RecordWatch(ctx, middleware.AccountID(c), c.Param("videoId")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "Video added to watch history")
}
