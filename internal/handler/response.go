package handler

import "github.com/labstack/echo/v4"

// Response is the envelope every endpoint answers with, errors included.
type Response struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func respond(c echo.Context, status int, data any, message string) error {
	if data == nil {
		data = echo.Map{}
	}
	return c.JSON(status, Response{Status: status, Data: data, Message: message, Success: status < 400})
}
