package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talkincode/storepro/internal/auth"
	"github.com/talkincode/storepro/internal/webserver"
)

type loginPayload struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type registerPayload struct {
	Username string `json:"username" form:"username" validate:"required,min=4,max=20"`
	Password string `json:"password" form:"password" validate:"required"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/login", loginHandler)
	webserver.ApiPOST("/auth/register", registerHandler)
	webserver.ApiPOST("/auth/logout", logoutHandler)
	webserver.ApiGET("/auth/me", currentOperatorHandler)
}

func loginHandler(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	opr, err := webserver.AuthService().Authenticate(c.Request().Context(), payload.Username, payload.Password)
	switch {
	case errors.Is(err, auth.ErrLoginFailed), errors.Is(err, auth.ErrUserDisabled):
		zap.L().Warn("login failed", zap.String("username", payload.Username), zap.String("ip", c.RealIP()))
		return fail(c, http.StatusUnauthorized, "LOGIN_FAILED", err.Error(), nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator", err.Error())
	}

	if err := auth.Login(c, opr); err != nil {
		return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Failed to create session", err.Error())
	}
	webserver.GetAppContext(c).AddOprLog(opr.Username, c.RealIP(), "login", "operator logged in")
	return ok(c, opr)
}

func registerHandler(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse register parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	opr, err := webserver.AuthService().Register(c.Request().Context(), payload.Username, payload.Password)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return fail(c, http.StatusConflict, "USER_EXISTS", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidInput):
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create operator", err.Error())
	}
	webserver.GetAppContext(c).AddOprLog(opr.Username, c.RealIP(), "register", "operator registered")
	return c.JSON(http.StatusCreated, Response{Code: "OK", Data: opr})
}

func logoutHandler(c echo.Context) error {
	name := operatorName(c)
	if err := auth.Logout(c); err != nil {
		return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Failed to clear session", err.Error())
	}
	webserver.GetAppContext(c).AddOprLog(name, c.RealIP(), "logout", "operator logged out")
	return ok(c, nil)
}

func currentOperatorHandler(c echo.Context) error {
	return ok(c, auth.CurrentOperator(c))
}
