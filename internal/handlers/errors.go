package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nastani/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const unknownErrorMessage = "An unknown error occurred"

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := unknownErrorMessage

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else if he.Message != nil {
			message = http.StatusText(code)
		}
	} else {
		c.Logger().Errorf("unhandled error on %s %s: %v", c.Request().Method, c.Path(), err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"error": message})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// serviceError maps PostService errors to HTTP errors. Anything unexpected is
// logged and hidden behind a generic message.
func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingFields):
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, services.ErrMissingID):
		return echo.NewHTTPError(http.StatusBadRequest, "Missing post ID")
	case errors.Is(err, services.ErrInvalidPost):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	case errors.Is(err, services.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this post")
	}
	c.Logger().Errorf("post store failure on %s %s: %v", c.Request().Method, c.Path(), err)
	return echo.NewHTTPError(http.StatusInternalServerError, unknownErrorMessage)
}
