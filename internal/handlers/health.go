package handlers

import (
	"net/http"

	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/labstack/echo/v4"
)

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "nastani-api",
	})
}

// GetCategories lists the event categories a post can be filed under.
func GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"categories": models.Categories})
}
