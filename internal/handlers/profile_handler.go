package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/nastani/backend/internal/middleware"
	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/repositories"
	"github.com/anonto42/nastani/backend/internal/services"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ProfileHandler serves the signed-in user's account and posts
type ProfileHandler struct {
	userRepository repositories.UserRepository
	postService    *services.PostService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userRepo repositories.UserRepository, postService *services.PostService) *ProfileHandler {
	return &ProfileHandler{userRepository: userRepo, postService: postService}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/profile", h.GetProfile, auth)
}

type profileResponse struct {
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
	Account   *models.User  `json:"account,omitempty"`
	Posts     []models.Post `json:"posts"`
}

// GetProfile returns the caller's identity, their local account if one exists
// and every post they authored.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	id, _ := middleware.IdentityOf(c)

	resp := profileResponse{Name: id.Name, Email: id.Email, AvatarURL: id.AvatarURL}

	user, err := h.userRepository.GetUserByEmail(strings.ToLower(id.Email))
	switch {
	case err == nil:
		resp.Account = user
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		c.Logger().Errorf("profile lookup for %s: %v", id.Email, err)
		return echo.NewHTTPError(http.StatusInternalServerError, unknownErrorMessage)
	}

	posts, err := h.postService.ListByAuthor(c.Request().Context(), id.Email)
	if err != nil {
		return serviceError(c, err)
	}
	resp.Posts = posts
	return c.JSON(http.StatusOK, resp)
}
