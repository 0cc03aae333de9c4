package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/nastani/backend/internal/middleware"
	"github.com/anonto42/nastani/backend/internal/models"
	"github.com/anonto42/nastani/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// RegisterPostRoutes registers post routes. Reads are public; auth wraps the
// writes and throttle additionally wraps edits and deletes.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, auth, throttle echo.MiddlewareFunc) {
	g.GET("/posts", h.GetPosts)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts", h.CreatePost, auth)
	g.PUT("/posts", h.UpdatePost, auth, throttle)
	g.DELETE("/posts", h.DeletePost, auth, throttle)
}

// GetPosts lists the newest posts, optionally filtered by zipCode
func (h *PostHandler) GetPosts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.postService.Search(c.Request().Context(), services.SearchParams{
		ZipCode: c.QueryParam("zipCode"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post authored by the signed-in user
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	author, _ := middleware.IdentityOf(c)
	post, err := h.postService.Create(c.Request().Context(), author, req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// UpdatePost patches the inline-editable fields of a post the caller owns
func (h *PostHandler) UpdatePost(c echo.Context) error {
	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor, _ := middleware.IdentityOf(c)
	if err := h.postService.Update(c.Request().Context(), actor, req); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeletePost permanently deletes a post the caller owns
func (h *PostHandler) DeletePost(c echo.Context) error {
	actor, _ := middleware.IdentityOf(c)
	if err := h.postService.Delete(c.Request().Context(), actor, c.QueryParam("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
