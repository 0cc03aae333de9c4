package handlers

import (
	"net/http"

	"github.com/anonto42/nastani/backend/internal/location"
	"github.com/labstack/echo/v4"
)

// LocationHandler runs the location resolver for the post form
type LocationHandler struct {
	geocoder location.Geocoder
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(geocoder location.Geocoder) *LocationHandler {
	return &LocationHandler{geocoder: geocoder}
}

// RegisterLocationRoutes registers location routes
func (h *LocationHandler) RegisterLocationRoutes(g *echo.Group) {
	g.POST("/location/resolve", h.Resolve)
}

// resolveRequest carries what the device reported. In manual mode Address and
// Zip are the typed values and the device fields are ignored.
type resolveRequest struct {
	Mode       string   `json:"mode"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Permission string   `json:"permission,omitempty" validate:"omitempty,oneof=granted denied prompt"`
	Failure    string   `json:"failure,omitempty" validate:"omitempty,oneof=denied unavailable timeout"`
	Address    string   `json:"address,omitempty" validate:"max=200"`
	Zip        string   `json:"zip,omitempty" validate:"omitempty,zip"`
}

// Resolve returns the resolver output for one request
func (h *LocationHandler) Resolve(c echo.Context) error {
	var req resolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "latitude and longitude must be sent together")
	}

	device := location.DeviceReport{
		State:   location.Permission(req.Permission),
		Failure: req.Failure,
	}
	if req.Latitude != nil {
		device.Coordinates = &location.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	mode := location.Mode(req.Mode)
	if mode == "" {
		mode = location.ModeAutomatic
	}

	resolver := location.NewResolver(device, h.geocoder)
	out, err := resolver.SetMode(c.Request().Context(), mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if out.Mode == location.ModeManual && mode == location.ModeManual {
		if req.Address != "" {
			out, _ = resolver.SetManualAddress(req.Address)
		}
		if req.Zip != "" {
			out, _ = resolver.SetZip(req.Zip)
		}
	}
	if out.Degraded {
		c.Logger().Warnf("reverse geocoding failed, falling back to %q", out.Location)
	}

	return c.JSON(http.StatusOK, out)
}
