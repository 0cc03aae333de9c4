package location

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
)

// DeviceReport is a Locator backed by what a client device already measured:
// either a position or the reason it could not get one.
type DeviceReport struct {
	Coordinates *Coordinates
	State       Permission
	// Failure is the client-side error code: "denied", "unavailable" or "timeout".
	Failure string
}

func (d DeviceReport) Permission(context.Context) Permission {
	if d.State == "" {
		return PermissionPrompt
	}
	return d.State
}

func (d DeviceReport) Locate(ctx context.Context, _ LocateOptions) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, ErrTimeout
	}
	if d.State == PermissionDenied || d.Failure == "denied" {
		return Coordinates{}, ErrPermissionDenied
	}
	switch d.Failure {
	case "timeout":
		return Coordinates{}, ErrTimeout
	case "":
	default:
		return Coordinates{}, ErrPositionUnavailable
	}
	if d.Coordinates == nil {
		return Coordinates{}, ErrPositionUnavailable
	}
	return *d.Coordinates, nil
}
