// Package location resolves a display address and postal code for a new post,
// preferring device coordinates and falling back to manual entry.
package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mode is the user-selected way of providing an address.
type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeManual    Mode = "manual"
)

// Phase is the progress of the current detection attempt.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDetecting Phase = "detecting"
	PhaseResolved  Phase = "resolved"
	PhaseFailed    Phase = "failed"
)

// Permission mirrors the browser geolocation permission state.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// Placeholder is shown while no location has been resolved or entered.
const Placeholder = "Вашата локација..."

// DetectTimeout bounds coordinate acquisition.
const DetectTimeout = 10 * time.Second

var ErrNotManual = errors.New("address can only be edited in manual mode")

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocateOptions are passed to a Locator on every attempt.
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
}

// Locator acquires device coordinates.
type Locator interface {
	Locate(ctx context.Context, opts LocateOptions) (Coordinates, error)
	Permission(ctx context.Context) Permission
}

// Geocoder turns coordinates into address components.
type Geocoder interface {
	Reverse(ctx context.Context, c Coordinates) (*Address, error)
}

// Output is the resolver state consumed by the post form.
type Output struct {
	Mode        Mode       `json:"mode"`
	Phase       Phase      `json:"phase"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Zip         string     `json:"zip"`
	IsDetecting bool       `json:"isDetecting"`
	Permission  Permission `json:"permission"`
	// Degraded is set when coordinates were found but no address was.
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Resolver runs the automatic/manual location workflow. Each switch to
// automatic mode makes exactly one locate call and at most one geocode call.
type Resolver struct {
	locator  Locator
	geocoder Geocoder

	mu    sync.Mutex
	state Output
}

// NewResolver creates an idle Resolver in automatic mode.
func NewResolver(locator Locator, geocoder Geocoder) *Resolver {
	return &Resolver{
		locator:  locator,
		geocoder: geocoder,
		state: Output{
			Mode:       ModeAutomatic,
			Phase:      PhaseIdle,
			Location:   Placeholder,
			Permission: PermissionPrompt,
		},
	}
}

// Snapshot returns the current output.
func (r *Resolver) Snapshot() Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetMode switches between automatic and manual entry. Switching to automatic
// always starts a fresh detection; switching to manual clears coordinates,
// location and zip.
func (r *Resolver) SetMode(ctx context.Context, mode Mode) (Output, error) {
	switch mode {
	case ModeManual:
		r.update(func(s *Output) {
			s.Mode = ModeManual
			s.Phase = PhaseIdle
			s.Location = Placeholder
			s.Latitude, s.Longitude = nil, nil
			s.Zip = ""
			s.IsDetecting = false
			s.Degraded = false
			s.Error = ""
		})
		return r.Snapshot(), nil
	case ModeAutomatic:
		return r.detect(ctx), nil
	}
	return r.Snapshot(), fmt.Errorf("unknown location mode %q", mode)
}

// SetManualAddress records a typed address. Only valid in manual mode.
func (r *Resolver) SetManualAddress(address string) (Output, error) {
	return r.editManual(func(s *Output) {
		s.Location = strings.TrimSpace(address)
		if s.Location == "" {
			s.Location = Placeholder
		}
	})
}

// SetZip records a typed postal code. Only valid in manual mode.
func (r *Resolver) SetZip(zip string) (Output, error) {
	return r.editManual(func(s *Output) { s.Zip = strings.TrimSpace(zip) })
}

func (r *Resolver) editManual(fn func(*Output)) (Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Mode != ModeManual {
		return r.state, ErrNotManual
	}
	fn(&r.state)
	return r.state, nil
}

func (r *Resolver) detect(ctx context.Context) Output {
	permission := r.locator.Permission(ctx)
	r.update(func(s *Output) {
		s.Mode = ModeAutomatic
		s.Phase = PhaseDetecting
		s.Location = Placeholder
		s.Latitude, s.Longitude = nil, nil
		s.Zip = ""
		s.IsDetecting = true
		s.Permission = permission
		s.Degraded = false
		s.Error = ""
	})

	locateCtx, cancel := context.WithTimeout(ctx, DetectTimeout)
	coords, err := r.locator.Locate(locateCtx, LocateOptions{HighAccuracy: true, Timeout: DetectTimeout})
	cancel()
	if err != nil {
		permission = r.locator.Permission(ctx)
		r.update(func(s *Output) {
			s.Mode = ModeManual
			s.Phase = PhaseFailed
			s.IsDetecting = false
			s.Permission = permission
			s.Error = fmt.Sprintf("Грешка при пристап до локација: %v", err)
		})
		return r.Snapshot()
	}

	lat, lon := coords.Latitude, coords.Longitude
	r.update(func(s *Output) { s.Latitude, s.Longitude = &lat, &lon })

	addr, err := r.geocoder.Reverse(ctx, coords)
	if err == nil && addr.Display() == "" {
		err = ErrNoAddress
	}
	if err != nil {
		r.update(func(s *Output) {
			s.Phase = PhaseFailed
			s.Location = CoordinateLabel(coords)
			s.IsDetecting = false
			s.Degraded = true
			s.Error = "Не е пронајдена локација"
		})
		return r.Snapshot()
	}

	r.update(func(s *Output) {
		s.Phase = PhaseResolved
		s.Location = addr.Display()
		s.Zip = addr.Postcode
		s.IsDetecting = false
	})
	return r.Snapshot()
}

func (r *Resolver) update(fn func(*Output)) {
	r.mu.Lock()
	fn(&r.state)
	r.mu.Unlock()
}

// CoordinateLabel is the display location used when no address is known.
func CoordinateLabel(c Coordinates) string {
	return fmt.Sprintf("Lat: %.4f, Lon: %.4f", c.Latitude, c.Longitude)
}
