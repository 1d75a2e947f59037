package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"wayfarer/internal/types"
)

var ErrNoRoute = errors.New("no route found")

// Estimate is a door-to-door travel figure reported by the directions API.
type Estimate struct {
	Km       float64       `json:"km"`
	Duration time.Duration `json:"duration"`
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client   *maps.Client
	language string
}

// NewRouteService creates a new RouteService with the given API Key. Extra
// client options (base URL, HTTP client) are passed through.
func NewRouteService(apiKey, language string, opts ...maps.ClientOption) (*RouteService, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client, language: language}, nil
}

func latLng(p types.Point) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Leg returns the travel estimate between two points, walking or by transit.
func (s *RouteService) Leg(ctx context.Context, from, to types.Point, walk bool) (Estimate, error) {
	mode := maps.TravelModeTransit
	if walk {
		mode = maps.TravelModeWalking
	}
	r := &maps.DirectionsRequest{
		Origin:      latLng(from),
		Destination: latLng(to),
		Mode:        mode,
		Language:    s.language,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return Estimate{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Estimate{}, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	return Estimate{Km: float64(leg.Distance.Meters) / 1000, Duration: leg.Duration}, nil
}
