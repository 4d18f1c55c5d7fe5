package distance

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ORSProvider talks to OpenRouteService. It implements ports.Geocoder,
// ports.MatrixProvider and ports.RouteProvider.
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	client  retryingClient
	baseURL string
	profile string
}

type ORSOption func(*ORSProvider)

// WithORSBaseURL points the provider at another ORS deployment.
func WithORSBaseURL(u string) ORSOption {
	return func(o *ORSProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func NewORSProvider(apiKey string, opts ...ORSOption) (*ORSProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSProvider{
		client: newRetryingClient(15*time.Second, func(h http.Header) {
			h.Set("Authorization", apiKey)
		}),
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}
