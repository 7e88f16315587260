package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var ErrNoResult = errors.New("no place found for coordinate")

// Resolver turns a coordinate into a human readable place name.
type Resolver interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
}

// NominatimClient resolves places through an OpenStreetMap Nominatim server.
type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewNominatimClient(baseURL, userAgent string, timeout time.Duration) *NominatimClient {
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "18")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geocode request: %w", err)
	}
	// Nominatim usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geocoder response: %w", err)
	}
	if body.Error != "" || body.DisplayName == "" {
		return "", ErrNoResult
	}
	return body.DisplayName, nil
}

// Cache memoizes place names per coordinate rounded to 5 decimals (about a
// meter). It is meant to live for one request and is not safe for
// concurrent use.
type Cache struct {
	resolver Resolver
	places   map[string]string
}

func NewCache(resolver Resolver) *Cache {
	return &Cache{resolver: resolver, places: make(map[string]string)}
}

// Place returns the cached name for the coordinate, resolving it on a miss.
// Failed lookups are cached as "" so they are not retried in the same request.
func (c *Cache) Place(ctx context.Context, lat, lng float64) (string, error) {
	if c == nil || c.resolver == nil {
		return "", nil
	}

	key := fmt.Sprintf("%.5f,%.5f", lat, lng)
	if place, ok := c.places[key]; ok {
		return place, nil
	}

	place, err := c.resolver.Reverse(ctx, lat, lng)
	c.places[key] = place
	return place, err
}
