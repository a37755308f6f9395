package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const locationUnknown = "Unknown"

// LocationService resolves an IP address to a coarse location string for
// session labels.
type LocationService struct {
	client  *http.Client
	baseURL string
}

func NewLocationService() *LocationService {
	return &LocationService{
		client:  &http.Client{Timeout: 3 * time.Second},
		baseURL: "https://ipwho.is",
	}
}

// Lookup returns "City, Region, Country". Failures degrade to "Unknown"
// rather than blocking a login.
func (s *LocationService) Lookup(ctx context.Context, ip string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", s.baseURL, ip), nil)
	if err != nil {
		return locationUnknown
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return locationUnknown
	}
	defer resp.Body.Close()

	var body struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return locationUnknown
	}
	if body.City == "" && body.Country == "" {
		return locationUnknown
	}

	return fmt.Sprintf("%s, %s, %s", body.City, body.Region, body.Country)
}
