package adsb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"skylog/api/internal/config"
)

// ProviderFlight is one flight as reported by the ADS-B data provider.
type ProviderFlight struct {
	FlightID         string     `json:"flight_id"`
	Registration     string     `json:"registration"`
	DepartureAirport string     `json:"departure_airport"`
	ArrivalAirport   string     `json:"arrival_airport"`
	OffBlockTime     time.Time  `json:"off_block_time"`
	OnBlockTime      *time.Time `json:"on_block_time"`
}

type recentFlightsResponse struct {
	Flights []ProviderFlight `json:"flights"`
}

// Client talks to the provider's HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.ADSBConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// RecentFlights fetches the provider's recent flights for a registration.
func (c *Client) RecentFlights(ctx context.Context, registration string) ([]ProviderFlight, error) {
	endpoint := fmt.Sprintf("%s/flights?registration=%s", c.baseURL, url.QueryEscape(registration))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch flights: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %s", resp.Status)
	}

	var payload recentFlightsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode flights: %w", err)
	}
	return payload.Flights, nil
}
