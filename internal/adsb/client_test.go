package adsb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skylog/api/internal/config"
)

func TestRecentFlights(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("registration")
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"flights":[
			{"flight_id":"pf-1","registration":"N12345","departure_airport":"KPAO","arrival_airport":"KSQL","off_block_time":"2026-04-02T15:00:00Z","on_block_time":"2026-04-02T15:45:00Z"},
			{"flight_id":"pf-2","registration":"N12345","departure_airport":"KSQL","arrival_airport":"KPAO","off_block_time":"2026-04-02T17:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(config.ADSBConfig{
		BaseURL: srv.URL,
		APIKey:  "secret-key",
		Timeout: 5 * time.Second,
	})

	flights, err := client.RecentFlights(context.Background(), "N12345")
	if err != nil {
		t.Fatalf("RecentFlights: %v", err)
	}

	if gotPath != "/flights" {
		t.Errorf("path = %s, want /flights", gotPath)
	}
	if gotQuery != "N12345" {
		t.Errorf("registration = %s, want N12345", gotQuery)
	}
	if gotKey != "secret-key" {
		t.Errorf("api key header = %q", gotKey)
	}

	if len(flights) != 2 {
		t.Fatalf("flights = %d, want 2", len(flights))
	}
	first := flights[0]
	if first.FlightID != "pf-1" || first.DepartureAirport != "KPAO" {
		t.Errorf("unexpected first flight: %+v", first)
	}
	if first.OnBlockTime == nil || !first.OnBlockTime.Equal(time.Date(2026, 4, 2, 15, 45, 0, 0, time.UTC)) {
		t.Error("on_block_time not decoded")
	}
	if flights[1].OnBlockTime != nil {
		t.Error("missing on_block_time should decode as nil")
	}
}

func TestRecentFlightsEscapesRegistration(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("registration")
		w.Write([]byte(`{"flights":[]}`))
	}))
	defer srv.Close()

	client := NewClient(config.ADSBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if _, err := client.RecentFlights(context.Background(), "N1 2&3"); err != nil {
		t.Fatalf("RecentFlights: %v", err)
	}
	if gotQuery != "N1 2&3" {
		t.Errorf("registration round trip = %q", gotQuery)
	}
}

func TestRecentFlightsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(config.ADSBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if _, err := client.RecentFlights(context.Background(), "N12345"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestRecentFlightsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(config.ADSBConfig{BaseURL: srv.URL, Timeout: 5 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.RecentFlights(ctx, "N12345"); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
