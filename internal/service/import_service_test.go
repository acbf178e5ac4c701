package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skylog/api/internal/adsb"
	"skylog/api/internal/models"
	"skylog/api/internal/repository"
)

type fakeFlightStore struct {
	existing []models.Flight
	created  []models.Flight
}

func (s *fakeFlightStore) Create(_ context.Context, flight models.Flight) error {
	s.created = append(s.created, flight)
	return nil
}

func (s *fakeFlightStore) ImportKeysByUser(_ context.Context, userID string, tailNumber string) (repository.ImportKeys, error) {
	keys := repository.ImportKeys{
		ProviderIDs: make(map[string]struct{}),
		Departures:  make(map[string]struct{}),
	}
	for _, f := range s.existing {
		if f.UserID != userID || f.TailNumber != tailNumber {
			continue
		}
		if f.ProviderFlightID != nil {
			keys.ProviderIDs[*f.ProviderFlightID] = struct{}{}
		}
		keys.Departures[repository.DepartureKey(f.TailNumber, f.DepartAt)] = struct{}{}
	}
	return keys, nil
}

type fakeProvider struct {
	flights []adsb.ProviderFlight
}

func (p *fakeProvider) RecentFlights(_ context.Context, _ string) ([]adsb.ProviderFlight, error) {
	return p.flights, nil
}

func providerFlight(id string, departAt time.Time) adsb.ProviderFlight {
	return adsb.ProviderFlight{
		FlightID:         id,
		Registration:     "N12345",
		DepartureAirport: "KPAO",
		ArrivalAirport:   "KSQL",
		OffBlockTime:     departAt,
	}
}

func TestImportForUserNewFlights(t *testing.T) {
	base := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	store := &fakeFlightStore{}
	provider := &fakeProvider{flights: []adsb.ProviderFlight{
		providerFlight("pf-1", base),
		providerFlight("pf-2", base.Add(2*time.Hour)),
	}}
	svc := NewImportService(store, provider, zerolog.Nop())

	summary, err := svc.ImportForUser(context.Background(), "u1", "n12345")
	if err != nil {
		t.Fatalf("ImportForUser: %v", err)
	}
	if summary.Fetched != 2 || summary.Imported != 2 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 2 fetched, 2 imported", summary)
	}

	if len(store.created) != 2 {
		t.Fatalf("created %d flights, want 2", len(store.created))
	}
	first := store.created[0]
	if first.TailNumber != "N12345" {
		t.Errorf("tail not uppercased: %s", first.TailNumber)
	}
	if first.Source != models.FlightSourceADSB {
		t.Errorf("source = %s, want adsb", first.Source)
	}
	if first.ProviderFlightID == nil || *first.ProviderFlightID != "pf-1" {
		t.Error("provider flight id not recorded")
	}
}

func TestImportForUserSkipsByProviderID(t *testing.T) {
	base := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	known := "pf-1"
	store := &fakeFlightStore{existing: []models.Flight{{
		UserID:           "u1",
		TailNumber:       "N12345",
		ProviderFlightID: &known,
		DepartAt:         base.Add(-48 * time.Hour), // departure differs, provider id matches
	}}}
	provider := &fakeProvider{flights: []adsb.ProviderFlight{
		providerFlight("pf-1", base),
		providerFlight("pf-2", base.Add(2*time.Hour)),
	}}
	svc := NewImportService(store, provider, zerolog.Nop())

	summary, err := svc.ImportForUser(context.Background(), "u1", "N12345")
	if err != nil {
		t.Fatalf("ImportForUser: %v", err)
	}
	if summary.Imported != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 imported, 1 skipped", summary)
	}
}

func TestImportForUserSkipsByDeparture(t *testing.T) {
	base := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	// A manually logged flight with no provider id occupies the same
	// tail + off-block slot.
	store := &fakeFlightStore{existing: []models.Flight{{
		UserID:     "u1",
		TailNumber: "N12345",
		DepartAt:   base,
		Source:     models.FlightSourceManual,
	}}}
	provider := &fakeProvider{flights: []adsb.ProviderFlight{
		providerFlight("pf-1", base),
	}}
	svc := NewImportService(store, provider, zerolog.Nop())

	summary, err := svc.ImportForUser(context.Background(), "u1", "N12345")
	if err != nil {
		t.Fatalf("ImportForUser: %v", err)
	}
	if summary.Imported != 0 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 0 imported, 1 skipped", summary)
	}
}

func TestImportForUserInBatchDuplicates(t *testing.T) {
	base := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	store := &fakeFlightStore{}
	provider := &fakeProvider{flights: []adsb.ProviderFlight{
		providerFlight("pf-1", base),
		providerFlight("pf-1", base), // provider sent the same leg twice
		providerFlight("pf-2", base), // different id, same off-block slot
	}}
	svc := NewImportService(store, provider, zerolog.Nop())

	summary, err := svc.ImportForUser(context.Background(), "u1", "N12345")
	if err != nil {
		t.Fatalf("ImportForUser: %v", err)
	}
	if summary.Imported != 1 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 1 imported, 2 skipped", summary)
	}
	if len(store.created) != 1 {
		t.Errorf("created %d flights, want 1", len(store.created))
	}
}

func TestImportForUserEmptyBatch(t *testing.T) {
	store := &fakeFlightStore{}
	svc := NewImportService(store, &fakeProvider{}, zerolog.Nop())

	summary, err := svc.ImportForUser(context.Background(), "u1", "N12345")
	if err != nil {
		t.Fatalf("ImportForUser: %v", err)
	}
	if summary != (ImportSummary{}) {
		t.Errorf("summary = %+v, want zero", summary)
	}
}
