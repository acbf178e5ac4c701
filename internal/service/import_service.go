package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"skylog/api/internal/adsb"
	"skylog/api/internal/ids"
	"skylog/api/internal/models"
	"skylog/api/internal/repository"
)

// FlightStore is the slice of the flight repository the importer needs.
type FlightStore interface {
	Create(ctx context.Context, flight models.Flight) error
	ImportKeysByUser(ctx context.Context, userID string, tailNumber string) (repository.ImportKeys, error)
}

// TrackProvider is the ADS-B client surface. Implemented by adsb.Client.
type TrackProvider interface {
	RecentFlights(ctx context.Context, registration string) ([]adsb.ProviderFlight, error)
}

type ImportService struct {
	flights  FlightStore
	provider TrackProvider
	log      zerolog.Logger
}

func NewImportService(flights FlightStore, provider TrackProvider, log zerolog.Logger) *ImportService {
	return &ImportService{
		flights:  flights,
		provider: provider,
		log:      log,
	}
}

type ImportSummary struct {
	Fetched  int
	Imported int
	Skipped  int
}

// ImportForUser pulls the provider's recent flights for a registration and
// inserts the ones not already logged. Dedup is a single pass over the
// fetched batch against the provider-id and (tail, off-block) key sets,
// which also catches duplicates inside the batch itself.
func (s *ImportService) ImportForUser(ctx context.Context, userID string, registration string) (ImportSummary, error) {
	registration = strings.ToUpper(strings.TrimSpace(registration))

	fetched, err := s.provider.RecentFlights(ctx, registration)
	if err != nil {
		return ImportSummary{}, err
	}

	keys, err := s.flights.ImportKeysByUser(ctx, userID, registration)
	if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{Fetched: len(fetched)}
	for _, pf := range fetched {
		depKey := repository.DepartureKey(registration, pf.OffBlockTime)
		if _, seen := keys.ProviderIDs[pf.FlightID]; seen {
			summary.Skipped++
			continue
		}
		if _, seen := keys.Departures[depKey]; seen {
			summary.Skipped++
			continue
		}

		providerID := pf.FlightID
		flight := models.Flight{
			ID:               ids.New(),
			UserID:           userID,
			TailNumber:       registration,
			ProviderFlightID: &providerID,
			DepartureAirport: pf.DepartureAirport,
			ArrivalAirport:   pf.ArrivalAirport,
			DepartAt:         pf.OffBlockTime,
			ArriveAt:         pf.OnBlockTime,
			Source:           models.FlightSourceADSB,
		}
		if err := s.flights.Create(ctx, flight); err != nil {
			return summary, err
		}

		keys.ProviderIDs[pf.FlightID] = struct{}{}
		keys.Departures[depKey] = struct{}{}
		summary.Imported++
	}

	s.log.Info().
		Str("user_id", userID).
		Str("registration", registration).
		Int("fetched", summary.Fetched).
		Int("imported", summary.Imported).
		Int("skipped", summary.Skipped).
		Msg("adsb import finished")

	return summary, nil
}
