package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skylog/api/internal/models"
)

var ErrFlightNotFound = errors.New("flight not found")

type FlightRepository struct {
	pool *pgxpool.Pool
}

func NewFlightRepository(pool *pgxpool.Pool) *FlightRepository {
	return &FlightRepository{pool: pool}
}

const flightColumns = `
	id, user_id, tail_number, provider_flight_id, departure_airport,
	arrival_airport, depart_at, arrive_at, hobbs_hours, remarks, source,
	created_at, updated_at
`

func (r *FlightRepository) Create(ctx context.Context, flight models.Flight) error {
	const query = `
		INSERT INTO flights (
			id, user_id, tail_number, provider_flight_id, departure_airport,
			arrival_airport, depart_at, arrive_at, hobbs_hours, remarks, source,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		flight.ID,
		flight.UserID,
		flight.TailNumber,
		flight.ProviderFlightID,
		flight.DepartureAirport,
		flight.ArrivalAirport,
		flight.DepartAt,
		flight.ArriveAt,
		flight.HobbsHours,
		flight.Remarks,
		flight.Source,
	)
	return err
}

// GetByID is user-scoped: a flight belonging to another user reads as not
// found.
func (r *FlightRepository) GetByID(ctx context.Context, userID string, id string) (models.Flight, error) {
	const query = `
		SELECT ` + flightColumns + `
		FROM flights WHERE id = $1 AND user_id = $2
	`
	return r.scanFlight(r.pool.QueryRow(ctx, query, id, userID))
}

// GetShared resolves a flight for a validated share link, where the owner
// id comes from the link claims rather than a session.
func (r *FlightRepository) GetShared(ctx context.Context, ownerID string, id string) (models.Flight, error) {
	return r.GetByID(ctx, ownerID, id)
}

func (r *FlightRepository) scanFlight(row pgx.Row) (models.Flight, error) {
	var flight models.Flight
	if err := row.Scan(
		&flight.ID,
		&flight.UserID,
		&flight.TailNumber,
		&flight.ProviderFlightID,
		&flight.DepartureAirport,
		&flight.ArrivalAirport,
		&flight.DepartAt,
		&flight.ArriveAt,
		&flight.HobbsHours,
		&flight.Remarks,
		&flight.Source,
		&flight.CreatedAt,
		&flight.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Flight{}, ErrFlightNotFound
		}
		return models.Flight{}, err
	}
	return flight, nil
}

func (r *FlightRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Flight, error) {
	const query = `
		SELECT ` + flightColumns + `
		FROM flights
		WHERE user_id = $1
		ORDER BY depart_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		flight, err := r.scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, flight)
	}
	return flights, rows.Err()
}

func (r *FlightRepository) Update(ctx context.Context, flight models.Flight) error {
	const query = `
		UPDATE flights SET
			tail_number = $3,
			departure_airport = $4,
			arrival_airport = $5,
			depart_at = $6,
			arrive_at = $7,
			hobbs_hours = $8,
			remarks = $9,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query,
		flight.ID,
		flight.UserID,
		flight.TailNumber,
		flight.DepartureAirport,
		flight.ArrivalAirport,
		flight.DepartAt,
		flight.ArriveAt,
		flight.HobbsHours,
		flight.Remarks,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFlightNotFound
	}
	return nil
}

func (r *FlightRepository) Delete(ctx context.Context, userID string, id string) error {
	const query = `DELETE FROM flights WHERE id = $1 AND user_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFlightNotFound
	}
	return nil
}

// ImportKeys holds the identity of already-stored flights for dedup:
// provider flight ids plus (tail, off-block time) pairs for rows imported
// before provider ids were recorded.
type ImportKeys struct {
	ProviderIDs map[string]struct{}
	Departures  map[string]struct{}
}

func DepartureKey(tailNumber string, departAt time.Time) string {
	return tailNumber + "|" + departAt.UTC().Format(time.RFC3339)
}

func (r *FlightRepository) ImportKeysByUser(ctx context.Context, userID string, tailNumber string) (ImportKeys, error) {
	const query = `
		SELECT provider_flight_id, tail_number, depart_at
		FROM flights
		WHERE user_id = $1 AND tail_number = $2
	`
	rows, err := r.pool.Query(ctx, query, userID, tailNumber)
	if err != nil {
		return ImportKeys{}, err
	}
	defer rows.Close()

	keys := ImportKeys{
		ProviderIDs: make(map[string]struct{}),
		Departures:  make(map[string]struct{}),
	}
	for rows.Next() {
		var providerID *string
		var tail string
		var departAt time.Time
		if err := rows.Scan(&providerID, &tail, &departAt); err != nil {
			return ImportKeys{}, err
		}
		if providerID != nil {
			keys.ProviderIDs[*providerID] = struct{}{}
		}
		keys.Departures[DepartureKey(tail, departAt)] = struct{}{}
	}
	return keys, rows.Err()
}
