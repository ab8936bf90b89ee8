package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harborlane/guestcomms/internal/comms/filter"
	"github.com/harborlane/guestcomms/internal/comms/storage"
)

// GuestByName returns the guest with the exact first and last name. More
// than one match is an ambiguous lookup, surfaced rather than resolved.
func (s *Store) GuestByName(ctx context.Context, firstName, lastName string) (storage.Guest, error) {
	if err := ctx.Err(); err != nil {
		return storage.Guest{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Guest{}, fmt.Errorf("storage is not configured")
	}
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return storage.Guest{}, fmt.Errorf("first and last name are required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, first_name, last_name
		   FROM guests
		  WHERE first_name = ? AND last_name = ?
		  ORDER BY id`,
		firstName,
		lastName,
	)
	if err != nil {
		return storage.Guest{}, fmt.Errorf("get guest by name: %w", err)
	}
	defer rows.Close()

	var matches []storage.Guest
	for rows.Next() {
		var guest storage.Guest
		if err := rows.Scan(&guest.ID, &guest.FirstName, &guest.LastName); err != nil {
			return storage.Guest{}, fmt.Errorf("get guest by name: %w", err)
		}
		matches = append(matches, guest)
	}
	if err := rows.Err(); err != nil {
		return storage.Guest{}, fmt.Errorf("get guest by name: %w", err)
	}

	switch len(matches) {
	case 0:
		return storage.Guest{}, storage.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return storage.Guest{}, fmt.Errorf("%w: %d guests named %s %s", storage.ErrAmbiguous, len(matches), firstName, lastName)
	}
}

// PropertyByName returns the property with the exact name.
func (s *Store) PropertyByName(ctx context.Context, name string) (storage.Property, error) {
	if err := ctx.Err(); err != nil {
		return storage.Property{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Property{}, fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Property{}, fmt.Errorf("property name is required")
	}

	var property storage.Property
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name FROM properties WHERE name = ?`,
		name,
	).Scan(&property.ID, &property.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Property{}, storage.ErrNotFound
		}
		return storage.Property{}, fmt.Errorf("get property by name: %w", err)
	}
	return property, nil
}

// ListProperties returns all properties ordered by id.
func (s *Store) ListProperties(ctx context.Context) ([]storage.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name FROM properties ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var properties []storage.Property
	for rows.Next() {
		var property storage.Property
		if err := rows.Scan(&property.ID, &property.Name); err != nil {
			return nil, fmt.Errorf("list properties: %w", err)
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return properties, nil
}

// ListReservations returns reservations matching an AIP-160 filter
// expression, ordered by check-in then id. An empty filter lists all.
func (s *Store) ListReservations(ctx context.Context, filterStr string) ([]storage.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	cond, err := filter.ParseReservationFilter(filterStr)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	query := `SELECT id, guest_id, property_id, check_in, check_out FROM reservations`
	if cond.Clause != "" {
		query += " WHERE " + cond.Clause
	}
	query += " ORDER BY check_in, id"

	rows, err := s.sqlDB.QueryContext(ctx, query, cond.Params...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ReservationsForGuest returns the guest's reservations ordered by check-in
// ascending.
func (s *Store) ReservationsForGuest(ctx context.Context, guestID int64) ([]storage.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, guest_id, property_id, check_in, check_out
		   FROM reservations
		  WHERE guest_id = ?
		  ORDER BY check_in, id`,
		guestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations for guest: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]storage.Reservation, error) {
	var reservations []storage.Reservation
	for rows.Next() {
		var reservation storage.Reservation
		var checkIn, checkOut string
		if err := rows.Scan(
			&reservation.ID,
			&reservation.GuestID,
			&reservation.PropertyID,
			&checkIn,
			&checkOut,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		var err error
		if reservation.CheckIn, err = parseDate(checkIn); err != nil {
			return nil, err
		}
		if reservation.CheckOut, err = parseDate(checkOut); err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan reservations: %w", err)
	}
	return reservations, nil
}

var _ storage.EntityStore = (*Store)(nil)
