// Package storage defines persistence contracts for the communications
// store: reference entities (guests, properties, reservations) and the four
// channel record families. Channel rows carry their refs already resolved by
// the implementation, so callers never re-join by hand.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguous indicates a lookup intended to be unique matched more
	// than one record.
	ErrAmbiguous = errors.New("lookup matched more than one record")
	// ErrIntegrity indicates seed data violated a referential or
	// cross-table constraint. Fatal at load time.
	ErrIntegrity = errors.New("integrity violation")
)

// Guest is a person who has stayed or inquired. Immutable once loaded.
type Guest struct {
	ID        int64
	FirstName string
	LastName  string
}

// FullName returns "First Last" for display and error messages.
func (g Guest) FullName() string {
	return g.FirstName + " " + g.LastName
}

// Property is a rentable unit. Names are unique and human-meaningful.
type Property struct {
	ID   int64
	Name string
}

// Reservation is one stay, grouping communications that belong to it.
type Reservation struct {
	ID         int64
	GuestID    int64
	PropertyID int64
	CheckIn    time.Time
	CheckOut   time.Time
}

// MonthWindow restricts records to one calendar month in stored time.
// The zero value means unbounded.
type MonthWindow struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM month key.
func ParseMonth(value string) (MonthWindow, error) {
	parsed, err := time.Parse("2006-01", value)
	if err != nil {
		return MonthWindow{}, fmt.Errorf("parse month %q: expected YYYY-MM", value)
	}
	return MonthWindow{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// IsZero reports whether the window is unbounded.
func (w MonthWindow) IsZero() bool {
	return w.Year == 0 && w.Month == 0
}

// Key returns the YYYY-MM form used for month bucketing.
func (w MonthWindow) Key() string {
	return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
}

// Contains reports whether ts falls inside the window. Timestamps are
// compared as stored, without timezone conversion.
func (w MonthWindow) Contains(ts time.Time) bool {
	if w.IsZero() {
		return true
	}
	return ts.Year() == w.Year && ts.Month() == w.Month
}

// MessagingMessage is one booking-platform message, with guest, reservation
// and property resolved through its conversation.
type MessagingMessage struct {
	ID             int64
	ConversationID int64
	ReservationID  int64
	GuestID        int64
	PropertyID     int64
	Direction      string
	SentAt         time.Time
	Body           string
}

// Call is one phone call attributed directly to a guest.
type Call struct {
	ID              int64
	GuestID         int64
	Direction       string
	StartedAt       time.Time
	DurationSeconds int64
}

// TranscriptSegment is one speaker turn within a call, ordered by offset
// from the call start.
type TranscriptSegment struct {
	ID            int64
	CallID        int64
	Speaker       string
	OffsetSeconds int64
	Text          string
}

// EmailMessage is one email, with refs resolved through its thread's
// reservation. ReservationID, GuestID and PropertyID are zero when the
// thread is not linked to a reservation.
type EmailMessage struct {
	ID            int64
	ThreadID      int64
	ReservationID int64
	GuestID       int64
	PropertyID    int64
	FromAddress   string
	Subject       string
	Body          string
	SentAt        time.Time
}

// ChatMessage is one team chat message in a property-scoped channel. Chat
// is internal communication and carries no guest attribution.
type ChatMessage struct {
	ID          int64
	ChannelID   int64
	ChannelName string
	PropertyID  int64
	Author      string
	SentAt      time.Time
	Body        string
}

// EntityStore looks up the reference dimensions. Name lookups are exact,
// case-sensitive matches; fuzzy matching belongs above this layer.
type EntityStore interface {
	// GuestByName returns ErrNotFound for zero matches and ErrAmbiguous
	// when more than one guest shares the full name.
	GuestByName(ctx context.Context, firstName, lastName string) (Guest, error)
	PropertyByName(ctx context.Context, name string) (Property, error)
	ListProperties(ctx context.Context) ([]Property, error)
	// ListReservations accepts an AIP-160 filter expression over guest_id,
	// property_id, check_in and check_out. An empty filter lists all.
	ListReservations(ctx context.Context, filter string) ([]Reservation, error)
	// ReservationsForGuest returns the guest's reservations ordered by
	// check-in ascending.
	ReservationsForGuest(ctx context.Context, guestID int64) ([]Reservation, error)
}

// MessagingStore lists booking-platform messages.
type MessagingStore interface {
	ListMessagingMessagesForGuest(ctx context.Context, guestID int64) ([]MessagingMessage, error)
	ListMessagingMessagesForProperty(ctx context.Context, propertyID int64, window MonthWindow) ([]MessagingMessage, error)
}

// CallStore lists calls and transcripts.
type CallStore interface {
	ListCallsForGuest(ctx context.Context, guestID int64) ([]Call, error)
	// ListCallsForProperty returns calls whose guest holds a reservation at
	// the property, the only attribution a call record allows.
	ListCallsForProperty(ctx context.Context, propertyID int64, window MonthWindow) ([]Call, error)
	// MostRecentCallForGuest resolves start-time ties by the larger id, so
	// the result is a deterministic total order.
	MostRecentCallForGuest(ctx context.Context, guestID int64) (Call, error)
	// TranscriptForCall returns segments ordered ascending by offset.
	TranscriptForCall(ctx context.Context, callID int64) ([]TranscriptSegment, error)
}

// EmailStore lists emails with thread-resolved refs.
type EmailStore interface {
	ListEmailsForGuest(ctx context.Context, guestID int64) ([]EmailMessage, error)
	ListEmailsForProperty(ctx context.Context, propertyID int64, window MonthWindow) ([]EmailMessage, error)
}

// ChatStore lists team chat messages by property scope.
type ChatStore interface {
	ListChatMessagesForProperty(ctx context.Context, propertyID int64, window MonthWindow) ([]ChatMessage, error)
}
