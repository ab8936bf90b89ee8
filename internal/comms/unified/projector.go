package unified

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harborlane/guestcomms/internal/comms/storage"
)

// ReservationResolver supplies a guest's reservations for call attribution.
type ReservationResolver interface {
	ReservationsForGuest(ctx context.Context, guestID int64) ([]storage.Reservation, error)
}

// Projector maps channel records onto unified records per the normalization
// rules. It holds no state beyond its collaborators, so projections are
// recomputed from source data on every call.
type Projector struct {
	resolver ReservationResolver
	// hostDomain classifies email senders: addresses at this domain are the
	// host side, everything else is the guest side.
	hostDomain string
}

// NewProjector builds a projector. hostDomain must be the bare domain of
// the host's outbound email addresses.
func NewProjector(resolver ReservationResolver, hostDomain string) (*Projector, error) {
	if resolver == nil {
		return nil, fmt.Errorf("reservation resolver is required")
	}
	hostDomain = strings.TrimPrefix(strings.TrimSpace(hostDomain), "@")
	if hostDomain == "" {
		return nil, fmt.Errorf("host domain is required")
	}
	return &Projector{resolver: resolver, hostDomain: hostDomain}, nil
}

// FromMessaging projects one booking-platform message. Guest and
// reservation come from the conversation; property transitively from the
// reservation.
func (p *Projector) FromMessaging(message storage.MessagingMessage) (Record, error) {
	direction, err := ParseDirection(message.Direction)
	if err != nil {
		return Record{}, fmt.Errorf("messaging message %d: %w", message.ID, err)
	}
	return Record{
		Source:        SourceMessaging,
		SourceID:      message.ID,
		GuestID:       message.GuestID,
		PropertyID:    message.PropertyID,
		ReservationID: message.ReservationID,
		SentAt:        message.SentAt,
		Direction:     direction,
		Content:       message.Body,
	}, nil
}

// FromCall projects one call into records, one per transcript segment with
// the segment's text placed at call start plus offset. Every record carries
// the call id as SourceID and the segment id as SegmentID, keeping call and
// segment id spaces apart. A call with no transcript yields a single record
// with empty content so the call is never invisible to channel-agnostic
// queries.
//
// Reservation attribution: a guest with exactly one reservation resolves to
// it; with several, propertyHint (0 = none) selects among them; otherwise
// the reservation and property stay unresolved rather than guessed.
func (p *Projector) FromCall(ctx context.Context, call storage.Call, segments []storage.TranscriptSegment, propertyHint int64) ([]Record, error) {
	direction, err := ParseDirection(call.Direction)
	if err != nil {
		return nil, fmt.Errorf("call %d: %w", call.ID, err)
	}

	reservationID, propertyID, err := p.resolveCallReservation(ctx, call.GuestID, propertyHint)
	if err != nil {
		return nil, fmt.Errorf("call %d: %w", call.ID, err)
	}

	base := Record{
		Source:        SourceCall,
		SourceID:      call.ID,
		GuestID:       call.GuestID,
		PropertyID:    propertyID,
		ReservationID: reservationID,
		Direction:     direction,
	}

	if len(segments) == 0 {
		record := base
		record.SentAt = call.StartedAt
		return []Record{record}, nil
	}

	records := make([]Record, 0, len(segments))
	for _, segment := range segments {
		record := base
		record.SegmentID = segment.ID
		record.SentAt = call.StartedAt.Add(time.Duration(segment.OffsetSeconds) * time.Second)
		record.Content = segment.Text
		records = append(records, record)
	}
	return records, nil
}

func (p *Projector) resolveCallReservation(ctx context.Context, guestID, propertyHint int64) (reservationID, propertyID int64, err error) {
	reservations, err := p.resolver.ReservationsForGuest(ctx, guestID)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve reservations: %w", err)
	}
	if len(reservations) == 1 {
		return reservations[0].ID, reservations[0].PropertyID, nil
	}
	if propertyHint != 0 {
		// Several candidates at the hinted property: take the latest stay.
		for i := len(reservations) - 1; i >= 0; i-- {
			if reservations[i].PropertyID == propertyHint {
				return reservations[i].ID, reservations[i].PropertyID, nil
			}
		}
	}
	return 0, 0, nil
}

// FromEmail projects one email. Direction is inferred from the sender:
// host-domain addresses are outbound, everything else inbound.
func (p *Projector) FromEmail(email storage.EmailMessage) (Record, error) {
	if email.GuestID == 0 && email.PropertyID == 0 {
		return Record{}, fmt.Errorf("email %d: thread resolves neither guest nor property", email.ID)
	}
	direction := DirectionInbound
	if strings.HasSuffix(strings.ToLower(email.FromAddress), "@"+strings.ToLower(p.hostDomain)) {
		direction = DirectionOutbound
	}
	return Record{
		Source:        SourceEmail,
		SourceID:      email.ID,
		GuestID:       email.GuestID,
		PropertyID:    email.PropertyID,
		ReservationID: email.ReservationID,
		SentAt:        email.SentAt,
		Direction:     direction,
		Content:       email.Body,
	}, nil
}

// FromChat projects one team chat message. Chat is internal communication:
// the property comes from the channel scope and the guest is never set.
func (p *Projector) FromChat(message storage.ChatMessage) Record {
	return Record{
		Source:     SourceChat,
		SourceID:   message.ID,
		PropertyID: message.PropertyID,
		SentAt:     message.SentAt,
		Direction:  DirectionInternal,
		Content:    message.Body,
	}
}
