// Package queries implements the fixed analytical queries over the
// communications store. Each query validates its parameters, reads the
// immutable store, and composes the unified projection; lookup misses yield
// empty results rather than errors.
package queries

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harborlane/guestcomms/internal/comms/storage"
	"github.com/harborlane/guestcomms/internal/comms/unified"
)

// Stores bundles the storage contracts a Runner reads from.
type Stores struct {
	Entities  storage.EntityStore
	Messaging storage.MessagingStore
	Calls     storage.CallStore
	Email     storage.EmailStore
	Chat      storage.ChatStore
}

// Runner executes the fixed queries.
type Runner struct {
	stores      Stores
	projector   *unified.Projector
	maintenance *unified.Matcher
}

// NewRunner builds a query runner over the given stores.
func NewRunner(stores Stores, projector *unified.Projector) (*Runner, error) {
	if stores.Entities == nil || stores.Messaging == nil || stores.Calls == nil || stores.Email == nil || stores.Chat == nil {
		return nil, fmt.Errorf("all stores are required")
	}
	if projector == nil {
		return nil, fmt.Errorf("projector is required")
	}
	return &Runner{
		stores:      stores,
		projector:   projector,
		maintenance: unified.NewMaintenanceMatcher(),
	}, nil
}

// ForCheckIn returns every unified record for the reservation checking in
// on the given YYYY-MM-DD date, unioned with all records for that
// reservation's guest so pre-booking contact is captured too. Sorted by
// sent-at ascending. A date matching no reservation yields an empty result.
func (r *Runner) ForCheckIn(ctx context.Context, date string) ([]unified.Record, error) {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(date)); err != nil {
		return nil, fmt.Errorf("check-in date %q: expected YYYY-MM-DD", date)
	}

	reservations, err := r.stores.Entities.ListReservations(ctx, fmt.Sprintf("check_in = %q", strings.TrimSpace(date)))
	if err != nil {
		return nil, err
	}

	var records []unified.Record
	for _, reservation := range reservations {
		guestRecords, err := r.guestRecords(ctx, reservation.GuestID)
		if err != nil {
			return nil, err
		}
		records = append(records, guestRecords...)
	}
	records = unified.Dedup(records)
	unified.Sort(records)
	return records, nil
}

// PropertyChatMaintenance returns the maintenance-matched team chat records
// for one property within one calendar month, sorted by sent-at ascending.
func (r *Runner) PropertyChatMaintenance(ctx context.Context, propertyName, month string) ([]unified.Record, error) {
	window, err := storage.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	property, err := r.stores.Entities.PropertyByName(ctx, propertyName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	messages, err := r.stores.Chat.ListChatMessagesForProperty(ctx, property.ID, window)
	if err != nil {
		return nil, err
	}

	var records []unified.Record
	for _, message := range messages {
		if !r.maintenance.Match(message.Body) {
			continue
		}
		records = append(records, r.projector.FromChat(message))
	}
	unified.Sort(records)
	return records, nil
}

// Transcript is the result of the most-recent-call query.
type Transcript struct {
	Guest    storage.Guest
	Call     storage.Call
	Segments []storage.TranscriptSegment
}

// LatestCallTranscript returns the full transcript of the most recent call
// for the named guest, segments ordered ascending by offset. Start-time
// ties resolve to the larger call id. A guest with no calls, or an unknown
// name, yields a nil result without error.
func (r *Runner) LatestCallTranscript(ctx context.Context, firstName, lastName string) (*Transcript, error) {
	guest, err := r.stores.Entities.GuestByName(ctx, firstName, lastName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	call, err := r.stores.Calls.MostRecentCallForGuest(ctx, guest.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	segments, err := r.stores.Calls.TranscriptForCall(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	return &Transcript{Guest: guest, Call: call, Segments: segments}, nil
}

// EmailsForProperty returns every email whose thread's reservation is at
// the named property, sorted by sent-at ascending.
func (r *Runner) EmailsForProperty(ctx context.Context, propertyName string) ([]storage.EmailMessage, error) {
	property, err := r.stores.Entities.PropertyByName(ctx, propertyName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.stores.Email.ListEmailsForProperty(ctx, property.ID, storage.MonthWindow{})
}

// GuestTimeline returns the full unified timeline for the named guest
// across all sources, sorted by sent-at ascending. Chat never matches by
// guest identity; chat records are included by property scope, for the
// properties where the guest holds a reservation.
func (r *Runner) GuestTimeline(ctx context.Context, firstName, lastName string) ([]unified.Record, error) {
	guest, err := r.stores.Entities.GuestByName(ctx, firstName, lastName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := r.guestRecords(ctx, guest.ID)
	if err != nil {
		return nil, err
	}

	reservations, err := r.stores.Entities.ReservationsForGuest(ctx, guest.ID)
	if err != nil {
		return nil, err
	}
	seenProperties := make(map[int64]struct{}, len(reservations))
	for _, reservation := range reservations {
		if _, ok := seenProperties[reservation.PropertyID]; ok {
			continue
		}
		seenProperties[reservation.PropertyID] = struct{}{}

		messages, err := r.stores.Chat.ListChatMessagesForProperty(ctx, reservation.PropertyID, storage.MonthWindow{})
		if err != nil {
			return nil, err
		}
		for _, message := range messages {
			records = append(records, r.projector.FromChat(message))
		}
	}

	records = unified.Dedup(records)
	unified.Sort(records)
	return records, nil
}

// MaintenanceSummary aggregates one property's maintenance-matched chat
// activity within a month.
type MaintenanceSummary struct {
	PropertyID   int64
	PropertyName string
	Mentions     int
	FirstAt      time.Time
	LastAt       time.Time
}

// MaintenanceByProperty counts maintenance-matched chat messages per
// property within one calendar month, with the earliest and latest matching
// timestamps. Ordered by count descending, property name ascending on ties.
// Properties with no matches are omitted.
func (r *Runner) MaintenanceByProperty(ctx context.Context, month string) ([]MaintenanceSummary, error) {
	window, err := storage.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	properties, err := r.stores.Entities.ListProperties(ctx)
	if err != nil {
		return nil, err
	}

	var summaries []MaintenanceSummary
	for _, property := range properties {
		messages, err := r.stores.Chat.ListChatMessagesForProperty(ctx, property.ID, window)
		if err != nil {
			return nil, err
		}

		summary := MaintenanceSummary{PropertyID: property.ID, PropertyName: property.Name}
		for _, message := range messages {
			if !r.maintenance.Match(message.Body) {
				continue
			}
			if summary.Mentions == 0 || message.SentAt.Before(summary.FirstAt) {
				summary.FirstAt = message.SentAt
			}
			if summary.Mentions == 0 || message.SentAt.After(summary.LastAt) {
				summary.LastAt = message.SentAt
			}
			summary.Mentions++
		}
		if summary.Mentions > 0 {
			summaries = append(summaries, summary)
		}
	}

	sortSummaries(summaries)
	return summaries, nil
}

func sortSummaries(summaries []MaintenanceSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Mentions != summaries[j].Mentions {
			return summaries[i].Mentions > summaries[j].Mentions
		}
		return summaries[i].PropertyName < summaries[j].PropertyName
	})
}

// guestRecords projects every guest-attributed record across messaging,
// calls and email. Chat is excluded here because chat records are never
// guest-attributed.
func (r *Runner) guestRecords(ctx context.Context, guestID int64) ([]unified.Record, error) {
	var records []unified.Record

	messages, err := r.stores.Messaging.ListMessagingMessagesForGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	for _, message := range messages {
		record, err := r.projector.FromMessaging(message)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	calls, err := r.stores.Calls.ListCallsForGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	for _, call := range calls {
		segments, err := r.stores.Calls.TranscriptForCall(ctx, call.ID)
		if err != nil {
			return nil, err
		}
		callRecords, err := r.projector.FromCall(ctx, call, segments, 0)
		if err != nil {
			return nil, err
		}
		records = append(records, callRecords...)
	}

	emails, err := r.stores.Email.ListEmailsForGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	for _, email := range emails {
		record, err := r.projector.FromEmail(email)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
