package queries_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/harborlane/guestcomms/internal/comms/queries"
	"github.com/harborlane/guestcomms/internal/comms/seed"
	"github.com/harborlane/guestcomms/internal/comms/storage/sqlite"
	"github.com/harborlane/guestcomms/internal/comms/unified"
)

func newSeededRunner(t *testing.T) *queries.Runner {
	t.Helper()

	store := openTempStore(t)
	if err := seed.Load(context.Background(), store); err != nil {
		t.Fatalf("load seed: %v", err)
	}
	return newRunner(t, store)
}

func openTempStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "comms.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func newRunner(t *testing.T, store *sqlite.Store) *queries.Runner {
	t.Helper()

	projector, err := unified.NewProjector(store, "driftwoodstays.example")
	if err != nil {
		t.Fatalf("new projector: %v", err)
	}
	runner, err := queries.NewRunner(queries.Stores{
		Entities:  store,
		Messaging: store,
		Calls:     store,
		Email:     store,
		Chat:      store,
	}, projector)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return runner
}

func assertSortedAndValid(t *testing.T, records []unified.Record) {
	t.Helper()

	for i, record := range records {
		if !record.Valid() {
			t.Fatalf("record %d violates unification invariants: %+v", i, record)
		}
		if i > 0 && record.SentAt.Before(records[i-1].SentAt) {
			t.Fatalf("timestamps decrease at position %d", i)
		}
	}
}

func TestForCheckInUnionsReservationAndGuestRecords(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	records, err := runner.ForCheckIn(context.Background(), "2026-03-05")
	if err != nil {
		t.Fatalf("for check-in: %v", err)
	}
	assertSortedAndValid(t, records)

	// Marcus: 4 messaging messages, 7 transcript segments, 2 emails.
	if len(records) != 13 {
		t.Fatalf("len = %d, want 13", len(records))
	}
	for _, record := range records {
		if record.GuestID != 1 {
			t.Fatalf("record from extraneous guest: %+v", record)
		}
		if record.Source == unified.SourceChat {
			t.Fatalf("chat must not match a reservation/guest union: %+v", record)
		}
	}
	// Marcus has one reservation, so his calls resolve to it transitively.
	for _, record := range records {
		if record.Source == unified.SourceCall && (record.ReservationID != 1 || record.PropertyID != 1) {
			t.Fatalf("call record unresolved: %+v", record)
		}
	}
}

func TestForCheckInNoReservationYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	records, err := runner.ForCheckIn(context.Background(), "1999-01-01")
	if err != nil {
		t.Fatalf("for check-in: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d records", len(records))
	}
}

func TestForCheckInRejectsMalformedDate(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	if _, err := runner.ForCheckIn(context.Background(), "March 5th"); err == nil {
		t.Fatal("expected date validation error")
	}
}

func TestForCheckInKeepsCallsWhoseIDMatchesASegmentID(t *testing.T) {
	t.Parallel()

	// Call 1 has no transcript; call 2's only segment also carries id 1.
	// The ids come from different tables, so both records must survive
	// deduplication.
	store := openTempStore(t)
	if err := store.LoadScript(context.Background(), `
INSERT INTO guests (id, first_name, last_name) VALUES (1, 'Noor', 'Haddad');
INSERT INTO properties (id, name) VALUES (1, 'Harbor Flat');
INSERT INTO reservations (id, guest_id, property_id, check_in, check_out) VALUES
    (1, 1, 1, '2026-03-05', '2026-03-10');
INSERT INTO calls (id, guest_id, direction, started_at, duration_seconds) VALUES
    (1, 1, 'inbound',  '2026-02-20T10:00:00Z', 60),
    (2, 1, 'outbound', '2026-02-21T10:00:00Z', 90);
INSERT INTO call_transcripts (id, call_id, speaker, offset_seconds, text) VALUES
    (1, 2, 'host', 0, 'Calling about your stay.');
`); err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	runner := newRunner(t, store)

	records, err := runner.ForCheckIn(context.Background(), "2026-03-05")
	if err != nil {
		t.Fatalf("for check-in: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2 (one record was silently dropped): %+v", len(records), records)
	}
	if records[0].SourceID != 1 || records[0].SegmentID != 0 || records[0].Content != "" {
		t.Fatalf("transcript-less call record = %+v", records[0])
	}
	if records[1].SourceID != 2 || records[1].SegmentID != 1 {
		t.Fatalf("segment record = %+v", records[1])
	}
}

func TestPropertyChatMaintenanceFiltersByKeywordMonthAndProperty(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	records, err := runner.PropertyChatMaintenance(context.Background(), "Cottage 3", "2026-02")
	if err != nil {
		t.Fatalf("maintenance query: %v", err)
	}
	assertSortedAndValid(t, records)

	// The hvac report and the heating fix match; the towel restock does
	// not, and the March blinds message is outside the month.
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].SourceID != 1 || records[1].SourceID != 3 {
		t.Fatalf("matched ids = %d,%d, want 1,3", records[0].SourceID, records[1].SourceID)
	}
	for _, record := range records {
		if record.Direction != unified.DirectionInternal {
			t.Fatalf("chat record direction = %v, want internal", record.Direction)
		}
	}
}

func TestPropertyChatMaintenanceUnknownPropertyIsEmpty(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	records, err := runner.PropertyChatMaintenance(context.Background(), "Treehouse 9", "2026-02")
	if err != nil {
		t.Fatalf("maintenance query: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %d", len(records))
	}
}

func TestPropertyChatMaintenanceRejectsMalformedMonth(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	if _, err := runner.PropertyChatMaintenance(context.Background(), "Cottage 3", "February"); err == nil {
		t.Fatal("expected month validation error")
	}
}

func TestLatestCallTranscriptReturnsOnlyMostRecentCall(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	transcript, err := runner.LatestCallTranscript(context.Background(), "Marcus", "Johnson")
	if err != nil {
		t.Fatalf("transcript query: %v", err)
	}
	if transcript == nil {
		t.Fatal("expected a transcript")
	}
	// Marcus has calls on 2026-02-19 and 2026-03-03; only the later one
	// may contribute segments.
	if transcript.Call.ID != 2 {
		t.Fatalf("call id = %d, want 2", transcript.Call.ID)
	}
	if len(transcript.Segments) != 4 {
		t.Fatalf("segments = %d, want 4", len(transcript.Segments))
	}
	var lastOffset int64 = -1
	for _, segment := range transcript.Segments {
		if segment.CallID != 2 {
			t.Fatalf("segment from wrong call: %+v", segment)
		}
		if segment.OffsetSeconds < lastOffset {
			t.Fatalf("offsets out of order at %d", segment.OffsetSeconds)
		}
		if segment.OffsetSeconds > transcript.Call.DurationSeconds {
			t.Fatalf("offset %d exceeds duration %d", segment.OffsetSeconds, transcript.Call.DurationSeconds)
		}
		lastOffset = segment.OffsetSeconds
	}
}

func TestLatestCallTranscriptUnknownGuestIsNil(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	transcript, err := runner.LatestCallTranscript(context.Background(), "Nobody", "Here")
	if err != nil {
		t.Fatalf("transcript query: %v", err)
	}
	if transcript != nil {
		t.Fatalf("expected nil transcript, got %+v", transcript)
	}
}

func TestEmailsForPropertySpansAllThreads(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	emails, err := runner.EmailsForProperty(context.Background(), "Beach House 1")
	if err != nil {
		t.Fatalf("emails query: %v", err)
	}
	// Two Beach House 1 threads: Marcus's confirmation and Sarah's
	// directions, two emails each, ordered by sent-at.
	if len(emails) != 4 {
		t.Fatalf("len = %d, want 4", len(emails))
	}
	wantOrder := []int64{3, 4, 1, 2}
	for i, email := range emails {
		if email.ID != wantOrder[i] {
			t.Fatalf("position %d = email %d, want %d", i, email.ID, wantOrder[i])
		}
		if email.PropertyID != 1 {
			t.Fatalf("email %d resolved to property %d", email.ID, email.PropertyID)
		}
	}
}

func TestGuestTimelineSpansAllFourChannels(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	records, err := runner.GuestTimeline(context.Background(), "Emily", "Rodriguez")
	if err != nil {
		t.Fatalf("timeline query: %v", err)
	}
	assertSortedAndValid(t, records)

	seenSources := make(map[unified.Source]int)
	for _, record := range records {
		seenSources[record.Source]++
		// Direct channels must be Emily's own records; chat is included
		// by property scope and never guest-attributed.
		if record.Source == unified.SourceChat {
			if record.GuestID != 0 {
				t.Fatalf("chat record carries a guest: %+v", record)
			}
			continue
		}
		if record.GuestID != 2 {
			t.Fatalf("record from extraneous guest: %+v", record)
		}
	}
	for _, source := range []unified.Source{
		unified.SourceMessaging, unified.SourceCall, unified.SourceEmail, unified.SourceChat,
	} {
		if seenSources[source] == 0 {
			t.Fatalf("timeline missing source %s", source)
		}
	}

	// Emily has two reservations, so her call refs stay unresolved rather
	// than silently guessed.
	for _, record := range records {
		if record.Source == unified.SourceCall && record.ReservationID != 0 {
			t.Fatalf("ambiguous call attribution resolved silently: %+v", record)
		}
	}
}

func TestGuestTimelineIdempotentAcrossLoads(t *testing.T) {
	t.Parallel()

	first := runTimeline(t, newSeededRunner(t))
	second := runTimeline(t, newSeededRunner(t))

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("records differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func runTimeline(t *testing.T, runner *queries.Runner) []unified.Record {
	t.Helper()

	records, err := runner.GuestTimeline(context.Background(), "Emily", "Rodriguez")
	if err != nil {
		t.Fatalf("timeline query: %v", err)
	}
	return records
}

func TestMaintenanceByPropertyAggregates(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	summaries, err := runner.MaintenanceByProperty(context.Background(), "2026-02")
	if err != nil {
		t.Fatalf("aggregate query: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("len = %d, want 3", len(summaries))
	}

	// Cottage 3 has two February mentions; the tie between the others
	// breaks on property name.
	if summaries[0].PropertyName != "Cottage 3" || summaries[0].Mentions != 2 {
		t.Fatalf("top summary = %+v", summaries[0])
	}
	if summaries[1].PropertyName != "Beach House 1" || summaries[2].PropertyName != "Downtown Loft" {
		t.Fatalf("tie order = %s, %s", summaries[1].PropertyName, summaries[2].PropertyName)
	}
	for i := 1; i < len(summaries); i++ {
		if summaries[i].Mentions > summaries[i-1].Mentions {
			t.Fatalf("counts increase at position %d", i)
		}
	}

	top := summaries[0]
	wantFirst := time.Date(2026, time.February, 11, 9, 20, 0, 0, time.UTC)
	wantLast := time.Date(2026, time.February, 13, 10, 5, 0, 0, time.UTC)
	if !top.FirstAt.Equal(wantFirst) || !top.LastAt.Equal(wantLast) {
		t.Fatalf("window = %v..%v, want %v..%v", top.FirstAt, top.LastAt, wantFirst, wantLast)
	}
}

func TestMaintenanceByPropertyRejectsMalformedMonth(t *testing.T) {
	t.Parallel()

	runner := newSeededRunner(t)
	if _, err := runner.MaintenanceByProperty(context.Background(), "2026/02"); err == nil {
		t.Fatal("expected month validation error")
	}
}
