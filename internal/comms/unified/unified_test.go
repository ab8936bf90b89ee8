package unified

import (
	"testing"
	"time"
)

func TestSourceAndDirectionStrings(t *testing.T) {
	t.Parallel()

	if SourceMessaging.String() != "messaging" || SourceChat.String() != "chat" {
		t.Fatalf("unexpected source names: %s, %s", SourceMessaging, SourceChat)
	}
	if DirectionInternal.String() != "internal" {
		t.Fatalf("unexpected direction name: %s", DirectionInternal)
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value string
		want  Direction
	}{
		{value: "inbound", want: DirectionInbound},
		{value: "outbound", want: DirectionOutbound},
		{value: "internal", want: DirectionInternal},
	}
	for _, tc := range testCases {
		got, err := ParseDirection(tc.value)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.value, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q = %v, want %v", tc.value, got, tc.want)
		}
	}

	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error for free-text direction")
	}
}

func TestRecordValid(t *testing.T) {
	t.Parallel()

	valid := Record{GuestID: 1, Direction: DirectionInbound}
	if !valid.Valid() {
		t.Fatal("expected guest-attributed record to be valid")
	}

	neither := Record{Direction: DirectionInbound}
	if neither.Valid() {
		t.Fatal("expected record with neither guest nor property to be invalid")
	}

	badDirection := Record{PropertyID: 1}
	if badDirection.Valid() {
		t.Fatal("expected record without direction to be invalid")
	}
}

func TestSortOrdersBySentAtThenSourceThenID(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{Source: SourceChat, SourceID: 9, SentAt: at},
		{Source: SourceMessaging, SourceID: 5, SentAt: at.Add(time.Hour)},
		{Source: SourceCall, SourceID: 2, SentAt: at},
		{Source: SourceCall, SourceID: 1, SentAt: at},
	}

	Sort(records)

	wantOrder := []struct {
		source Source
		id     int64
	}{
		{SourceCall, 1},
		{SourceCall, 2},
		{SourceChat, 9},
		{SourceMessaging, 5},
	}
	for i, want := range wantOrder {
		if records[i].Source != want.source || records[i].SourceID != want.id {
			t.Fatalf("position %d = %s/%d, want %s/%d",
				i, records[i].Source, records[i].SourceID, want.source, want.id)
		}
	}
}

func TestSortTimestampsNonDecreasing(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{Source: SourceEmail, SourceID: 3, SentAt: base.Add(48 * time.Hour)},
		{Source: SourceCall, SourceID: 1, SentAt: base},
		{Source: SourceChat, SourceID: 2, SentAt: base.Add(24 * time.Hour)},
	}

	Sort(records)

	for i := 1; i < len(records); i++ {
		if records[i].SentAt.Before(records[i-1].SentAt) {
			t.Fatalf("timestamps decrease at position %d", i)
		}
	}
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Source: SourceCall, SourceID: 1, Content: "first"},
		{Source: SourceEmail, SourceID: 1, Content: "different source"},
		{Source: SourceCall, SourceID: 1, Content: "duplicate"},
	}

	out := Dedup(records)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Content != "first" {
		t.Fatalf("kept %q, want first occurrence", out[0].Content)
	}
}

func TestDedupSeparatesCallAndSegmentIdentities(t *testing.T) {
	t.Parallel()

	// Segment ids are a separate id space from call ids, so a
	// transcript-less call and another call's segment may share the same
	// number. None of these may collapse.
	records := []Record{
		{Source: SourceCall, SourceID: 1, SegmentID: 0, Content: "call without transcript"},
		{Source: SourceCall, SourceID: 2, SegmentID: 1, Content: "segment of another call"},
		{Source: SourceCall, SourceID: 2, SegmentID: 2, Content: "second segment"},
		{Source: SourceCall, SourceID: 2, SegmentID: 1, Content: "duplicate segment"},
	}

	out := Dedup(records)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].Content != "call without transcript" || out[1].Content != "segment of another call" {
		t.Fatalf("wrong records kept: %+v", out)
	}
}
