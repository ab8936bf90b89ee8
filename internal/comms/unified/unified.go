// Package unified normalizes the four channel record families into one
// channel-agnostic communication record. The projection is a pure function
// over the channel stores, recomputed on every query, so it can never drift
// from the underlying data.
package unified

import (
	"fmt"
	"sort"
	"time"
)

// Source identifies the originating channel of a unified record.
type Source int

const (
	SourceMessaging Source = iota + 1
	SourceCall
	SourceEmail
	SourceChat
)

func (s Source) String() string {
	switch s {
	case SourceMessaging:
		return "messaging"
	case SourceCall:
		return "call"
	case SourceEmail:
		return "email"
	case SourceChat:
		return "chat"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Direction classifies who a communication was addressed to.
type Direction int

const (
	DirectionInbound Direction = iota + 1
	DirectionOutbound
	DirectionInternal
)

func (d Direction) String() string {
	switch d {
	case DirectionInbound:
		return "inbound"
	case DirectionOutbound:
		return "outbound"
	case DirectionInternal:
		return "internal"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// ParseDirection maps a stored direction string onto the enum.
func ParseDirection(value string) (Direction, error) {
	switch value {
	case "inbound":
		return DirectionInbound, nil
	case "outbound":
		return DirectionOutbound, nil
	case "internal":
		return DirectionInternal, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", value)
	}
}

// Record is one normalized communication unit from any channel. Reference
// fields are zero when the source item cannot resolve them; every valid
// record resolves at least a guest or a property.
//
// Identity is (Source, SourceID, SegmentID). SourceID is the id of the
// channel row the record came from; for calls that is always the call id,
// with SegmentID carrying the transcript segment id (zero for a
// transcript-less call). Segment ids live in their own table, so folding
// them into SourceID would let a call id and a segment id collide.
type Record struct {
	Source        Source
	SourceID      int64
	SegmentID     int64
	GuestID       int64
	PropertyID    int64
	ReservationID int64
	SentAt        time.Time
	Direction     Direction
	Content       string
}

// Valid reports whether the record satisfies the unification invariants.
func (r Record) Valid() bool {
	if r.GuestID == 0 && r.PropertyID == 0 {
		return false
	}
	switch r.Direction {
	case DirectionInbound, DirectionOutbound, DirectionInternal:
		return true
	default:
		return false
	}
}

// Sort orders records ascending by sent-at, breaking ties by source enum
// value, source-internal id, then segment id so output is deterministic.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.SentAt.Equal(b.SentAt) {
			return a.SentAt.Before(b.SentAt)
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.SegmentID < b.SegmentID
	})
}

// Dedup removes records sharing a (source, source id, segment id) identity,
// keeping the first occurrence. Used when query shapes union overlapping
// subsets.
func Dedup(records []Record) []Record {
	type key struct {
		source  Source
		id      int64
		segment int64
	}
	seen := make(map[key]struct{}, len(records))
	out := records[:0]
	for _, record := range records {
		k := key{source: record.Source, id: record.SourceID, segment: record.SegmentID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, record)
	}
	return out
}
