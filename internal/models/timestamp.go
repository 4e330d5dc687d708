package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Epoch is substituted for missing or unparsable timestamps, so a corrupted
// record always sorts as the oldest rather than the newest.
var Epoch = time.Unix(0, 0).UTC()

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a creation instant that persists as a {seconds, nanoseconds}
// pair and accepts the other shapes historical records carry.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// Instant returns the comparable instant; an unset timestamp is Epoch.
func (t Timestamp) Instant() time.Time {
	return ParseInstant(t.Time)
}

type secondsPair struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int   `json:"nanoseconds"`
}

// MarshalJSON writes the {seconds, nanoseconds} document shape.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(secondsPair{Seconds: t.Unix(), Nanoseconds: t.Nanosecond()})
}

// UnmarshalJSON never fails: shapes it cannot read become Epoch.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		t.Time = Epoch
		return nil
	}
	t.Time = ParseInstant(raw)
	return nil
}

// ParseInstant converts any supported timestamp representation into one
// comparable instant: a {seconds, nanoseconds} pair (also the underscored
// export form), a time value, a date string, or Unix milliseconds.
func ParseInstant(raw any) time.Time {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return Epoch
		}
		return v.UTC()
	case *time.Time:
		if v == nil {
			return Epoch
		}
		return ParseInstant(*v)
	case Timestamp:
		return ParseInstant(v.Time)
	case *Timestamp:
		if v == nil {
			return Epoch
		}
		return ParseInstant(v.Time)
	case map[string]any:
		return parsePair(v)
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts.UTC()
			}
		}
		return Epoch
	case json.Number:
		if ms, ok := number(v); ok {
			return fromMillis(ms)
		}
		return Epoch
	case float64:
		return fromMillis(v)
	case int64:
		return time.UnixMilli(v).UTC()
	case int:
		return time.UnixMilli(int64(v)).UTC()
	default:
		return Epoch
	}
}

func parsePair(m map[string]any) time.Time {
	secRaw, ok := m["seconds"]
	if !ok {
		secRaw, ok = m["_seconds"]
	}
	if !ok {
		return Epoch
	}
	sec, ok := number(secRaw)
	if !ok {
		return Epoch
	}
	nsRaw, ok := m["nanoseconds"]
	if !ok {
		nsRaw = m["_nanoseconds"]
	}
	ns, _ := number(nsRaw)
	if ns < 0 || ns >= 1e9 {
		ns = 0
	}
	return time.Unix(int64(sec), int64(ns)).UTC()
}

func fromMillis(ms float64) time.Time {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return Epoch
	}
	return time.UnixMilli(int64(ms)).UTC()
}

func number(raw any) (float64, bool) {
	switch n := raw.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
