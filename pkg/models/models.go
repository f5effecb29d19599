package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// User is the authenticated account as reported by the session probe.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// FlexTime is a timestamp that the service serializes inconsistently:
// either a numeric Unix-seconds value or a date/time literal. It is
// normalized into a time.Time at the JSON boundary so the rest of the
// code never sees the duality.
type FlexTime struct {
	time.Time
}

var literalLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		t.Time = time.Time{}
		return nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		sec := int64(secs)
		nsec := int64((secs - float64(sec)) * float64(time.Second))
		t.Time = time.Unix(sec, nsec)
		return nil
	}

	var literal string
	if err := json.Unmarshal(data, &literal); err != nil {
		return fmt.Errorf("invalid timestamp %s", s)
	}
	for _, layout := range literalLayouts {
		if parsed, err := time.Parse(layout, literal); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", literal)
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}

// LocalDate renders the local calendar date the way the history sidebar
// groups it.
func (t FlexTime) LocalDate() string {
	return t.Local().Format("January 2, 2006")
}

// At wraps a concrete instant. Mostly a test convenience.
func At(t time.Time) FlexTime {
	return FlexTime{Time: t}
}

// PredictionResult is the outcome of one analysis. Immutable once
// produced; ID is only set for history-backed results.
type PredictionResult struct {
	ID         string   `json:"id,omitempty"`
	Disease    string   `json:"disease"`
	Confidence float64  `json:"confidence"`
	Timestamp  FlexTime `json:"timestamp"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// HistoryEntry is a persisted PredictionResult belonging to a user.
type HistoryEntry struct {
	ID         string   `json:"id,omitempty"`
	Disease    string   `json:"disease"`
	Confidence float64  `json:"confidence"`
	Timestamp  FlexTime `json:"timestamp"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// Result reconstructs a displayable PredictionResult from a history
// entry without any network round-trip.
func (e HistoryEntry) Result() PredictionResult {
	return PredictionResult{
		ID:         e.ID,
		Disease:    e.Disease,
		Confidence: e.Confidence,
		Timestamp:  e.Timestamp,
		ImageURL:   e.ImageURL,
	}
}

// HistoryResponse is the envelope returned by GET /history.
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// MessageResponse is the envelope for auth operations that return a
// human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}
