package model

import (
    "fmt"
    "time"
)

// Session statuses.
const (
    SessionAvailable = "AVAILABLE"
    SessionBooked    = "BOOKED"
    SessionCancelled = "CANCELLED"
)

// Wire layouts for session dates and wall-clock times.
const (
    DateLayout  = "2006-01-02"
    ClockLayout = "15:04"

    // EndOfDay is the only clock value past 23:59.  It is valid as an end
    // time and, since nothing sorts after it, never as a start time.
    EndOfDay = "24:00"
)

// MaxPrice is the largest price a DECIMAL(10,2) column holds.
const MaxPrice = 99999999.99

// ValidSessionStatus reports whether s is a known session status.
func ValidSessionStatus(s string) bool {
    switch s {
    case SessionAvailable, SessionBooked, SessionCancelled:
        return true
    }
    return false
}

// Session is a bookable time slot on a stadium for one calendar date.
// The interval [StartTime, EndTime) is half-open: a session ending at
// 11:00 does not overlap one starting at 11:00.
//
// Fields:
//  ID        – primary key identifier.
//  StadiumID – stadium the slot belongs to.
//  Date      – calendar date, YYYY-MM-DD.
//  StartTime – start wall-clock time, HH:MM (24h).
//  EndTime   – end wall-clock time, HH:MM or 24:00, strictly after StartTime.
//  Price     – non-negative price with two decimals.
//  Status    – AVAILABLE, BOOKED or CANCELLED.
//  BookedBy  – user holding the booking while Status is BOOKED.
//  Stadium   – the owning stadium, embedded on reads.
type Session struct {
    ID        uint64    `json:"id"`
    StadiumID uint64    `json:"stadium_id"`
    Date      string    `json:"date"`
    StartTime string    `json:"start_time"`
    EndTime   string    `json:"end_time"`
    Price     float64   `json:"price"`
    Status    string    `json:"status"`
    BookedBy  *uint64   `json:"booked_by,omitempty"`
    Stadium   *Stadium  `json:"stadium,omitempty"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps reports whether the two sessions share any instant.  Cancelled
// sessions and sessions on a different stadium or date never overlap.
func (s Session) Overlaps(o Session) bool {
    if s.StadiumID != o.StadiumID || s.Date != o.Date {
        return false
    }
    if s.Status == SessionCancelled || o.Status == SessionCancelled {
        return false
    }
    return o.StartTime < s.EndTime && o.EndTime > s.StartTime
}

// SessionFilter narrows a session listing; zero values mean "any".
type SessionFilter struct {
    StadiumID uint64
    Date      string
    Status    string
    BookedBy  *uint64
}

// SessionPatch is a partial update of a session.
type SessionPatch struct {
    StadiumID Patch[uint64]  `json:"stadium_id"`
    Date      Patch[string]  `json:"date"`
    StartTime Patch[string]  `json:"start_time"`
    EndTime   Patch[string]  `json:"end_time"`
    Price     Patch[float64] `json:"price"`
    Status    Patch[string]  `json:"status"`
}

// NormalizeDate parses a YYYY-MM-DD date and returns it in canonical form.
func NormalizeDate(s string) (string, error) {
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
    }
    return t.Format(DateLayout), nil
}

// NormalizeClock parses an HH:MM time and returns it zero-padded, so
// that clock values compare correctly as strings.  "24:00" is accepted
// as the end of the day.
func NormalizeClock(s string) (string, error) {
    if s == EndOfDay {
        return EndOfDay, nil
    }
    t, err := time.Parse(ClockLayout, s)
    if err != nil {
        return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
    }
    return t.Format(ClockLayout), nil
}
