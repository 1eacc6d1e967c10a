package queue

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleMessageWritesAuditLine(t *testing.T) {
	ev := NewSessionEvent(EventSessionBooked)
	ev.SessionID = 12
	ev.StadiumID = 3
	ev.StadiumName = "Arena"
	ev.UserID = 9
	ev.Date = "2024-05-01"
	ev.StartTime = "10:00"
	ev.EndTime = "11:00"
	ev.Price = 40
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, HandleMessage(&buf, body))

	line := buf.String()
	assert.Contains(t, line, "session.booked")
	assert.Contains(t, line, "session_id=12")
	assert.Contains(t, line, "user_id=9")
	assert.Contains(t, line, `stadium="Arena"`)
	assert.Contains(t, line, "time=10:00-11:00")
	assert.Contains(t, line, "price=40.00")
	assert.Contains(t, line, "event_id="+ev.ID)
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, HandleMessage(&buf, []byte("{not json")))
	assert.Error(t, HandleMessage(&buf, []byte(`{"type":"session.booked"}`)))
	assert.Zero(t, buf.Len())
}

func TestNewSessionEventStampsIDs(t *testing.T) {
	a := NewSessionEvent(EventSessionReleased)
	b := NewSessionEvent(EventSessionReleased)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.OccurredAt)
}

func TestNewBookingLogCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "booking.log")
	w, err := NewBookingLog(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}
