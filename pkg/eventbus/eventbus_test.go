package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_Success(t *testing.T) {
	data := map[string]string{"vehicle_id": "abc"}

	event, err := NewEvent(SubjectVehicleCreated, "fleet", data)
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, SubjectVehicleCreated, event.Type)
	assert.Equal(t, "fleet", event.Source)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, time.UTC, event.Timestamp.Location())

	_, err = uuid.Parse(event.ID)
	assert.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, event.Decode(&decoded))
	assert.Equal(t, "abc", decoded["vehicle_id"])
}

func TestNewEvent_NilData(t *testing.T) {
	event, err := NewEvent("test.event", "test-source", nil)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), event.Data)
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("test.event", "test-source", make(chan int))
	assert.ErrorContains(t, err, "marshal event data")
}

func TestNewEvent_UniqueIDs(t *testing.T) {
	a, err := NewEvent("x", "y", nil)
	require.NoError(t, err)
	b, err := NewEvent("x", "y", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDocumentsUpdatedData_Decode(t *testing.T) {
	vehicleID := uuid.New()
	event, err := NewEvent(SubjectVehicleDocumentsUpdated, "fleet", DocumentsUpdatedData{
		VehicleID:      vehicleID,
		Documents:      map[string][]string{"rc": {"v/rc/b.pdf"}, "puc": {}},
		Deleted:        map[string][]string{"rc": {"v/rc/a.pdf"}},
		DeletionErrors: 1,
	})
	require.NoError(t, err)

	var got DocumentsUpdatedData
	require.NoError(t, event.Decode(&got))
	assert.Equal(t, vehicleID, got.VehicleID)
	assert.Equal(t, []string{"v/rc/b.pdf"}, got.Documents["rc"])
	assert.Empty(t, got.Documents["puc"])
	assert.Nil(t, got.Uploaded)
	assert.Equal(t, 1, got.DeletionErrors)
}

func TestEvent_DecodeError(t *testing.T) {
	event := &Event{ID: "1", Type: SubjectVehicleCreated, Data: json.RawMessage(`"not an object"`)}
	var got VehicleCreatedData
	assert.ErrorContains(t, event.Decode(&got), "decode vehicles.created event 1")
}

func TestSubjectsShareStreamWildcard(t *testing.T) {
	for _, subject := range []string{SubjectVehicleCreated, SubjectVehicleDocumentsUpdated} {
		assert.Regexp(t, `^vehicles\.`, subject)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.URL)
	assert.Equal(t, "FLEET", cfg.stream())
	assert.Equal(t, "FLEET", Config{}.stream())
}

func TestHandlerFunc_ReturnsError(t *testing.T) {
	var handler HandlerFunc = func(ctx context.Context, event *Event) error {
		return errors.New("processing failed")
	}
	assert.EqualError(t, handler(context.Background(), &Event{}), "processing failed")
}

func TestBus_Connected_NilConn(t *testing.T) {
	bus := &Bus{}
	assert.False(t, bus.Connected())
}

func TestBus_Close_NoSubs(t *testing.T) {
	bus := &Bus{}
	assert.NotPanics(t, bus.Close)
}
