package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/common"
	"github.com/richxcame/fleet/pkg/database"
	"github.com/richxcame/fleet/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand("test")

	names := make([]string, 0)
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	assert.Subset(t, names, []string{"submit", "show", "migrate", "watch"})

	submit, _, err := root.Find([]string{"submit"})
	require.NoError(t, err)
	for _, flag := range []string{"vehicle", "manifest", "file", "delete"} {
		assert.NotNil(t, submit.Flags().Lookup(flag), flag)
	}
}

func TestShowRequiresVehicle(t *testing.T) {
	root := NewRootCommand("test")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"show"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"vehicle" not set`)
}

func TestSubmitRejectsBadInputBeforeConnecting(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"no vehicle", []string{"submit", "--file", "rc=a.pdf"}, "vehicle ID is required"},
		{"malformed vehicle", []string{"submit", "--vehicle", "abc"}, "invalid vehicle ID"},
		{"malformed file flag", []string{"submit", "--vehicle", uuid.NewString(), "--file", "rc"}, "--file"},
		{"malformed delete flag", []string{"submit", "--vehicle", uuid.NewString(), "--delete", "=x"}, "--delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRootCommand("test")
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tt.args)

			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseDirection(t *testing.T) {
	dir, err := parseDirection(nil)
	require.NoError(t, err)
	assert.Equal(t, database.Up, dir)

	dir, err = parseDirection([]string{"down"})
	require.NoError(t, err)
	assert.Equal(t, database.Down, dir)

	_, err = parseDirection([]string{"sideways"})
	assert.Error(t, err)
}

func TestConsoleProgress(t *testing.T) {
	var out bytes.Buffer
	p := newConsoleProgress(&out)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, p.Set(ctx, id, documents.CategoryRC, 0))
	require.NoError(t, p.Set(ctx, id, documents.CategoryRC, 0))
	require.NoError(t, p.Set(ctx, id, documents.CategoryRC, 100))

	assert.Equal(t, "rc           0%\nrc         100%\n", out.String())

	got, err := p.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 100, got[documents.CategoryRC])

	require.NoError(t, p.Clear(ctx, id))
	got, err = p.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDescribe(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, describe(plain))

	err := describe(common.NewValidationError("validation failed", map[string]string{
		"year":         "must be a valid vehicle year",
		"documents.rc": "too many files",
	}))
	assert.Equal(t, "validation failed\n  documents.rc: too many files\n  year: must be a valid vehicle year", err.Error())
}

func TestWriteEvent(t *testing.T) {
	vehicleID := uuid.MustParse("5b0f2a52-8d0c-4d36-9a41-7f2a3c1d9e10")
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	event, err := eventbus.NewEvent(eventbus.SubjectVehicleDocumentsUpdated, "fleet", eventbus.DocumentsUpdatedData{
		VehicleID: vehicleID,
		Documents: map[string][]string{"rc": {"k/rc/1_0_rc.pdf"}},
		UpdatedAt: at,
	})
	require.NoError(t, err)
	event.ID = "evt-1"
	event.Timestamp = at

	var out bytes.Buffer
	require.NoError(t, writeEvent(&out, event))
	assert.JSONEq(t, `{"id":"evt-1","type":"vehicles.documents.updated","source":"fleet","timestamp":"2025-01-02T03:04:05Z",`+
		`"data":{"vehicle_id":"5b0f2a52-8d0c-4d36-9a41-7f2a3c1d9e10","documents":{"rc":["k/rc/1_0_rc.pdf"]},"deletion_errors":0,"updated_at":"2025-01-02T03:04:05Z"}}`,
		out.String())
	assert.Equal(t, byte('\n'), out.Bytes()[out.Len()-1])
}

func TestWriteEventKeepsUndecodablePayload(t *testing.T) {
	var out bytes.Buffer
	event := &eventbus.Event{
		ID:        "evt-2",
		Type:      eventbus.SubjectVehicleCreated,
		Source:    "fleet",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Data:      []byte(`{"vehicle_id":"not-a-uuid"}`),
	}

	require.NoError(t, writeEvent(&out, event))
	assert.JSONEq(t, `{"id":"evt-2","type":"vehicles.created","source":"fleet","timestamp":"2025-01-02T03:04:05Z","data":{"vehicle_id":"not-a-uuid"}}`, out.String())
}
