package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/pkg/logger"
)

type failingSink struct{}

func (failingSink) Record(context.Context, Event) error {
	return errors.New("journal unavailable")
}

type memorySink struct {
	events []Event
}

func (m *memorySink) Record(_ context.Context, event Event) error {
	m.events = append(m.events, event)
	return nil
}

func TestNewEvent(t *testing.T) {
	event := NewEvent("add_column", 3, "Products", "price", []string{"ALTER TABLE x"})

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), event.TableID)
	assert.Equal(t, "price", event.Column)
	assert.False(t, event.RecordedAt.IsZero())
}

func TestJournalKeepsGoingWhenASinkFails(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := &logger.Logger{Logger: base}

	memory := &memorySink{}
	j := New(log, failingSink{}, memory)

	event := NewEvent("delete_column", 1, "Products", "price", nil)
	j.Record(context.Background(), event)

	require.Len(t, memory.events, 1)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, event.ID)
}

func TestLogSink(t *testing.T) {
	base, hook := test.NewNullLogger()
	sink := NewLogSink(&logger.Logger{Logger: base})

	event := NewEvent("create_table", 1, "Products", "", []string{"CREATE TABLE x"})
	require.NoError(t, sink.Record(context.Background(), event))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "Schema change committed", entry.Message)
	assert.Equal(t, "Products", entry.Data["table"])
	assert.Equal(t, "create_table", entry.Data["op"])
	assert.Equal(t, event.ID, entry.Data["event"])
}
