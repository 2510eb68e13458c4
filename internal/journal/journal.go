package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kadirbelkuyu/dyntables/pkg/logger"
)

// Event records one committed schema change.
type Event struct {
	ID         string    `bson:"_id" json:"id"`
	RecordedAt time.Time `bson:"recorded_at" json:"recorded_at"`
	TableID    int64     `bson:"table_id" json:"table_id"`
	Table      string    `bson:"table" json:"table"`
	Op         string    `bson:"op" json:"op"`
	Column     string    `bson:"column,omitempty" json:"column,omitempty"`
	Statements []string  `bson:"statements" json:"statements"`
}

func NewEvent(op string, tableID int64, table, column string, statements []string) Event {
	return Event{
		ID:         uuid.NewString(),
		RecordedAt: time.Now().UTC(),
		TableID:    tableID,
		Table:      table,
		Op:         op,
		Column:     column,
		Statements: statements,
	}
}

type Sink interface {
	Record(ctx context.Context, event Event) error
}

// Journal fans events out to its sinks. Recording happens after commit, so a
// failing sink is logged and never fails the operation.
type Journal struct {
	sinks  []Sink
	logger *logger.Logger
}

func New(logger *logger.Logger, sinks ...Sink) *Journal {
	return &Journal{sinks: sinks, logger: logger}
}

func (j *Journal) Record(ctx context.Context, event Event) {
	for _, sink := range j.sinks {
		if err := sink.Record(ctx, event); err != nil {
			j.logger.Warnf("Failed to record schema event %s: %v", event.ID, err)
		}
	}
}

// LogSink writes events to the application log.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(logger *logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, event Event) error {
	s.logger.WithFields(logrus.Fields{
		"event":    event.ID,
		"table_id": event.TableID,
		"table":    event.Table,
		"op":       event.Op,
		"column":   event.Column,
	}).Info("Schema change committed")
	return nil
}
