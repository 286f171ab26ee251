package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/hoplog/brewharvest/internal/progress"
)

// LogSink writes each progress event as a structured log line. It is the
// default sink: a multi-hour run needs a durable trail of which regions
// and brewers have completed, since resuming is a manual operation.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.logger.Info("progress event",
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("region", evt.Region),
			zap.String("brewer_id", evt.BrewerID),
			zap.Int64("records", evt.Records),
			zap.String("status_class", string(evt.StatusClass)),
			zap.Duration("dur", evt.Dur),
			zap.String("note", evt.Note),
		)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
