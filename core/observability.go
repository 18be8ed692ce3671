package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// operationEvent is the outcome of one service operation. It is emitted as
// a counter, a duration histogram and one log line.
type operationEvent struct {
	operation string
	status    string
	duration  time.Duration
	err       error
	fields    map[string]any
}

func newOperationEvent(operation string, startedAt time.Time, err error, fields map[string]any) operationEvent {
	event := operationEvent{
		operation: normalizeOperation(operation),
		status:    "success",
		duration:  time.Since(startedAt),
		err:       err,
	}
	if event.operation == "" {
		event.operation = "unknown"
	}
	if err != nil {
		event.status = "failure"
	}

	event.fields = RedactSensitiveMap(fields)
	event.fields["event_type"] = event.operation
	event.fields["status"] = event.status
	event.fields["duration_ms"] = event.duration.Milliseconds()
	if err != nil {
		event.fields["error"] = err.Error()
		for key, value := range errorFields(err) {
			event.fields[key] = value
		}
	}
	return event
}

func (s *Service) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if s == nil {
		return
	}
	event := newOperationEvent(operation, startedAt, err, fields)
	s.emitMetrics(ctx, event)
	s.emitLog(ctx, event)
}

func (s *Service) emitMetrics(ctx context.Context, event operationEvent) {
	if s.metricsRecorder == nil {
		return
	}
	tags := metricTags(event.operation, event.status, event.fields)
	s.metricsRecorder.IncCounter(ctx, OperationCounterName(event.operation), 1, tags)
	s.metricsRecorder.ObserveHistogram(ctx, OperationDurationName(event.operation),
		float64(event.duration.Milliseconds()), metricTags(event.operation, event.status, event.fields))
}

func (s *Service) emitLog(ctx context.Context, event operationEvent) {
	if s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	var args []any
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(event.fields)
	} else {
		args = flattenFields(event.fields)
	}
	if event.err != nil {
		logger.Error(event.operation+" failed", args...)
		return
	}
	logger.Info(event.operation+" succeeded", args...)
}

// errorFields exposes the envelope of err, if it carries one, as log fields.
func errorFields(err error) map[string]any {
	var rich *goerrors.Error
	var resolutionErr *ResolutionError
	switch {
	case errors.As(err, &resolutionErr):
		rich = resolutionErr.ToServiceError()
	case goerrors.As(err, &rich):
	default:
		return nil
	}
	if rich == nil {
		return nil
	}
	fields := map[string]any{
		"error_category":  string(rich.Category),
		"error_text_code": rich.TextCode,
		"error_severity":  rich.Severity.String(),
	}
	if len(rich.Metadata) > 0 {
		fields["error_metadata"] = RedactSensitiveMap(rich.Metadata)
	}
	return fields
}

// flattenFields renders fields as sorted key/value pairs for loggers that
// only take variadic args.
func flattenFields(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.ToLower(strings.TrimSpace(operation))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(operation)
}
