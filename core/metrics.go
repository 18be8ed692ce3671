package core

import (
	"context"
	"fmt"
	"strings"
)

const metricPrefix = "innovate."

// metricTagKeys are the event fields promoted to metric tags. Anything else
// stays in the log line only, keeping tag cardinality bounded.
var metricTagKeys = []string{"strategy", "error_kind", "preference_key"}

type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

// OperationCounterName is the counter incremented once per operation.
func OperationCounterName(operation string) string {
	return metricPrefix + operation + ".total"
}

// OperationDurationName is the histogram of operation durations in ms.
func OperationDurationName(operation string) string {
	return metricPrefix + operation + ".duration_ms"
}

func metricTags(operation string, status string, fields map[string]any) map[string]string {
	tags := map[string]string{"operation": operation, "status": status}
	for _, key := range metricTagKeys {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		if text := strings.TrimSpace(fmt.Sprint(value)); text != "" {
			tags[key] = text
		}
	}
	return tags
}
