package worker

import (
	"context"
	"time"

	"github.com/dao-treasury/dao-server/pkg/metrics"
)

const (
	commandProcessedEventName = "DaoCommandProcessed"

	commandDurationMetricName = "Custom/DaoWorker/CommandDuration/"
	droppedDeliveryMetricName = "Custom/DaoWorker/DroppedDeliveries"
)

func recordCommandProcessedEvent(ctx context.Context, resp *Response) {
	kvPairs := map[string]interface{}{
		"command":        resp.Command,
		"project_id":     resp.ProjectID,
		"correlation_id": resp.CorrelationID,
		"success":        resp.Success,
	}
	if resp.ErrorCode != nil {
		kvPairs["error_code"] = *resp.ErrorCode
	}
	metrics.RecordEvent(ctx, commandProcessedEventName, kvPairs)
}

func recordCommandDuration(ctx context.Context, command string, duration time.Duration) {
	metrics.RecordDuration(ctx, commandDurationMetricName+command, duration)
}

func recordDroppedDelivery(ctx context.Context) {
	metrics.RecordCount(ctx, droppedDeliveryMetricName, 1)
}
