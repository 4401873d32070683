package service

import (
	"context"
	"time"

	"github.com/dao-treasury/dao-server/pkg/metrics"
)

const (
	metricsStructName = "dao.service"

	transactionSubmittedEventName = "DaoTransactionSubmitted"

	confirmationLatencyMetricName = "Custom/DaoService/ConfirmationLatency"
)

func recordTransactionSubmittedEvent(ctx context.Context, operation, signature string) {
	metrics.RecordEvent(ctx, transactionSubmittedEventName, map[string]interface{}{
		"operation": operation,
		"signature": signature,
	})
}

func recordConfirmationLatency(ctx context.Context, latency time.Duration) {
	metrics.RecordDuration(ctx, confirmationLatencyMetricName, latency)
}
