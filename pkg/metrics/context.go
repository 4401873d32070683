package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key for the New Relic application used to
// record custom events and metrics.
type NewRelicContextKey struct{}

// NewContext returns a copy of ctx carrying the New Relic application.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

// StartTransaction starts a background New Relic transaction for name. The
// returned context carries both the application and the transaction, so
// method traces and custom events are attached to it. The transaction must
// be ended by the caller.
func StartTransaction(ctx context.Context, name string) (context.Context, *newrelic.Transaction) {
	app, ok := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	if !ok {
		return ctx, nil
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn
}
