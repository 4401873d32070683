package worker

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	"github.com/dao-treasury/dao-server/pkg/metrics"
	"github.com/dao-treasury/dao-server/pkg/retry"
	"github.com/dao-treasury/dao-server/pkg/retry/backoff"
	sync_util "github.com/dao-treasury/dao-server/pkg/sync"
)

// CommandHeader is the request header naming the command to run
const CommandHeader = "command"

var (
	errDeliveriesClosed = errors.New("delivery channel closed")
)

// Publisher sends a message to the broker. It's satisfied by *amqp.Channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Response reports the outcome of a single command.
type Response struct {
	Command       string  `json:"command"`
	ProjectID     string  `json:"project_id,omitempty"`
	CorrelationID string  `json:"correlation_id"`
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	ErrorCode     *uint32 `json:"error_code,omitempty"`
}

// Worker consumes DAO commands from a RabbitMQ queue. Every delivery is
// acknowledged on receipt, so a failed command is reported but never
// redelivered. Deliveries not yet started when the worker stops are
// requeued.
//
// Commands for different projects run concurrently. Commands for the same
// project run one at a time, in the order they were received.
type Worker struct {
	log        *logrus.Entry
	conf       *conf
	dispatcher *Dispatcher

	consuming atomic.Bool
}

// New returns a Worker that runs commands against service.
func New(service DaoService, configProvider ConfigProvider) *Worker {
	conf := configProvider()
	return &Worker{
		log:        logrus.StandardLogger().WithField("type", "dao/worker"),
		conf:       conf,
		dispatcher: NewDispatcher(service, conf.maxCommandsPerProjectPerSecond.Get(context.Background())),
	}
}

// Start consumes requests until ctx is cancelled. A dropped connection is
// re-dialed after the configured delay.
func (w *Worker) Start(ctx context.Context) error {
	delay := w.conf.reconnectDelay.Get(ctx)

	err := retry.Loop(
		func() error {
			err := w.consume(ctx)
			if err != nil && ctx.Err() == nil {
				w.log.WithError(err).Warn("consumer stopped, reconnecting")
			}
			return err
		},
		retry.Context(ctx),
		retry.BackoffWithContext(ctx, backoff.Constant(delay), delay),
	)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Consuming reports whether the worker is currently attached to the request
// queue.
func (w *Worker) Consuming() bool {
	return w.consuming.Load()
}

func (w *Worker) consume(ctx context.Context) error {
	conn, err := amqp.Dial(w.conf.brokerUrl.Get(ctx))
	if err != nil {
		return errors.Wrap(err, "error connecting to broker")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "error opening channel")
	}
	defer ch.Close()

	if err := ch.Qos(int(w.conf.prefetchCount.Get(ctx)), 0, false); err != nil {
		return errors.Wrap(err, "error setting prefetch count")
	}

	queue, err := ch.QueueDeclare(w.conf.requestQueue.Get(ctx), false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "error declaring request queue")
	}

	if responseQueue := w.conf.responseQueue.Get(ctx); len(responseQueue) > 0 {
		if _, err := ch.QueueDeclare(responseQueue, false, false, false, false, nil); err != nil {
			return errors.Wrap(err, "error declaring response queue")
		}
	}

	deliveries, err := ch.Consume(queue.Name, w.conf.consumerTag.Get(ctx), false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "error starting consumer")
	}

	w.consuming.Store(true)
	defer w.consuming.Store(false)

	w.log.WithField("queue", queue.Name).Info("consuming requests")

	return w.process(ctx, ch, deliveries)
}

// process fans deliveries out to one goroutine per lane until deliveries is
// closed or ctx is done. Deliveries for the same project share a lane. It
// returns once every lane has drained.
func (w *Worker) process(ctx context.Context, publisher Publisher, deliveries <-chan amqp.Delivery) error {
	concurrency := w.conf.concurrency.Get(ctx)
	lanes := sync_util.NewStripedChannel[amqp.Delivery](uint(concurrency), uint(w.conf.prefetchCount.Get(ctx)))

	var wg sync.WaitGroup
	for i, lane := range lanes.GetChannels() {
		wg.Add(1)
		go func(i int, lane <-chan amqp.Delivery) {
			defer wg.Done()

			for delivery := range lane {
				w.handleDelivery(ctx, publisher, delivery)
			}
			w.log.WithField("lane", i).Debug("lane drained")
		}(i, lane)
	}
	defer func() {
		lanes.Close()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			if err := lanes.BlockingSend(ctx, laneKey(delivery.Body), delivery); err != nil {
				return err
			}
		}
	}
}

// laneKey is the project a request targets. Requests that can't be parsed
// share the empty key and fail during dispatch.
func laneKey(body []byte) string {
	var req struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	return req.ProjectID
}

// handleDelivery acknowledges and runs a single request. The returned
// response is nil when the request didn't name a command, or when the worker
// is stopping and the request was returned to the queue.
func (w *Worker) handleDelivery(ctx context.Context, publisher Publisher, delivery amqp.Delivery) *Response {
	log := w.log.WithField("delivery_tag", delivery.DeliveryTag)

	if ctx.Err() != nil {
		if err := delivery.Nack(false, true); err != nil {
			log.WithError(err).Warn("failure requeueing delivery")
		}
		return nil
	}

	if err := delivery.Ack(false); err != nil {
		log.WithError(err).Warn("failure acknowledging delivery")
		recordDroppedDelivery(ctx)
		return nil
	}

	// An acknowledged command is never redelivered, so it runs to completion
	// (bounded by the command timeout) even when the worker is stopping.
	ctx = context.WithoutCancel(ctx)

	if !utf8.Valid(delivery.Body) {
		log.Warn("Could not parse byte content into raw string")
		recordDroppedDelivery(ctx)
		return nil
	}

	value, ok := delivery.Headers[CommandHeader]
	if !ok {
		log.Warn("'command' header was not provided")
		recordDroppedDelivery(ctx)
		return nil
	}
	command, ok := value.(string)
	if !ok {
		log.Warn("'command' header must be a string")
		recordDroppedDelivery(ctx)
		return nil
	}

	correlationID := delivery.CorrelationId
	if len(correlationID) == 0 {
		correlationID = uuid.NewString()
	}

	log = log.WithFields(logrus.Fields{
		"command":        command,
		"correlation_id": correlationID,
	})

	ctx, txn := metrics.StartTransaction(ctx, "dao.worker/"+command)
	defer txn.End()

	cmdCtx, cancel := context.WithTimeout(ctx, w.conf.commandTimeout.Get(ctx))
	defer cancel()

	start := time.Now()
	projectID, message, err := w.dispatcher.Dispatch(cmdCtx, command, delivery.Body)
	recordCommandDuration(ctx, command, time.Since(start))

	resp := &Response{
		Command:       command,
		ProjectID:     projectID,
		CorrelationID: correlationID,
		Success:       err == nil,
		Message:       message,
	}
	if err != nil {
		code := multisig.ToExternalCode(err)
		resp.Message = responseMessage(err)
		resp.ErrorCode = &code
		txn.NoticeError(err)
	}
	recordCommandProcessedEvent(ctx, resp)

	if err := w.publish(ctx, publisher, delivery, resp); err != nil {
		log.WithError(err).Warn("failure publishing response")
	}
	return resp
}

// responseMessage keeps the dispatcher's own rejections in the wording
// consumers match on, without the operation and kind prefix.
func responseMessage(err error) string {
	var multisigErr *multisig.Error
	if errors.As(err, &multisigErr) && multisigErr.Op == dispatchOperation && multisigErr.Err != nil {
		return multisigErr.Err.Error()
	}
	return err.Error()
}

// publish sends resp to the request's reply-to queue, falling back to the
// configured response queue. Nothing is sent when neither is set.
func (w *Worker) publish(ctx context.Context, publisher Publisher, delivery amqp.Delivery, resp *Response) error {
	key := delivery.ReplyTo
	if len(key) == 0 {
		key = w.conf.responseQueue.Get(ctx)
	}
	if len(key) == 0 {
		return nil
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return errors.Wrap(err, "error marshalling response")
	}

	return publisher.PublishWithContext(ctx, "", key, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: resp.CorrelationID,
		Headers: amqp.Table{
			CommandHeader: resp.Command,
		},
		Body: body,
	})
}
