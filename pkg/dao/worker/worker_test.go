package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dao-treasury/dao-server/pkg/dao/multisig"
	"github.com/dao-treasury/dao-server/pkg/testutil"
)

const testResponseQueue = "response.rs"

func newTestWorker(service DaoService) *Worker {
	return New(service, withManualTestOverrides(&testOverrides{
		responseQueue: testResponseQueue,
	}))
}

func TestHandleDelivery_Success(t *testing.T) {
	service := &fakeService{result: "multisig-address"}
	worker := newTestWorker(service)
	ack := &fakeAcknowledger{}
	publisher := &fakePublisher{}

	resp := worker.handleDelivery(context.Background(), publisher, amqp.Delivery{
		Acknowledger:  ack,
		DeliveryTag:   42,
		Headers:       amqp.Table{CommandHeader: CommandCreateDao},
		CorrelationId: "correlation",
		Body:          []byte(`{"project_id":"p1"}`),
	})
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Dao p1: multisig-address created successfully", resp.Message)
	assert.Equal(t, "p1", resp.ProjectID)
	assert.Equal(t, "correlation", resp.CorrelationID)
	assert.Nil(t, resp.ErrorCode)

	assert.Equal(t, []uint64{42}, ack.acked)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, testResponseQueue, publisher.messages[0].key)
	assert.Equal(t, "correlation", publisher.messages[0].msg.CorrelationId)
	assert.Equal(t, "application/json", publisher.messages[0].msg.ContentType)

	var actual Response
	require.NoError(t, json.Unmarshal(publisher.messages[0].msg.Body, &actual))
	assert.Equal(t, *resp, actual)
}

func TestHandleDelivery_Failure(t *testing.T) {
	service := &fakeService{err: multisig.NewSubmissionError("execute", errors.New("rejected"))}
	worker := newTestWorker(service)
	ack := &fakeAcknowledger{}
	publisher := &fakePublisher{}

	resp := worker.handleDelivery(context.Background(), publisher, amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Headers:      amqp.Table{CommandHeader: CommandExecuteProposal},
		ReplyTo:      "reply.queue",
		Body:         []byte(`{"project_id":"p1"}`),
	})
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "rejected")
	require.NotNil(t, resp.ErrorCode)
	assert.EqualValues(t, 9, *resp.ErrorCode)

	// Failed commands are still acknowledged
	assert.Equal(t, []uint64{1}, ack.acked)

	// A generated correlation ID is used when the request has none
	assert.NotEmpty(t, resp.CorrelationID)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, "reply.queue", publisher.messages[0].key)
	assert.Equal(t, resp.CorrelationID, publisher.messages[0].msg.CorrelationId)
}

func TestHandleDelivery_UnknownCommand(t *testing.T) {
	service := &fakeService{}
	worker := newTestWorker(service)
	publisher := &fakePublisher{}

	resp := worker.handleDelivery(context.Background(), publisher, amqp.Delivery{
		Acknowledger: &fakeAcknowledger{},
		Headers:      amqp.Table{CommandHeader: "create_user"},
		Body:         []byte(`{"project_id":"p1"}`),
	})
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown command: create_user", resp.Message)
	require.NotNil(t, resp.ErrorCode)
	assert.Equal(t, multisig.ErrorKindInvalidArgument.ExternalCode(), *resp.ErrorCode)
	assert.Empty(t, service.getCalls())
	require.Len(t, publisher.messages, 1)

	var actual Response
	require.NoError(t, json.Unmarshal(publisher.messages[0].msg.Body, &actual))
	assert.Equal(t, "Unknown command: create_user", actual.Message)
}

func TestHandleDelivery_ResponseMessages(t *testing.T) {
	for _, tc := range []struct {
		command  string
		body     string
		expected string
	}{
		{command: CommandChangeThreshold, body: `not json`, expected: "Could not parse raw string into json"},
		{command: CommandRemoveMember, body: `{}`, expected: "project_id is required"},
	} {
		worker := newTestWorker(&fakeService{})

		resp := worker.handleDelivery(context.Background(), &fakePublisher{}, amqp.Delivery{
			Acknowledger: &fakeAcknowledger{},
			Headers:      amqp.Table{CommandHeader: tc.command},
			Body:         []byte(tc.body),
		})
		require.NotNil(t, resp)
		assert.Equal(t, tc.expected, resp.Message)
	}

	// Service failures keep their full context
	worker := newTestWorker(&fakeService{err: multisig.NewSubmissionError("vote", errors.New("rejected"))})
	resp := worker.handleDelivery(context.Background(), &fakePublisher{}, amqp.Delivery{
		Acknowledger: &fakeAcknowledger{},
		Headers:      amqp.Table{CommandHeader: CommandExecuteProposal},
		Body:         []byte(`{"project_id":"p1"}`),
	})
	require.NotNil(t, resp)
	assert.Equal(t, "vote: failed to submit transaction: rejected", resp.Message)
}

func TestHandleDelivery_RateLimited(t *testing.T) {
	service := &fakeService{result: "sig"}
	worker := New(service, withManualTestOverrides(&testOverrides{
		responseQueue:                  testResponseQueue,
		maxCommandsPerProjectPerSecond: 1,
	}))

	var responses []*Response
	for tag := uint64(1); tag <= 2; tag++ {
		responses = append(responses, worker.handleDelivery(context.Background(), &fakePublisher{}, amqp.Delivery{
			Acknowledger: &fakeAcknowledger{},
			DeliveryTag:  tag,
			Headers:      amqp.Table{CommandHeader: CommandExecuteProposal},
			Body:         []byte(`{"project_id":"p1"}`),
		}))
	}

	require.NotNil(t, responses[0])
	assert.True(t, responses[0].Success)

	require.NotNil(t, responses[1])
	assert.False(t, responses[1].Success)
	assert.Equal(t, ErrRateLimited.Error(), responses[1].Message)
	require.NotNil(t, responses[1].ErrorCode)
	assert.Equal(t, multisig.ErrorKindInvalidArgument.ExternalCode(), *responses[1].ErrorCode)
	assert.Len(t, service.getCalls(), 1)
}

func TestHandleDelivery_RequeuedWhenStopping(t *testing.T) {
	service := &fakeService{result: "sig"}
	worker := newTestWorker(service)
	ack := &fakeAcknowledger{}
	publisher := &fakePublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := worker.handleDelivery(ctx, publisher, amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  5,
		Headers:      amqp.Table{CommandHeader: CommandCreateDao},
		Body:         []byte(`{"project_id":"p1"}`),
	})
	assert.Nil(t, resp)
	assert.Empty(t, ack.getAcked())
	assert.Equal(t, []uint64{5}, ack.getRequeued())
	assert.Empty(t, service.getCalls())
	assert.Empty(t, publisher.getMessages())
}

func TestHandleDelivery_Dropped(t *testing.T) {
	for _, tc := range []struct {
		name     string
		delivery amqp.Delivery
		acked    bool
	}{
		{
			name: "missing command header",
			delivery: amqp.Delivery{
				Body: []byte(`{"project_id":"p1"}`),
			},
			acked: true,
		},
		{
			name: "non-string command header",
			delivery: amqp.Delivery{
				Headers: amqp.Table{CommandHeader: int32(1)},
				Body:    []byte(`{"project_id":"p1"}`),
			},
			acked: true,
		},
		{
			name: "invalid utf8",
			delivery: amqp.Delivery{
				Headers: amqp.Table{CommandHeader: CommandCreateDao},
				Body:    []byte{0xff, 0xfe},
			},
			acked: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			service := &fakeService{}
			worker := newTestWorker(service)
			ack := &fakeAcknowledger{}
			publisher := &fakePublisher{}

			tc.delivery.Acknowledger = ack
			tc.delivery.DeliveryTag = 7

			assert.Nil(t, worker.handleDelivery(context.Background(), publisher, tc.delivery))
			assert.Equal(t, []uint64{7}, ack.acked)
			assert.Empty(t, service.getCalls())
			assert.Empty(t, publisher.messages)
		})
	}
}

func TestHandleDelivery_AckFailure(t *testing.T) {
	service := &fakeService{}
	worker := newTestWorker(service)
	publisher := &fakePublisher{}

	resp := worker.handleDelivery(context.Background(), publisher, amqp.Delivery{
		Acknowledger: &fakeAcknowledger{err: errors.New("channel closed")},
		Headers:      amqp.Table{CommandHeader: CommandCreateDao},
		Body:         []byte(`{"project_id":"p1"}`),
	})
	assert.Nil(t, resp)
	assert.Empty(t, service.getCalls())
	assert.Empty(t, publisher.messages)
}

func TestHandleDelivery_NoResponseQueue(t *testing.T) {
	service := &fakeService{result: "sig"}
	worker := New(service, withManualTestOverrides(&testOverrides{}))
	publisher := &fakePublisher{}

	resp := worker.handleDelivery(context.Background(), publisher, amqp.Delivery{
		Acknowledger: &fakeAcknowledger{},
		Headers:      amqp.Table{CommandHeader: CommandExecuteProposal},
		Body:         []byte(`{"project_id":"p1"}`),
	})
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Empty(t, publisher.messages)
}

func TestHandleDelivery_PublishFailure(t *testing.T) {
	service := &fakeService{result: "sig"}
	worker := newTestWorker(service)

	resp := worker.handleDelivery(context.Background(), &fakePublisher{err: errors.New("closed")}, amqp.Delivery{
		Acknowledger: &fakeAcknowledger{},
		Headers:      amqp.Table{CommandHeader: CommandExecuteProposal},
		Body:         []byte(`{"project_id":"p1"}`),
	})
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Len(t, service.getCalls(), 1)
}

func TestStart_StopsOnCancel(t *testing.T) {
	worker := New(&fakeService{}, withManualTestOverrides(&testOverrides{
		brokerUrl: "not-a-broker-url",
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, worker.Start(ctx))
}

func TestProcess_OrderedPerProject(t *testing.T) {
	service := &fakeService{result: "sig"}
	worker := New(service, withManualTestOverrides(&testOverrides{
		responseQueue: testResponseQueue,
		concurrency:   4,
	}))
	ack := &fakeAcknowledger{}
	publisher := &fakePublisher{}

	projects := []string{"p1", "p2", "p3"}
	deliveries := make(chan amqp.Delivery, 32)
	var tag uint64
	for amount := 1; amount <= 5; amount++ {
		for _, project := range projects {
			tag++
			deliveries <- amqp.Delivery{
				Acknowledger: ack,
				DeliveryTag:  tag,
				Headers:      amqp.Table{CommandHeader: CommandWithdraw},
				Body:         []byte(fmt.Sprintf(`{"project_id":"%s","receiver":"r","amount":%d}`, project, amount)),
			}
		}
	}
	close(deliveries)

	err := worker.process(context.Background(), publisher, deliveries)
	assert.Equal(t, errDeliveriesClosed, err)

	assert.Len(t, ack.acked, int(tag))
	assert.Len(t, publisher.messages, int(tag))

	amounts := make(map[string][]uint64)
	for _, call := range service.getCalls() {
		amounts[call.projectID] = append(amounts[call.projectID], call.args[2].(uint64))
	}
	for _, project := range projects {
		assert.Equal(t, []uint64{1, 2, 3, 4, 5}, amounts[project], project)
	}
}

func TestProcess_StopsOnCancel(t *testing.T) {
	worker := newTestWorker(&fakeService{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.process(ctx, &fakePublisher{}, make(chan amqp.Delivery))
	assert.Equal(t, context.Canceled, err)
}

func TestProcess_DrainsBeforeCancel(t *testing.T) {
	reset := testutil.DisableLogging()
	defer reset()

	service := &fakeService{result: "sig"}
	worker := newTestWorker(service)
	ack := &fakeAcknowledger{}

	ctx, cancel := context.WithCancel(context.Background())
	deliveries := make(chan amqp.Delivery)
	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.process(ctx, &fakePublisher{}, deliveries)
	}()

	for tag := uint64(1); tag <= 3; tag++ {
		deliveries <- amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  tag,
			Headers:      amqp.Table{CommandHeader: CommandCreateDao},
			Body:         []byte(fmt.Sprintf(`{"project_id":"p%d"}`, tag)),
		}
	}

	require.NoError(t, testutil.WaitFor(time.Second, 10*time.Millisecond, func() bool {
		return ack.count() == 3
	}))

	cancel()
	assert.Equal(t, context.Canceled, <-errCh)
	assert.Len(t, service.getCalls(), 3)
}

func TestProcess_RequeuesBufferedOnCancel(t *testing.T) {
	service := &fakeService{
		result:  "multisig-address",
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	worker := New(service, withManualTestOverrides(&testOverrides{
		responseQueue: testResponseQueue,
		concurrency:   1,
	}))
	ack := &fakeAcknowledger{}
	publisher := &fakePublisher{}

	deliveries := make(chan amqp.Delivery, 3)
	for tag := uint64(1); tag <= 3; tag++ {
		deliveries <- amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  tag,
			Headers:      amqp.Table{CommandHeader: CommandCreateDao},
			Body:         []byte(`{"project_id":"p1"}`),
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.process(ctx, publisher, deliveries)
	}()

	select {
	case <-service.started:
	case <-time.After(time.Second):
		require.FailNow(t, "command never started")
	}

	// The remaining deliveries wait behind the running command in its lane
	require.NoError(t, testutil.WaitFor(time.Second, 10*time.Millisecond, func() bool {
		return len(deliveries) == 0
	}))

	cancel()
	close(service.release)
	assert.Equal(t, context.Canceled, <-errCh)

	// The running command completes and reports, the rest go back to the queue
	assert.Equal(t, []uint64{1}, ack.getAcked())
	assert.Equal(t, []uint64{2, 3}, ack.getRequeued())
	assert.Len(t, service.getCalls(), 1)

	messages := publisher.getMessages()
	require.Len(t, messages, 1)
	var resp Response
	require.NoError(t, json.Unmarshal(messages[0].msg.Body, &resp))
	assert.True(t, resp.Success)
}

func TestLaneKey(t *testing.T) {
	assert.Equal(t, "p1", laneKey([]byte(`{"project_id":"p1","amount":1}`)))
	assert.Empty(t, laneKey([]byte(`{"amount":1}`)))
	assert.Empty(t, laneKey([]byte(`not json`)))
}
