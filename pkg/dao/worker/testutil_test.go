package worker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type call struct {
	method    string
	projectID string
	args      []interface{}
}

type fakeService struct {
	mu     sync.Mutex
	calls  []call
	result string
	err    error

	// When set, CreateDao signals started and then blocks until release is
	// closed or its context is done.
	started chan struct{}
	release chan struct{}
}

func (s *fakeService) wait(ctx context.Context) error {
	if s.release == nil {
		return nil
	}

	select {
	case s.started <- struct{}{}:
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}

func (s *fakeService) record(method, projectID string, args ...interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, call{method: method, projectID: projectID, args: args})
	return s.result, s.err
}

func (s *fakeService) getCalls() []call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]call(nil), s.calls...)
}

func (s *fakeService) CreateDao(ctx context.Context, projectID string) (string, error) {
	result, err := s.record("CreateDao", projectID)
	if waitErr := s.wait(ctx); waitErr != nil {
		return "", waitErr
	}
	return result, err
}

func (s *fakeService) AddMember(_ context.Context, projectID, member string, permissions []string) (string, error) {
	return s.record("AddMember", projectID, member, permissions)
}

func (s *fakeService) RemoveMember(_ context.Context, projectID, member string) (string, error) {
	return s.record("RemoveMember", projectID, member)
}

func (s *fakeService) ChangeThreshold(_ context.Context, projectID string, threshold uint16) (string, error) {
	return s.record("ChangeThreshold", projectID, threshold)
}

func (s *fakeService) ExecuteProposal(_ context.Context, projectID string) (string, error) {
	return s.record("ExecuteProposal", projectID)
}

func (s *fakeService) Vote(_ context.Context, projectID, voter, vote string) (string, error) {
	return s.record("Vote", projectID, voter, vote)
}

func (s *fakeService) Withdraw(_ context.Context, projectID string, isExecute bool, receiver string, amount uint64) (string, error) {
	return s.record("Withdraw", projectID, isExecute, receiver, amount)
}

type fakeAcknowledger struct {
	mu       sync.Mutex
	acked    []uint64
	requeued []uint64
	err      error
}

func (a *fakeAcknowledger) getAcked() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]uint64(nil), a.acked...)
}

func (a *fakeAcknowledger) getRequeued() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]uint64(nil), a.requeued...)
}

func (a *fakeAcknowledger) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.acked)
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return a.err
	}
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !requeue {
		return errors.New("unexpected nack without requeue")
	}
	a.requeued = append(a.requeued, tag)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return errors.New("unexpected reject")
}

type published struct {
	key string
	msg amqp.Publishing
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *fakePublisher) getMessages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]published(nil), p.messages...)
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{key: key, msg: msg})
	return nil
}
