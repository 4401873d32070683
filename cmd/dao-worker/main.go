package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dao-treasury/dao-server/pkg/app"
	"github.com/dao-treasury/dao-server/pkg/dao/project/provider"
	"github.com/dao-treasury/dao-server/pkg/dao/service"
	"github.com/dao-treasury/dao-server/pkg/dao/worker"
	"github.com/dao-treasury/dao-server/pkg/metrics"
)

type daoWorker struct {
	log *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	consumer   atomic.Pointer[worker.Worker]
	release    func()
	shutdownCh chan struct{}
	stopOnce   sync.Once
}

func newDaoWorker() *daoWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &daoWorker{
		log:        logrus.StandardLogger().WithField("type", "dao-worker"),
		ctx:        ctx,
		cancel:     cancel,
		shutdownCh: make(chan struct{}),
	}
}

// Init implements app.App.Init
func (w *daoWorker) Init(_ app.Config, metricsProvider *newrelic.Application) error {
	ctx := metrics.NewContext(w.ctx, metricsProvider)

	projects, release, err := provider.New(ctx, provider.WithEnvConfigs())
	if err != nil {
		return errors.Wrap(err, "error initializing project store")
	}
	w.release = release

	svc, err := service.New(service.NewClientFromEnv(ctx), projects, service.WithEnvConfigs())
	if err != nil {
		return errors.Wrap(err, "error initializing dao service")
	}
	w.log.WithField("administrator", base58.Encode(svc.Administrator())).Info("dao service initialized")

	consumer := worker.New(svc, worker.WithEnvConfigs())
	w.consumer.Store(consumer)

	go func() {
		defer close(w.shutdownCh)

		if err := consumer.Start(ctx); err != nil {
			w.log.WithError(err).Error("worker stopped")
		}
	}()

	return nil
}

// ShutdownChan implements app.App.ShutdownChan
func (w *daoWorker) ShutdownChan() <-chan struct{} {
	return w.shutdownCh
}

// Stop implements app.App.Stop
func (w *daoWorker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		if w.consumer.Load() != nil {
			<-w.shutdownCh
		}
		if w.release != nil {
			w.release()
		}
	})
}

func (w *daoWorker) healthy() bool {
	consumer := w.consumer.Load()
	return consumer != nil && consumer.Consuming()
}

func main() {
	w := newDaoWorker()
	if err := app.Run(w, app.WithHealthCheck(w.healthy)); err != nil {
		logrus.WithError(err).Fatal("error running dao worker")
	}
}
