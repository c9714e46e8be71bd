// Package app wires configuration, fleet data, the plan service and its
// adapters into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apiplan "github.com/kilianp07/fleetmaint/api/plan"
	"github.com/kilianp07/fleetmaint/app/plugins"
	"github.com/kilianp07/fleetmaint/config"
	"github.com/kilianp07/fleetmaint/core/events"
	"github.com/kilianp07/fleetmaint/core/fleetdata"
	coremetrics "github.com/kilianp07/fleetmaint/core/metrics"
	"github.com/kilianp07/fleetmaint/core/model"
	coremon "github.com/kilianp07/fleetmaint/core/monitoring"
	"github.com/kilianp07/fleetmaint/core/plan"
	"github.com/kilianp07/fleetmaint/core/scheduler"
	"github.com/kilianp07/fleetmaint/infra/audit"
	"github.com/kilianp07/fleetmaint/infra/logger"
	"github.com/kilianp07/fleetmaint/infra/metrics"
	"github.com/kilianp07/fleetmaint/infra/monitoring"
	"github.com/kilianp07/fleetmaint/infra/mqtt"
	"github.com/kilianp07/fleetmaint/infra/store"
	"github.com/kilianp07/fleetmaint/internal/eventbus"
)

const eventBuffer = 64

// Service orchestrates the plan service and its adapters.
type Service struct {
	Plans  *plan.Service
	Engine *scheduler.Engine
	Fleet  []model.Vehicle

	cfg    *config.Config
	bus    *eventbus.Bus[events.PlanEvent]
	sink   coremetrics.MetricsSink
	store  plan.Store
	mqtt   *mqtt.PahoClient
	server *http.Server
	log    logger.Logger

	audit audit.Journal
	// auditDone is closed when the journal recorder has drained the bus.
	auditDone <-chan struct{}
}

// Option adjusts a Service under construction.
type Option func(*options)

type options struct {
	skipMQTT bool
}

// WithoutMQTT disables plan publication regardless of configuration.
func WithoutMQTT() Option { return func(o *options) { o.skipMQTT = true } }

// New loads the fleet, bootstraps the accepted plan and prepares adapters.
// Nothing is served until Run.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Monitoring)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	coremon.Init(mon)

	cal, err := cfg.Horizon.Calendar()
	if err != nil {
		return nil, fmt.Errorf("horizon: %w", err)
	}
	provider, err := plugins.NewProvider(cfg.Data, cal, logger.New("fleetdata"))
	if err != nil {
		return nil, fmt.Errorf("data provider: %w", err)
	}
	ds, err := fleetdata.Load(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("load fleet: %w", err)
	}
	engine, err := scheduler.NewEngine(cfg.Horizon,
		scheduler.WithFleet(ds.Vehicles),
		scheduler.WithLogger(logger.New("scheduler")))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New[events.PlanEvent](eventBuffer)
	plans := plan.NewService(engine, st, plan.WithEvents(bus), plan.WithLogger(logger.New("plan")))
	svc := &Service{Plans: plans, Engine: engine, Fleet: ds.Vehicles, cfg: cfg, bus: bus, sink: sink, store: st, log: logg}
	if _, err := plans.Bootstrap(ctx, provider); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("bootstrap plan: %w", err)
	}

	if cfg.MQTT.Enabled && !o.skipMQTT {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.mqtt = client
	}
	var routerOpts []apiplan.RouterOption
	if cfg.Audit.Enabled {
		j, err := audit.NewRotatingJournal(cfg.Audit)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("audit journal: %w", err)
		}
		svc.audit = j
		// Recording starts here so offline commands are journaled too.
		svc.auditDone = audit.StartRecorder(context.Background(), bus, j)
		routerOpts = append(routerOpts, apiplan.WithJournal(j))
	}
	svc.server = &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           apiplan.NewRouter(plans, logger.New("api"), routerOpts...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.API.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.API.WriteTimeoutSeconds) * time.Second,
	}
	return svc, nil
}

// Handler returns the HTTP handler served by Run.
func (s *Service) Handler() http.Handler { return s.server.Handler }

// Run starts the event consumers and the HTTP servers, and blocks until ctx
// is canceled or the API server fails.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if s.mqtt != nil {
		mqtt.StartPlanPublisher(ctx, s.bus, s.mqtt, mqtt.PublisherOptions{
			TopicPrefix: s.cfg.MQTT.TopicPrefix,
			AckTimeout:  time.Duration(s.cfg.MQTT.AckTimeoutMS) * time.Millisecond,
		})
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving plan API on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("plan api: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("plan api shutdown: %w", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.audit != nil {
		select {
		case <-s.auditDone:
		case <-time.After(2 * time.Second):
			s.log.Warnf("audit recorder did not drain in time")
		}
		if err := s.audit.Close(); err != nil {
			s.log.Warnf("close audit journal: %v", err)
		}
	}
	closeSink(s.sink)
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.log.Warnf("close plan store: %v", err)
		}
	}
	coremon.Flush(2 * time.Second)
	if d := s.bus.Dropped(); d > 0 {
		s.log.Warnf("%d plan event(s) dropped by slow subscribers", d)
	}
	return nil
}

func closeSink(sink coremetrics.MetricsSink) {
	switch s := sink.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range s.Sinks {
			closeSink(inner)
		}
	case interface{ Close() }:
		s.Close()
	}
}
