package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/kbukum/canvasflow/artifact"
	"github.com/kbukum/canvasflow/bootstrap"
	"github.com/kbukum/canvasflow/capability"
	"github.com/kbukum/canvasflow/component"
	"github.com/kbukum/canvasflow/config"
	"github.com/kbukum/canvasflow/database"
	"github.com/kbukum/canvasflow/engine"
	"github.com/kbukum/canvasflow/kafka"
	kafkaproducer "github.com/kbukum/canvasflow/kafka/producer"
	"github.com/kbukum/canvasflow/logger"
	"github.com/kbukum/canvasflow/observability"
	"github.com/kbukum/canvasflow/redis"
	"github.com/kbukum/canvasflow/resilience"
	"github.com/kbukum/canvasflow/runs"
	"github.com/kbukum/canvasflow/server"
	"github.com/kbukum/canvasflow/server/api"
	"github.com/kbukum/canvasflow/server/middleware"
	"github.com/kbukum/canvasflow/sse"
	"github.com/kbukum/canvasflow/storage"
	"github.com/kbukum/canvasflow/store"
	"github.com/kbukum/canvasflow/util"

	// storage backends register themselves with the storage factory
	_ "github.com/kbukum/canvasflow/storage/local"
	_ "github.com/kbukum/canvasflow/storage/s3"
)

type app = bootstrap.App[*config.AppConfig]

func serve(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf configFlags
	cf.register(fs)
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	a, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	infra, err := registerInfrastructure(a)
	if err != nil {
		return err
	}
	a.OnConfigure(infra.configure)
	return a.Run(ctx)
}

// infrastructure holds the components the API is wired from. Optional
// backends are nil when disabled.
type infrastructure struct {
	telemetry *observability.Component
	db        *database.Component
	redis     *redis.Component
	kafka     *kafka.Component
	storage   *storage.Component
	events    *sse.Component
}

func registerInfrastructure(a *app) (*infrastructure, error) {
	cfg, log := a.Cfg, a.Logger
	in := &infrastructure{
		telemetry: observability.NewComponent(cfg.Observability, a.Name, a.Version, log),
		storage:   storage.NewComponent(cfg.Storage, log),
		events:    sse.NewComponent("/api/runs/:id/events", log),
	}

	comps := []component.Component{in.telemetry}
	if cfg.Store.Enabled() {
		in.db = database.NewComponent(cfg.Store, log).WithAutoMigrate(store.Models()...)
		comps = append(comps, in.db)
	}
	if cfg.Redis.Enabled {
		in.redis = redis.NewComponent(cfg.Redis, log)
		comps = append(comps, in.redis)
	}
	if cfg.Kafka.Enabled {
		in.kafka = kafka.NewComponent(cfg.Kafka, log)
		comps = append(comps, in.kafka)
	}
	comps = append(comps, in.storage, in.events)

	for _, c := range comps {
		if err := a.RegisterComponent(c); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// configure builds the services on top of the started infrastructure and
// registers the run manager and the HTTP server.
func (in *infrastructure) configure(_ context.Context, a *app) error {
	cfg, log := a.Cfg, a.Logger
	metrics := in.telemetry.Metrics()

	artifacts := in.artifactStore(cfg, log)
	invoker, err := newInvoker(cfg, log, metrics, artifacts)
	if err != nil {
		return err
	}
	executor := engine.New(invoker, engine.WithLogger(log), engine.WithMetrics(metrics))

	var st store.Store = store.NewMemory()
	if in.db != nil {
		st = store.NewGorm(in.db.DB())
	}

	runOpts := []runs.Option{runs.WithLogger(log), runs.WithBroadcaster(in.events.Hub())}
	if in.redis != nil {
		client := in.redis.Client()
		runOpts = append(runOpts, runs.WithLocker(runs.NewRedisLocker(client)), runs.WithCache(runs.NewRedisCache(client)))
	}
	if in.kafka != nil {
		producer, err := kafkaproducer.New(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		in.kafka.SetProducer(producer)
		runOpts = append(runOpts, runs.WithSink(producer))
	}
	manager := runs.NewManager(cfg.Runs, executor, st, runOpts...)

	srv := server.New(cfg.Server, log)
	srv.GinEngine().Use(middleware.Metrics(metrics))
	srv.ApplyDefaults(a.Name, a.Components.HealthAll)
	api.New(api.Deps{
		Executor:          executor,
		Store:             st,
		Runs:              manager,
		Hub:               in.events.Hub(),
		Artifacts:         artifacts,
		Invoker:           invoker,
		Log:               log,
		GenerateRateLimit: cfg.Server.GenerateRateLimit,
	}).Register(srv.GinEngine())

	a.Summary.TrackComponent("workflow store", storeKind(cfg), true)
	a.Summary.TrackComponent("engine", "ready", true)
	a.Summary.TrackComponent("artifacts", enabled(artifacts != nil), true)

	if err := a.RegisterComponent(runs.NewComponent(manager)); err != nil {
		return err
	}
	return a.RegisterComponent(server.NewComponent(srv))
}

func (in *infrastructure) artifactStore(cfg *config.AppConfig, log *logger.Logger) *artifact.Store {
	backend := in.storage.Storage()
	if backend == nil {
		return nil
	}
	return artifact.New(backend, resilience.Config{},
		artifact.WithPublicURL(cfg.Storage.PublicURL),
		artifact.WithMaxUploadSize(cfg.Storage.MaxFileBytes()),
		artifact.WithLogger(log),
	)
}

func newInvoker(cfg *config.AppConfig, log *logger.Logger, metrics *observability.Metrics, artifacts *artifact.Store) (*capability.Router, error) {
	opts := []capability.Option{capability.WithLogger(log), capability.WithMetrics(metrics)}
	if artifacts != nil {
		opts = append(opts, capability.WithArtifacts(artifacts))
	}
	log.Info("capability credentials", logger.Fields(
		"fal_key", util.MaskSecret(cfg.Capabilities.FalKey, 4),
		"gemini_key", util.MaskSecret(cfg.Capabilities.GeminiKey, 4),
	))
	return capability.NewRouter(cfg.Capabilities, opts...)
}

func storeKind(cfg *config.AppConfig) string {
	if cfg.Store.Enabled() {
		return cfg.Store.Driver
	}
	return "memory"
}

func enabled(ok bool) string {
	if ok {
		return "active"
	}
	return "disabled"
}
