package main

import (
	"coilflow/bizerror"
	"coilflow/clock"
	"coilflow/common"
	"coilflow/config"
	"coilflow/domain/workorder"
	"coilflow/domain/workorder/workorderrest"
	"coilflow/event"
	"coilflow/infra/natsbus"
	"coilflow/infra/tracing"
	"coilflow/persistence"
	"coilflow/reconcile"
	"coilflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	common.ConfigureLog(cfg.Log.Level)
	logrus.Info("service start")

	closer, err := tracing.InitGlobalTracer(common.GetServiceName())
	if err != nil {
		logrus.Fatalf("failed to init tracer: %v", err)
	}
	defer closer.Close()

	dbConfig := cfg.PersistenceConfig()
	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database: %v", err)
		}
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed: %v", err)
	}
	defer ds.Stop()

	if err := persistence.Migrate(ds.GormDB()); err != nil {
		logrus.Fatalf("database migration failed: %v", err)
	}
	store := persistence.NewGormStore(ds)

	publisher := &event.HandlersPublisher{}
	publisher.Register(event.LoggingHandler)
	if cfg.NATS.URL != "" {
		bus, err := natsbus.Connect(cfg.NATS.URL, cfg.NATS.Rate)
		if err != nil {
			logrus.Fatalf("failed to connect nats: %v", err)
		}
		defer bus.Close()
		publisher.Register(bus.Handler())
	}

	directory := session.Directory{}
	for id, name := range cfg.Actor.Names {
		directory[id] = session.Identity{ID: id, Name: name}
	}

	manager := workorder.NewWorkOrderManager(store, clock.SystemClock{}, publisher).
		WithTimeout(cfg.WorkOrder.OperationTimeout).
		WithActorResolver(session.NewCachingResolver(directory, cfg.Actor.CacheTTL))
	if cfg.ID.MachineID != 0 {
		manager.WithIDWorker(common.NewIDWorker(cfg.ID.MachineID))
	}

	runner := reconcile.NewRunner(store, cfg.Reconcile.PageSize)
	if err := runner.Start(cfg.Reconcile.Cron); err != nil {
		logrus.Fatalf("failed to start reconciler: %v", err)
	}
	defer runner.Stop()

	engine := gin.New()
	engine.Use(gin.Recovery(), tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})
	workorderrest.RegisterWorkOrdersRestAPI(engine, manager, session.ActorFilter())

	if err := engine.Run(cfg.Server.Addr); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
