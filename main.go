package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanawat-p/supportdesk/agent/contract"
	"github.com/tanawat-p/supportdesk/agent/conversation"
	"github.com/tanawat-p/supportdesk/agent/handlers"
	"github.com/tanawat-p/supportdesk/agent/router"
	"github.com/tanawat-p/supportdesk/agent/session"
	configx "github.com/tanawat-p/supportdesk/pkg/config"
	logx "github.com/tanawat-p/supportdesk/pkg/logger"
	"github.com/tanawat-p/supportdesk/server"
	memorystore "github.com/tanawat-p/supportdesk/store/memory"
	postgresstore "github.com/tanawat-p/supportdesk/store/postgres"
)

type AppConfig struct {
	PostgresDSN    string `envconfig:"POSTGRES_DSN"`
	SnapshotsRedis bool   `envconfig:"SNAPSHOTS_REDIS" default:"false"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orders, ledger := buildStores(ctx, appCfg)

	factory := func(opts ...router.Option) (*router.Router, error) {
		return router.New(
			handlers.NewRefundHandler(orders, ledger),
			handlers.NewOrderHandler(orders),
			handlers.NewSupportHandler(),
			opts...,
		)
	}

	var managerOpts []session.ManagerOption
	if appCfg.SnapshotsRedis {
		redisCfg := configx.MustNew[conversation.UpstashRedisConfig]("UPSTASH_REDIS")
		snapshots, err := conversation.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("snapshot store init failed")
		}
		managerOpts = append(managerOpts, session.WithSnapshotStore(snapshots))
		log.Info().Msg("session snapshots persisted to redis")
	}

	manager, err := session.NewManager(factory, managerOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("session manager init failed")
	}

	srv, err := server.New(manager)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	serverCfg := configx.MustNew[server.Config]("SERVER")
	if err := srv.ListenAndServe(ctx, *serverCfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("shutdown complete")
}

// buildStores wires Postgres when a DSN is configured and falls back to the
// seeded in-memory stores otherwise.
func buildStores(ctx context.Context, cfg *AppConfig) (contractx.OrderStore, contractx.RefundLedger) {
	if cfg.PostgresDSN == "" {
		log.Info().Msg("using seeded in-memory stores")
		return memorystore.NewOrderStore(), memorystore.NewRefundLedger()
	}

	db, err := postgresstore.Open(ctx, postgresstore.Config{DSN: cfg.PostgresDSN})
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	if err := postgresstore.CreateSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("postgres schema init failed")
	}

	log.Info().Msg("using postgres stores")
	return postgresstore.NewOrderStore(db), postgresstore.NewRefundLedger(db)
}
