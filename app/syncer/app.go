package syncer

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/solstice-fi/gaugex/pkg/cache"
	"github.com/solstice-fi/gaugex/pkg/chains"
	"github.com/solstice-fi/gaugex/pkg/db/postgres"
	"github.com/solstice-fi/gaugex/pkg/evm"
	"github.com/solstice-fi/gaugex/pkg/gauges"
	"github.com/solstice-fi/gaugex/pkg/logging"
	"github.com/solstice-fi/gaugex/pkg/metrics"
	"github.com/solstice-fi/gaugex/pkg/subgraph"
	"github.com/solstice-fi/gaugex/pkg/utils"
	"go.uber.org/zap"
)

// Config collects the syncer's inputs. HomeChain, Controller, RPCURL and
// SubgraphURL are required; everything else has defaults.
type Config struct {
	HomeChain     chains.Chain
	Controller    common.Address
	RPCURL        string
	SubgraphURL   string
	BatchSize     int
	AdminTypeName string
	CronSpec      string
	ListenAddr    string
	RunOnStart    bool
}

// App owns every long-lived component of the syncer binary.
type App struct {
	Logger     *zap.Logger
	Config     Config
	DB         *postgres.Client
	Reconciler *gauges.Reconciler
	Metrics    *metrics.Service
	Cron       *cron.Cron

	httpServer *http.Server
	running    atomic.Bool
}

// loadConfig reads configuration from the environment. Missing required
// values are fatal: the syncer cannot guess which controller to read.
func loadConfig(logger *zap.Logger) Config {
	homeChainName := utils.Env("HOME_CHAIN", "")
	if homeChainName == "" {
		logger.Fatal("HOME_CHAIN environment variable is required")
	}
	homeChain, err := chains.Parse(homeChainName)
	if err != nil {
		logger.Fatal("Invalid HOME_CHAIN", zap.Error(err))
	}

	controller := utils.Env("GAUGE_CONTROLLER", "")
	if !common.IsHexAddress(controller) {
		logger.Fatal("GAUGE_CONTROLLER environment variable must be a hex address",
			zap.String("value", controller))
	}

	rpcURL := utils.Env("ETH_RPC_URL", "")
	if rpcURL == "" {
		logger.Fatal("ETH_RPC_URL environment variable is required")
	}
	subgraphURL := utils.Env("SUBGRAPH_URL", "")
	if subgraphURL == "" {
		logger.Fatal("SUBGRAPH_URL environment variable is required")
	}

	return Config{
		HomeChain:     homeChain,
		Controller:    common.HexToAddress(controller),
		RPCURL:        rpcURL,
		SubgraphURL:   subgraphURL,
		BatchSize:     utils.EnvInt("CALL_BATCH_SIZE", 100),
		AdminTypeName: utils.Env("ADMIN_TYPE_NAME", "Protocol Committee"),
		CronSpec:      utils.Env("CRON_SPEC", "0 */30 * * * *"),
		ListenAddr:    utils.Env("LISTEN_ADDR", ":8080"),
		RunOnStart:    utils.Env("RUN_ON_START", "true") == "true",
	}
}

// Initialize wires the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		panic(err)
	}

	cfg := loadConfig(logger)

	db, err := postgres.New(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to connect to postgres", zap.Error(err))
	}
	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal("Unable to initialize schema", zap.Error(err))
	}

	rpcClient, err := ethrpc.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		logger.Fatal("Unable to dial node RPC", zap.Error(err))
	}

	contractABI, err := gauges.RegistryABI()
	if err != nil {
		logger.Fatal("Unable to parse registry ABI", zap.Error(err))
	}
	caller := evm.NewCaller(rpcClient, contractABI, logger, evm.Opts{BatchSize: cfg.BatchSize})
	registry := gauges.NewRegistryReader(caller, cfg.Controller, cfg.AdminTypeName, logger)

	index := subgraph.NewClient(subgraph.Opts{
		Endpoint:  cfg.SubgraphURL,
		HomeChain: cfg.HomeChain,
	}, logger)

	reconciler := gauges.NewReconciler(registry, index, db, gauges.Config{
		HomeChain: cfg.HomeChain,
		TypeNames: chains.DefaultTypeNameMapping(),
	}, logger)

	tiered := cache.New(newRedisClient(ctx, logger),
		utils.EnvDuration("STATS_LOCAL_TTL", time.Minute),
		utils.EnvDuration("STATS_SHARED_TTL", 10*time.Minute),
		logger)
	metricsSvc := metrics.NewService(db, tiered, logger)

	app := &App{
		Logger:     logger,
		Config:     cfg,
		DB:         db,
		Reconciler: reconciler,
		Metrics:    metricsSvc,
	}

	app.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := app.Cron.AddFunc(cfg.CronSpec, func() {
		if err := app.RunOnce(ctx); err != nil {
			logger.Error("Scheduled reconciliation failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("Unable to schedule reconciliation", zap.Error(err))
	}

	app.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app
}

// newRedisClient builds the optional shared-cache client. Without REDIS_ADDR
// the syncer runs with the in-process cache tier only.
func newRedisClient(ctx context.Context, logger *zap.Logger) *redis.Client {
	addr := utils.Env("REDIS_ADDR", "")
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     utils.Env("REDIS_PASSWORD", ""),
		DB:           utils.EnvInt("REDIS_DB", 0),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, shared cache tier disabled",
			zap.String("addr", addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}

	logger.Info("Connected to Redis", zap.String("addr", addr))
	return rdb
}

// RunOnce executes a single reconciliation run followed by a metrics refresh.
// Runs are serialized: if one is already in flight the call is skipped, since
// concurrent runs against the same persistence keys are not supported.
func (a *App) RunOnce(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		a.Logger.Warn("Reconciliation already in progress, skipping run")
		return nil
	}
	defer a.running.Store(false)

	if _, err := a.Reconciler.ReconcileAll(ctx); err != nil {
		return err
	}
	if err := a.Metrics.Refresh(ctx); err != nil {
		a.Logger.Warn("Metrics refresh failed", zap.Error(err))
	}
	return nil
}

// Start runs the scheduler and ops HTTP server until the context is canceled.
func (a *App) Start(ctx context.Context) {
	if a.Config.RunOnStart {
		if err := a.RunOnce(ctx); err != nil {
			a.Logger.Error("Initial reconciliation failed", zap.Error(err))
		}
	}

	a.Cron.Start()
	a.Logger.Info("Scheduler started", zap.String("cron_spec", a.Config.CronSpec))

	go func() {
		a.Logger.Info("Ops server listening", zap.String("addr", a.Config.ListenAddr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Ops server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.Stop()
}

// Stop shuts the scheduler and server down and releases the database pool.
func (a *App) Stop() {
	cronCtx := a.Cron.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.httpServer.Shutdown(shutdownCtx)

	a.DB.Close()
	a.Logger.Info("Syncer stopped")
}

// routes builds the ops HTTP surface.
func (a *App) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics/protocol", a.handleProtocolStats).Methods(http.MethodGet)
	return r
}
