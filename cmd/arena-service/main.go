// Command arena-service is the process bootstrap for the pairwise
// game-battle arena: it loads configuration, wires every core collaborator
// (ContainerRuntime, Launcher, EloEngine, the stores, the HTTP/WS adapter),
// and serves until an interrupt signal arrives.
//
// Grounded on the teacher's cmd/session-service/main.go: config-load-first
// (so logging itself can be configured), then logger, then metrics, then the
// domain service, then a blocking signal wait, then graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/gamebattle/arena/internal/api"
	"github.com/gamebattle/arena/internal/arena"
	"github.com/gamebattle/arena/internal/arenaerr"
	"github.com/gamebattle/arena/internal/authn"
	"github.com/gamebattle/arena/internal/catalogue"
	"github.com/gamebattle/arena/internal/elo"
	"github.com/gamebattle/arena/internal/runtime"
	k8sruntime "github.com/gamebattle/arena/internal/runtime/kubernetes"
	procruntime "github.com/gamebattle/arena/internal/runtime/process"
	"github.com/gamebattle/arena/internal/store"
	memstore "github.com/gamebattle/arena/internal/store/memory"
	redisstore "github.com/gamebattle/arena/internal/store/redis"
	"github.com/gamebattle/arena/pkg/config"
	"github.com/gamebattle/arena/pkg/logging"
	"github.com/gamebattle/arena/pkg/metrics"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// binBuilder satisfies catalogue.Builder for the process backend: every
// image is already a prebuilt binary under RuntimeConfig.Process.ImageBinDir
// (spec §4.1's "image must already exist"), so there is nothing to build.
// Building real container images from uploaded files is the out-of-scope
// Builder collaborator spec §1 names explicitly; this stands in for local
// development only.
type binBuilder struct{}

func (binBuilder) Build(ctx context.Context, meta catalogue.GameMeta, files map[string][]byte) error {
	return nil
}

func main() {
	var (
		configFile  = flag.String("config", "configs/arena-service.yaml", "path to configuration file")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("gamebattle arena-service\nversion: %s\nbuild time: %s\ncommit: %s\n", version, buildTime, gitCommit)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger("arena-service", cfg.Logging)

	arenaMetrics := metrics.NewArenaMetrics("gamebattle")
	arenaMetrics.BuildInfo.WithLabelValues(version, gitCommit).Set(1)
	arenaMetrics.StartTime.SetToCurrentTime()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.Port), logger)
		metricsServer.Start()
		logger.Info("metrics server starting", "port", cfg.Metrics.Port)
	}

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		logger.Error("failed to build container runtime", "error", err)
		os.Exit(1)
	}

	catalogueLauncher := catalogue.NewLauncher(cfg.Catalogue.GamesDir, binBuilder{}, logger)
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := catalogueLauncher.Start(startCtx); err != nil {
		logger.Error("failed to start catalogue", "error", err)
		startCancel()
		os.Exit(1)
	}
	startCancel()

	var teams []catalogue.Team
	if cfg.Catalogue.TeamsPath != "" {
		teams, err = catalogue.LoadTeams(cfg.Catalogue.TeamsPath)
		if err != nil {
			logger.Warn("failed to load team roster, continuing with an empty roster", "error", err)
		}
	}

	prefStore, reportStore, err := buildStores(cfg, logger)
	if err != nil {
		logger.Error("failed to build stores", "error", err)
		os.Exit(1)
	}

	engine := elo.New(reportStore)
	bindCtx, bindCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := prefStore.Bind(bindCtx, engine); err != nil {
		logger.Error("failed to bind elo engine to preference store", "error", err)
		bindCancel()
		os.Exit(1)
	}
	bindCancel()

	limits := runtime.Limits{
		MemoryBytes: cfg.Runtime.Limits.MemoryBytes,
		CPUNanos:    cfg.Runtime.Limits.CPUNanos,
	}
	sessionTTL := config.ParseDuration(cfg.Session.SessionTTL, time.Hour)
	sessionManager := arena.NewSessionManager(rt, catalogueLauncher, cfg.Session.MaxSessionsPerUser, sessionTTL, limits)

	verifier, err := buildVerifier(cfg)
	if err != nil {
		logger.Error("failed to build auth verifier", "error", err)
		os.Exit(1)
	}

	server := api.NewServer(api.Deps{
		Sessions:          sessionManager,
		Catalogue:         catalogueLauncher,
		Engine:            engine,
		Prefs:             prefStore,
		Reports:           reportStore,
		Verifier:          verifier,
		Metrics:           arenaMetrics,
		Logger:            logger,
		Teams:             teams,
		CompetitionActive: cfg.Catalogue.CompetitionActive,
		Limits:            limits,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      instrument(arenaMetrics, server.Routes()),
		ReadTimeout:  config.ParseDuration(cfg.Server.Timeout, 30*time.Second),
		WriteTimeout: 0, // long-lived WebSocket connections must not be cut off
	}

	go func() {
		logger.Info("arena-service listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during http shutdown", "error", err)
	}
	sessionManager.StopAll(shutdownCtx)
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("error stopping metrics server", "error", err)
		}
	}

	logger.Info("arena-service stopped")
}

// buildRuntime selects the ContainerRuntime backend per RuntimeConfig.Backend
// and wraps it in runtime.WithRetry (spec §4.1's retry-once-on-transient
// policy).
func buildRuntime(cfg *config.Config, logger *slog.Logger) (runtime.Runtime, error) {
	switch cfg.Runtime.Backend {
	case "kubernetes":
		restConfig, err := loadKubeConfig(cfg.Runtime.Kubernetes.Kubeconfig)
		if err != nil {
			return nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "load kubernetes config")
		}
		k8sRT, err := k8sruntime.New(restConfig, cfg.Runtime.Kubernetes.Namespace)
		if err != nil {
			return nil, err
		}
		logger.Info("container runtime backend selected", "backend", "kubernetes", "namespace", cfg.Runtime.Kubernetes.Namespace)
		return runtime.WithRetry{Inner: k8sRT}, nil
	default:
		procRT := procruntime.New(cfg.Runtime.Process.ImageBinDir)
		logger.Info("container runtime backend selected", "backend", "process", "bin_dir", cfg.Runtime.Process.ImageBinDir)
		return runtime.WithRetry{Inner: procRT}, nil
	}
}

// loadKubeConfig loads in-cluster config, falling back to a kubeconfig file
// path when one is given (grounded on the teacher's kubernetes_controller.go,
// which only ever used rest.InClusterConfig; a kubeconfig path is added here
// so arena-service can also run against a cluster from outside it).
func loadKubeConfig(kubeconfigPath string) (*rest.Config, error) {
	if kubeconfigPath == "" {
		return rest.InClusterConfig()
	}
	return clientcmd.BuildConfigFromFlags("", kubeconfigPath)
}

// buildStores selects the PreferenceStore/ReportStore backend per
// StoreConfig.Backend.
func buildStores(cfg *config.Config, logger *slog.Logger) (store.PreferenceStore, store.ReportStore, error) {
	switch cfg.Store.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Address,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, nil, arenaerr.Wrap(arenaerr.RuntimeUnavailable, err, "connect to redis at %s", cfg.Store.Redis.Address)
		}
		logger.Info("store backend selected", "backend", "redis", "address", cfg.Store.Redis.Address)
		return redisstore.NewPreferenceStore(rdb), redisstore.NewReportStore(rdb), nil
	default:
		logger.Info("store backend selected", "backend", "memory")
		return memstore.New(), memstore.NewReportStore(), nil
	}
}

// buildVerifier wires the default JWT verifier plus a bcrypt admin-key
// escape hatch (internal/authn's Composite), per spec §6's "bearer+admin"
// endpoints.
func buildVerifier(cfg *config.Config) (authn.Verifier, error) {
	jwtVerifier := authn.NewJWTVerifier(cfg.Auth.JWTSecret)
	if len(cfg.Auth.AdminKeys) == 0 {
		return jwtVerifier, nil
	}

	hashesByEmail := make(map[string]string, len(cfg.Auth.AdminKeys))
	for i, hash := range cfg.Auth.AdminKeys {
		email := fmt.Sprintf("admin-key-%d", i)
		if i < len(cfg.Auth.AdminUsers) {
			email = cfg.Auth.AdminUsers[i]
		}
		hashesByEmail[email] = hash
	}
	adminVerifier := authn.NewAdminKeyVerifier(hashesByEmail)
	return authn.NewComposite(jwtVerifier, adminVerifier), nil
}

// instrument wraps h so every request's method/path/status/latency feeds
// ArenaMetrics.ObserveHTTP (spec A0's ambient metrics concern).
func instrument(m *metrics.ArenaMetrics, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		m.ObserveHTTP(r.Method, r.URL.Path, rec.status, start)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
