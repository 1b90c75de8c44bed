package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/config"
	"github.com/topcoder-platform/submissions-api-sub000/internal/api/handler"
	"github.com/topcoder-platform/submissions-api-sub000/internal/api/middleware"
	"github.com/topcoder-platform/submissions-api-sub000/internal/api/router"
	"github.com/topcoder-platform/submissions-api-sub000/internal/bus"
	"github.com/topcoder-platform/submissions-api-sub000/internal/cache"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
	"github.com/topcoder-platform/submissions-api-sub000/internal/repository"
	"github.com/topcoder-platform/submissions-api-sub000/internal/service"
	applogger "github.com/topcoder-platform/submissions-api-sub000/pkg/logger"
	"github.com/topcoder-platform/submissions-api-sub000/policy"
	"github.com/topcoder-platform/submissions-api-sub000/search"
	"github.com/topcoder-platform/submissions-api-sub000/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("SUBMISSIONS_CONFIG"))
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	logger.Info("starting submissions api",
		zap.Int("port", cfg.Server.Port),
		zap.String("region", cfg.AWS.Region),
		zap.Strings("searchHosts", cfg.Search.Hosts),
	)

	ddb, err := repository.NewDynamoClient(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		return err
	}
	tables := cfg.DynamoDB.Tables()
	st := store.NewWithRegistry(ddb, cfg.DynamoDB.Store(), repository.NewRegistry(tables))

	index, err := search.NewClient(cfg.Search.Client(), logger.Named("search"))
	if err != nil {
		return err
	}

	publisher, closeBus, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBus()

	roleNames, err := cache.New[string](cache.DefaultConfig())
	if err != nil {
		return err
	}
	defer roleNames.Close()
	reviewTypes, err := cache.New[[]model.ReviewType](cache.DefaultConfig())
	if err != nil {
		return err
	}
	defer reviewTypes.Close()

	challenges := challenge.NewClient(cfg.Challenge.Client(), logger.Named("challenge"))
	reconciler := challenge.NewReconciler(challenges, cfg.ScoreCards)
	engine := policy.NewEngine(
		challenges,
		policy.NewRoleResolver(challenges, roleNames),
		service.NewSubmissionLookup(index),
		logger.Named("policy"),
	)

	submissionRepo := repository.NewSubmissions(st, tables, cfg.DynamoDB.CascadeDelete)
	h := handler.NewHandler(
		service.NewSubmissionService(submissionRepo, index, engine, challenges, reconciler, publisher, logger.Named("submission")),
		service.NewReviewService(repository.NewReviews(st, tables), submissionRepo, index, engine, reconciler, publisher, logger.Named("review")),
		service.NewReviewSummationService(repository.NewReviewSummations(st, tables), index, reconciler, publisher, logger.Named("reviewSummation")),
		service.NewReviewTypeService(repository.NewReviewTypes(st, tables), index, reviewTypes, publisher, logger.Named("reviewType")),
		index,
	)
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	httpEngine := router.Setup(h, auth, logger, cfg.Server.Mode)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpEngine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newPublisher connects the event bus. A disabled bus publishes nothing.
func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (bus.Publisher, func(), error) {
	if !cfg.Bus.Enabled {
		logger.Warn("event bus disabled, notifications will not be published")
		return bus.Nop{}, func() {}, nil
	}
	busCfg := cfg.Publisher()
	rdb, err := bus.NewRedisClient(ctx, busCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}
	return bus.NewRedisPublisher(rdb, busCfg, logger.Named("bus")), closeFn, nil
}
