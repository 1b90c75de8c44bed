// Command streamhandler is the Lambda consuming the DynamoDB streams of the
// submission tables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/topcoder-platform/submissions-api-sub000/config"
	"github.com/topcoder-platform/submissions-api-sub000/internal/repository"
	applogger "github.com/topcoder-platform/submissions-api-sub000/pkg/logger"
	"github.com/topcoder-platform/submissions-api-sub000/search"
	"github.com/topcoder-platform/submissions-api-sub000/store"
	"github.com/topcoder-platform/submissions-api-sub000/stream"
)

func main() {
	cfg, err := config.Load(os.Getenv("SUBMISSIONS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := applogger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	h, err := newHandler(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("init stream handler", zap.Error(err))
	}
	lambda.Start(h.Handle)
}

func newHandler(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stream.Handler, error) {
	ddb, err := repository.NewDynamoClient(ctx, cfg.AWS.Region, cfg.AWS.Endpoint)
	if err != nil {
		return nil, err
	}
	registry := repository.NewRegistry(cfg.DynamoDB.Tables())
	st := store.NewWithRegistry(ddb, cfg.DynamoDB.Store(), registry)

	index, err := search.NewClient(cfg.Search.Client(), logger.Named("search"))
	if err != nil {
		return nil, err
	}
	return stream.NewHandler(st, index, registry, logger.Named("stream")), nil
}
