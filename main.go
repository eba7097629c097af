// Command duel-relay is the Lambda behind the API Gateway WebSocket API
// that forwards frames between the two members of a conversation.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/jbarratt/duel/internal/config"
	"github.com/jbarratt/duel/internal/logging"
	"github.com/jbarratt/duel/notify"
	"github.com/jbarratt/duel/service"
	"github.com/jbarratt/duel/store"
)

// relay holds what survives between invocations of a warm Lambda.
type relay struct {
	sess   *session.Session
	store  *store.Dynamo
	logger *slog.Logger
}

func (r *relay) Handler(ctx context.Context, e events.APIGatewayWebsocketProxyRequest) (any, error) {
	// the management endpoint depends on the stage that got the request
	ws := notify.NewAPIGWNotifier(e.RequestContext.DomainName, e.RequestContext.Stage, r.sess, r.logger)
	svc := service.NewLambdaSvc(r.store, ws, r.logger)
	return svc.Handle(ctx, e)
}

func main() {
	cfg, err := config.LoadRelay()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		logger.Error("unable to create session", "err", err)
		os.Exit(1)
	}

	r := &relay{
		sess:   sess,
		store:  store.New(dynamodb.New(sess), cfg.TableName, logger),
		logger: logger,
	}
	lambda.Start(r.Handler)
}
