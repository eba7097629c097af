// Package notify pushes relay events to connected WebSocket clients.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"

	"github.com/jbarratt/duel/internal/logging"
)

//go:generate go tool mockgen -destination=./mocks/notify_mock.go -package=mocks . Notifier

// ErrGone is returned when the destination connection no longer exists.
var ErrGone = errors.New("notify: connection gone")

type Notifier interface {
	Send(ctx context.Context, destination string, body []byte) error
}

type APIGWNotifier struct {
	c      apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	logger *slog.Logger
}

// NewAPIGWNotifier posts to connections of the API Gateway stage that
// received the request.
func NewAPIGWNotifier(domain, stage string, sess *session.Session, logger *slog.Logger) *APIGWNotifier {
	baseURL := fmt.Sprintf("https://%s/%s/", domain, stage)

	return &APIGWNotifier{
		c:      apigatewaymanagementapi.New(sess, aws.NewConfig().WithEndpoint(baseURL)),
		logger: logging.OrNop(logger),
	}
}

// Send sends a message via API Gateway to the identified connection
func (n *APIGWNotifier) Send(ctx context.Context, destination string, body []byte) error {
	input := &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(destination),
		Data:         body,
	}

	_, err := n.c.PostToConnectionWithContext(ctx, input)
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == apigatewaymanagementapi.ErrCodeGoneException {
			n.logger.DebugContext(ctx, "connection gone", "connection", destination)
			return fmt.Errorf("%w: %s", ErrGone, destination)
		}
		n.logger.WarnContext(ctx, "error sending message", "connection", destination, "err", err)
		return fmt.Errorf("notify: post to %s: %w", destination, err)
	}
	return nil
}
