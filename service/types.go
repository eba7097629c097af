package service

import (
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jbarratt/duel/store"
)

// ErrBadRequest marks failures caused by what the client sent.
var ErrBadRequest = errors.New("service: bad request")

func response(code int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: code,
	}
}

// statusFor maps a handler error to the status API Gateway returns.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, store.ErrConversationFull),
		errors.Is(err, store.ErrNotMember),
		errors.Is(err, store.ErrNotFound):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
