package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbarratt/duel/internal/logging"
)

type fakeAPI struct {
	apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	posted []*apigatewaymanagementapi.PostToConnectionInput
	err    error
}

func (f *fakeAPI) PostToConnectionWithContext(_ aws.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	f.posted = append(f.posted, in)
	if f.err != nil {
		return nil, f.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestSend(t *testing.T) {
	api := &fakeAPI{}
	n := &APIGWNotifier{c: api, logger: logging.Nop()}

	require.NoError(t, n.Send(context.Background(), "abc=", []byte(`{"type":"joined"}`)))
	require.Len(t, api.posted, 1)
	assert.Equal(t, "abc=", aws.StringValue(api.posted[0].ConnectionId))
	assert.Equal(t, []byte(`{"type":"joined"}`), api.posted[0].Data)
}

func TestSendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		gone bool
	}{
		{"gone", awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "gone", nil), true},
		{"throttled", awserr.New(apigatewaymanagementapi.ErrCodeLimitExceededException, "slow down", nil), false},
		{"network", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &APIGWNotifier{c: &fakeAPI{err: tt.err}, logger: logging.Nop()}
			err := n.Send(context.Background(), "abc=", nil)
			require.Error(t, err)
			assert.Equal(t, tt.gone, errors.Is(err, ErrGone))
		})
	}
}
