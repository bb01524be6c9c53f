package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func outputWithValue(v *string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("p"), Value: v}}
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: outputWithValue(aws.String(" http://chatbot.internal:8000 \n"))}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " /chat9/chatbot_url ")
	require.NoError(t, err)
	require.Equal(t, "http://chatbot.internal:8000", v)
	require.Equal(t, "/chat9/chatbot_url", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_NotFound(t *testing.T) {
	api := &fakeAPI{getErr: &types.ParameterNotFound{}}
	client, err := New(api)
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "/chat9/chatbot_url")
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "/chat9/chatbot_url")
}

func TestGetParameter_Failures(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeAPI
		want string
	}{
		{name: "api error", api: &fakeAPI{getErr: errors.New("boom")}, want: "boom"},
		{name: "nil output", api: &fakeAPI{}, want: "has no value"},
		{name: "nil value", api: &fakeAPI{getOut: outputWithValue(nil)}, want: "has no value"},
		{name: "blank value", api: &fakeAPI{getOut: outputWithValue(aws.String("   "))}, want: "is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := New(tc.api)
			require.NoError(t, err)
			_, err = client.GetParameter(context.Background(), "p")
			require.Error(t, err)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	client, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "must not be nil")
}
