package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-forwarder/handler"
	"chat-forwarder/internal/config"
	"chat-forwarder/internal/integrations/chatbot"
	"chat-forwarder/internal/integrations/paramstore"
	"chat-forwarder/internal/repository"
	"chat-forwarder/internal/usecase"
)

// NewLogger returns a JSON logger at the configured level.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
}

// awsLoader loads the shared AWS config. It is only called when SSM or
// DynamoDB is actually needed.
type awsLoader func(ctx context.Context) (aws.Config, error)

func defaultAWSLoader(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

// NewHandler wires the backend client, exchange recorder and forward service
// behind a Lambda handler.
func NewHandler(ctx context.Context, cfg *config.Config) (*handler.Handler, error) {
	return newHandler(ctx, cfg, defaultAWSLoader)
}

func newHandler(ctx context.Context, cfg *config.Config, load awsLoader) (*handler.Handler, error) {
	var (
		awsCfg    aws.Config
		awsLoaded bool
	)
	lazyAWS := func() (aws.Config, error) {
		if awsLoaded {
			return awsCfg, nil
		}
		c, err := load(ctx)
		if err != nil {
			return aws.Config{}, fmt.Errorf("bootstrap: load AWS config: %w", err)
		}
		awsCfg, awsLoaded = c, true
		return awsCfg, nil
	}

	var params config.ParamGetter
	if cfg.NeedsParamStore() {
		c, err := lazyAWS()
		if err != nil {
			return nil, err
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(c))
		if err != nil {
			return nil, fmt.Errorf("bootstrap: create SSM client: %w", err)
		}
		params = ps
	}

	chatbotURL, err := cfg.ResolveChatbotURL(ctx, params)
	if err != nil {
		return nil, err
	}
	backend, err := chatbot.NewClient(chatbotURL, chatbot.WithTimeout(cfg.ChatbotTimeout))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create chatbot client: %w", err)
	}

	var recorder usecase.ExchangeRecorder = usecase.NopRecorder{}
	if cfg.ExchangeTable != "" {
		c, err := lazyAWS()
		if err != nil {
			return nil, err
		}
		repo, err := repository.New(awsdynamodb.NewFromConfig(c), cfg.ExchangeTable)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: create exchange repository: %w", err)
		}
		recorder = repo
	}

	svc, err := usecase.NewForwardService(backend, recorder, cfg.ResponseMode)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create forward service: %w", err)
	}

	slog.InfoContext(ctx, "chat forwarder configured",
		"backend", backend.BaseURL(),
		"mode", string(cfg.ResponseMode),
		"timeout", cfg.ChatbotTimeout.String(),
		"exchange_table", cfg.ExchangeTable,
	)
	return handler.NewHandler(svc)
}
