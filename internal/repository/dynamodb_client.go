package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"chat-forwarder/internal/domain"
)

const (
	pkPrefixRequest = "REQ#"
	skPrefixExch    = "EXCH#"
	ttlDuration     = 30 * 24 * time.Hour
	maxStoredReply  = 64 * 1024
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client writes exchange audit records to a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func requestPK(requestID string) string {
	return pkPrefixRequest + requestID
}

func exchangeSK(ts time.Time) string {
	return skPrefixExch + ts.UTC().Format(time.RFC3339Nano)
}

// newExchange fills the keys and TTL of an exchange record.
func (c *Client) newExchange(requestID, content string, backendStatus int, reply, outcome string) domain.Exchange {
	now := c.now().UTC()
	reply = truncateUTF8(reply, maxStoredReply)
	return domain.Exchange{
		PK:            requestPK(requestID),
		SK:            exchangeSK(now),
		RequestID:     requestID,
		Content:       content,
		BackendStatus: backendStatus,
		Reply:         reply,
		Outcome:       outcome,
		TTL:           now.Add(ttlDuration).Unix(),
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// RecordExchange persists one exchange under a fresh key. Records are never
// overwritten.
func (c *Client) RecordExchange(ctx context.Context, in domain.Exchange) error {
	if strings.TrimSpace(in.RequestID) == "" {
		return errors.New("repository: RecordExchange: request id is required")
	}
	ex := c.newExchange(in.RequestID, in.Content, in.BackendStatus, in.Reply, in.Outcome)

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                exchangeItem(ex),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordExchange: %w", err)
	}
	return nil
}

func exchangeItem(ex domain.Exchange) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: ex.PK},
		"SK":            &types.AttributeValueMemberS{Value: ex.SK},
		"requestId":     &types.AttributeValueMemberS{Value: ex.RequestID},
		"content":       &types.AttributeValueMemberS{Value: ex.Content},
		"backendStatus": &types.AttributeValueMemberN{Value: strconv.Itoa(ex.BackendStatus)},
		"reply":         &types.AttributeValueMemberS{Value: ex.Reply},
		"outcome":       &types.AttributeValueMemberS{Value: ex.Outcome},
		"ttl":           &types.AttributeValueMemberN{Value: strconv.FormatInt(ex.TTL, 10)},
	}
}
