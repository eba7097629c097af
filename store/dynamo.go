// Package store persists relay conversations and the frames waiting in
// them for delivery.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/jbarratt/duel/internal/logging"
	"github.com/jbarratt/duel/wire"
)

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

// MaxMembers is how many connections may share a conversation.
const MaxMembers = 2

var (
	ErrConversationFull = errors.New("store: conversation full")
	ErrNotMember        = errors.New("store: connection is not a member of the conversation")
	ErrNotFound         = errors.New("store: not found")
)

// ConversationItem holds the members of a conversation
type ConversationItem struct {
	PK           string
	SK           string
	Type         string
	Conversation string
	Members      []string `dynamodbav:",stringset,omitempty"`
}

// MessageItem is a frame waiting for the other member
type MessageItem struct {
	PK      string
	SK      string
	Type    string
	From    string
	ID      string
	Caption string
	Payload string
	Image   []byte `dynamodbav:",omitempty"`
	SentAt  time.Time
}

// ConnectionItem tracks the link between a connection and a conversation
type ConnectionItem struct {
	PK           string
	SK           string
	Type         string
	Conversation string
}

// Message is a stored frame and the key it was stored under.
type Message struct {
	Key   string
	From  string
	Frame wire.Frame
}

// Store declares the mailbox operations the relay needs.
type Store interface {
	Join(ctx context.Context, conversation, connectionID string) ([]string, error)
	Leave(ctx context.Context, connectionID string) (string, error)
	Members(ctx context.Context, conversation string) ([]string, error)
	PutFrame(ctx context.Context, conversation, from string, f wire.Frame) (Message, error)
	Pending(ctx context.Context, conversation, recipient string) ([]Message, error)
	DeleteFrame(ctx context.Context, conversation, key string) error
}

// Dynamo stores the dynamo client and other metadata needed, like the table
type Dynamo struct {
	d         dynamodbiface.DynamoDBAPI
	tableName string
	logger    *slog.Logger
}

// New creates a dynamo store
func New(d dynamodbiface.DynamoDBAPI, tableName string, logger *slog.Logger) *Dynamo {
	return &Dynamo{
		d:         d,
		tableName: tableName,
		logger:    logging.OrNop(logger),
	}
}

func conversationKey(id string) string {
	return "CONV#" + id
}

func connectionKey(id string) string {
	return "CONN#" + id
}

const (
	metaKey       = "META"
	messagePrefix = "MSG#"
	// keyTime is fixed width so sort keys order like the times they hold
	keyTime = "2006-01-02T15:04:05.000000000Z"
)

// messageKey sorts frames by send time within a conversation.
func messageKey(sentAt time.Time, id string) string {
	return fmt.Sprintf("%s%s#%s", messagePrefix, sentAt.UTC().Format(keyTime), id)
}

func key(pk, sk string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK": {S: aws.String(pk)},
		"SK": {S: aws.String(sk)},
	}
}

func isConditionFailed(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

// ItemFromFrame builds the mailbox item for a frame sent by from.
func ItemFromFrame(conversation, from string, f wire.Frame) (MessageItem, error) {
	mi := MessageItem{}
	if err := copier.Copy(&mi, &f); err != nil {
		return mi, fmt.Errorf("store: copy frame: %w", err)
	}
	if mi.ID == "" {
		mi.ID = uuid.NewString()
	}
	mi.PK = conversationKey(conversation)
	mi.SK = messageKey(mi.SentAt, mi.ID)
	mi.Type = "MessageItem"
	mi.From = from
	return mi, nil
}

// MessageFromItem converts a stored item back into a frame.
func MessageFromItem(mi *MessageItem) (Message, error) {
	m := Message{Key: mi.SK, From: mi.From}
	if err := copier.Copy(&m.Frame, mi); err != nil {
		return m, fmt.Errorf("store: copy item: %w", err)
	}
	return m, nil
}

// Join adds connectionID to the conversation, creating it if needed, and
// returns the members after the join. Joining again is a no-op.
func (s *Dynamo) Join(ctx context.Context, conversation, connectionID string) ([]string, error) {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(conversationKey(conversation), metaKey),
		ExpressionAttributeNames: map[string]*string{
			"#type": aws.String("Type"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":conn":   {SS: []*string{aws.String(connectionID)}},
			":connid": {S: aws.String(connectionID)},
			":max":    {N: aws.String(fmt.Sprintf("%d", MaxMembers))},
			":type":   {S: aws.String("ConversationItem")},
			":id":     {S: aws.String(conversation)},
		},
		ConditionExpression: aws.String("attribute_not_exists(Members) OR size(Members) < :max OR contains(Members, :connid)"),
		UpdateExpression:    aws.String("ADD Members :conn SET #type = :type, Conversation = :id"),
		ReturnValues:        aws.String("ALL_NEW"),
	}

	result, err := s.d.UpdateItemWithContext(ctx, input)
	if isConditionFailed(err) {
		return nil, fmt.Errorf("%w: %s", ErrConversationFull, conversation)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "error joining conversation", "conversation", conversation, "err", err)
		return nil, fmt.Errorf("store: join %s: %w", conversation, err)
	}

	item := ConversationItem{}
	if err := dynamodbattribute.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("store: read conversation: %w", err)
	}

	ci := ConnectionItem{
		PK:           connectionKey(connectionID),
		SK:           connectionKey(connectionID),
		Type:         "ConnectionItem",
		Conversation: conversation,
	}
	if err := s.put(ctx, ci); err != nil {
		return nil, err
	}
	return item.Members, nil
}

// Leave removes connectionID from whatever conversation it joined and
// returns that conversation, or "" when it had none.
func (s *Dynamo) Leave(ctx context.Context, connectionID string) (string, error) {
	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          key(connectionKey(connectionID), connectionKey(connectionID)),
		ReturnValues: aws.String("ALL_OLD"),
	}
	result, err := s.d.DeleteItemWithContext(ctx, input)
	if err != nil {
		return "", fmt.Errorf("store: delete connection %s: %w", connectionID, err)
	}
	item := ConnectionItem{}
	if err := dynamodbattribute.UnmarshalMap(result.Attributes, &item); err != nil {
		return "", fmt.Errorf("store: read connection: %w", err)
	}
	if item.Conversation == "" {
		return "", nil
	}

	update := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(conversationKey(item.Conversation), metaKey),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":conn": {SS: []*string{aws.String(connectionID)}},
		},
		UpdateExpression: aws.String("DELETE Members :conn"),
	}
	if _, err := s.d.UpdateItemWithContext(ctx, update); err != nil {
		return item.Conversation, fmt.Errorf("store: leave %s: %w", item.Conversation, err)
	}
	return item.Conversation, nil
}

// Members returns the connections currently in the conversation.
func (s *Dynamo) Members(ctx context.Context, conversation string) ([]string, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(conversationKey(conversation), metaKey),
		ConsistentRead: aws.Bool(true),
	}
	result, err := s.d.GetItemWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("store: get conversation %s: %w", conversation, err)
	}
	if len(result.Item) == 0 {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversation)
	}
	item := ConversationItem{}
	if err := dynamodbattribute.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("store: read conversation: %w", err)
	}
	return item.Members, nil
}

// PutFrame stores f until the other member picks it up.
func (s *Dynamo) PutFrame(ctx context.Context, conversation, from string, f wire.Frame) (Message, error) {
	mi, err := ItemFromFrame(conversation, from, f)
	if err != nil {
		return Message{}, err
	}
	if err := s.put(ctx, mi); err != nil {
		return Message{}, err
	}
	return MessageFromItem(&mi)
}

// Pending returns the frames in the conversation not sent by recipient,
// oldest first.
func (s *Dynamo) Pending(ctx context.Context, conversation, recipient string) ([]Message, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :msg)"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":pk":  {S: aws.String(conversationKey(conversation))},
			":msg": {S: aws.String(messagePrefix)},
		},
		ConsistentRead: aws.Bool(true),
	}

	var out []Message
	for {
		result, err := s.d.QueryWithContext(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("store: query %s: %w", conversation, err)
		}
		items := []MessageItem{}
		if err := dynamodbattribute.UnmarshalListOfMaps(result.Items, &items); err != nil {
			return nil, fmt.Errorf("store: read messages: %w", err)
		}
		for i := range items {
			if items[i].From == recipient {
				continue
			}
			m, err := MessageFromItem(&items[i])
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		if len(result.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// DeleteFrame removes a delivered frame.
func (s *Dynamo) DeleteFrame(ctx context.Context, conversation, sk string) error {
	if !strings.HasPrefix(sk, messagePrefix) {
		return fmt.Errorf("store: %q is not a message key", sk)
	}
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(conversationKey(conversation), sk),
	}
	if _, err := s.d.DeleteItemWithContext(ctx, input); err != nil {
		return fmt.Errorf("store: delete %s: %w", sk, err)
	}
	return nil
}

func (s *Dynamo) put(ctx context.Context, item any) error {
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("store: marshal %T: %w", item, err)
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(s.tableName),
	}
	if _, err := s.d.PutItemWithContext(ctx, input); err != nil {
		s.logger.ErrorContext(ctx, "error calling PutItem", "type", fmt.Sprintf("%T", item), "err", err)
		return fmt.Errorf("store: put %T: %w", item, err)
	}
	return nil
}
