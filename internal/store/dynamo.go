package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"portfolio-contact/internal/contact"
)

const DayLayout = "2006-01-02"

type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ContactItem is the DynamoDB row for one submission.
type ContactItem struct {
	PK string `dynamodbav:"PK"`

	ID         string `dynamodbav:"ID"`
	Name       string `dynamodbav:"Name"`
	Email      string `dynamodbav:"Email"`
	Message    string `dynamodbav:"Message"`
	ReceivedAt string `dynamodbav:"ReceivedAt"`
	Day        string `dynamodbav:"Day"`
}

func contactPK(id string) string { return "CONTACT#" + id }

func (it ContactItem) Stored() (contact.StoredSubmission, error) {
	at, err := time.Parse(time.RFC3339Nano, it.ReceivedAt)
	if err != nil {
		return contact.StoredSubmission{}, fmt.Errorf("item %s: bad ReceivedAt %q: %w", it.ID, it.ReceivedAt, err)
	}
	return contact.StoredSubmission{
		ID:         it.ID,
		ReceivedAt: at.UTC(),
		Submission: contact.Submission{Name: it.Name, Email: it.Email, Message: it.Message},
	}, nil
}

type DynamoStore struct {
	client DDBClient
	table  string

	now   func() time.Time
	newID func() string
}

func NewDynamoStore(client DDBClient, table string) *DynamoStore {
	return &DynamoStore{
		client: client,
		table:  strings.TrimSpace(table),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

var _ contact.Store = (*DynamoStore)(nil)

func (s *DynamoStore) Insert(ctx context.Context, sub contact.Submission) (contact.StoredSubmission, error) {
	if s.table == "" {
		return contact.StoredSubmission{}, fmt.Errorf("missing contacts table")
	}
	id := s.newID()
	at := s.now().UTC()

	item := ContactItem{
		PK:         contactPK(id),
		ID:         id,
		Name:       sub.Name,
		Email:      sub.Email,
		Message:    sub.Message,
		ReceivedAt: at.Format(time.RFC3339Nano),
		Day:        at.Format(DayLayout),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return contact.StoredSubmission{}, fmt.Errorf("marshal contact item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return contact.StoredSubmission{}, fmt.Errorf("dynamodb PutItem: %w", err)
	}
	return contact.StoredSubmission{ID: id, ReceivedAt: at, Submission: sub}, nil
}

// ListDay returns every submission received on day (UTC). The table is small
// and written only by the contact form, so a filtered scan is enough.
func (s *DynamoStore) ListDay(ctx context.Context, day time.Time) ([]contact.StoredSubmission, error) {
	if s.table == "" {
		return nil, fmt.Errorf("missing contacts table")
	}
	dayStr := day.UTC().Format(DayLayout)

	var (
		out   []contact.StoredSubmission
		start map[string]types.AttributeValue
	)
	for {
		page, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(s.table),
			FilterExpression:         aws.String("#d = :day AND begins_with(PK, :pfx)"),
			ExpressionAttributeNames: map[string]string{"#d": "Day"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":day": &types.AttributeValueMemberS{Value: dayStr},
				":pfx": &types.AttributeValueMemberS{Value: "CONTACT#"},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb Scan: %w", err)
		}

		var items []ContactItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal contact items: %w", err)
		}
		for _, it := range items {
			st, err := it.Stored()
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}

		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		start = page.LastEvaluatedKey
	}
	return out, nil
}
