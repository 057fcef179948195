package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/visitgate-api/internal/domain"
)

// VisitorRepo stores long-lived visitor profiles. PK: email.
type VisitorRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVisitorRepo(client *dynamodb.Client, tableName string) *VisitorRepo {
	return &VisitorRepo{client: client, tableName: tableName}
}

func (r *VisitorRepo) Get(ctx context.Context, email string) (*domain.Visitor, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", email),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("visitor %s: %w", email, domain.ErrNotFound)
	}
	var v domain.Visitor
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VisitorRepo) Put(ctx context.Context, v *domain.Visitor) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal visitor: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}
