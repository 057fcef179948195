package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/visitgate-api/internal/domain"
)

// SettingKeyDailyCron is the fixed key under which operators store the daily
// task's cron expression. The scheduler re-reads it every cycle so the
// schedule can be changed without a restart.
const SettingKeyDailyCron = "daily_task_cron"

type setting struct {
	Key   string `dynamodbav:"setting_key"`
	Value string `dynamodbav:"value"`
}

// SettingsRepo stores operator-editable configuration values. PK: setting_key.
type SettingsRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSettingsRepo(client *dynamodb.Client, tableName string) *SettingsRepo {
	return &SettingsRepo{client: client, tableName: tableName}
}

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("setting_key", key),
	})
	if err != nil {
		return "", err
	}
	if out.Item == nil {
		return "", fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
	}
	var s setting
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingsRepo) Put(ctx context.Context, key, value string) error {
	item, err := attributevalue.MarshalMap(setting{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal setting: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}
