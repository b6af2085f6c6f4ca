package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design.
const (
	pkPrefix = "PROJECT#"
	skMeta   = "META"
)

// DynamoAPI is the subset of *dynamodb.Client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// BlobStore holds asset bytes outside DynamoDB's 400 KB item limit.
// s3util.Bucket implements it.
type BlobStore interface {
	PutBlob(ctx context.Context, key, contentType string, data []byte) error
	GetBlob(ctx context.Context, key string) ([]byte, error)
	DeletePrefix(ctx context.Context, prefix string) error
}

// DynamoStore implements ProjectStore with a DynamoDB table for project
// documents and a BlobStore for asset bytes.
type DynamoStore struct {
	client    DynamoAPI
	blobs     BlobStore
	tableName string
	now       func() time.Time
}

var _ ProjectStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table and blob store.
func NewDynamoStore(client DynamoAPI, tableName string, blobs BlobStore) *DynamoStore {
	return &DynamoStore{client: client, blobs: blobs, tableName: tableName, now: time.Now}
}

func projectPK(id string) string {
	return pkPrefix + id
}

// blobPrefix is the object key prefix holding a project's assets.
func blobPrefix(id string) string {
	return "projects/" + id + "/"
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: projectPK(id)},
		"SK": &types.AttributeValueMemberS{Value: skMeta},
	}
}

// PutProject uploads assets first so a readable document never references
// a missing object. Assets whose reference, digest included, matches the
// stored document are not uploaded again.
func (s *DynamoStore) PutProject(ctx context.Context, p *Project) error {
	stamp(p, s.now())
	rec, assets := encode(p)
	stored := s.storedAssets(ctx, p.ID)

	var uploaded int
	for _, ref := range rec.assetKeys() {
		if prev, ok := stored[ref.Key]; ok && prev.Digest != "" && prev == ref {
			continue
		}
		a := assets[ref.Key]
		if err := s.blobs.PutBlob(ctx, blobPrefix(p.ID)+ref.Key, a.MIMEType, a.Data); err != nil {
			return fmt.Errorf("upload asset %s/%s: %w", p.ID, ref.Key, err)
		}
		uploaded++
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: projectPK(p.ID)}
	item["SK"] = &types.AttributeValueMemberS{Value: skMeta}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", projectPK(p.ID), skMeta, err)
	}

	log.Debug().
		Str("project", p.ID).
		Int("assets", len(assets)).
		Int("uploaded", uploaded).
		Msg("Project saved to DynamoDB")
	return nil
}

// storedAssets returns the asset references of the saved document for id,
// keyed by asset key. Read failures return nil so every asset is uploaded.
func (s *DynamoStore) storedAssets(ctx context.Context, id string) map[string]assetRef {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            &s.tableName,
		Key:                  s.key(id),
		ProjectionExpression: aws.String("scenes, narration"),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		log.Warn().Err(err).Str("project", id).Msg("Could not read stored asset references, uploading all assets")
		return nil
	}
	if result.Item == nil {
		return nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		log.Warn().Err(err).Str("project", id).Msg("Unreadable stored asset references, uploading all assets")
		return nil
	}
	refs := make(map[string]assetRef)
	for _, ref := range rec.assetKeys() {
		refs[ref.Key] = ref
	}
	return refs
}

func (s *DynamoStore) GetProject(ctx context.Context, id string) (*Project, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       s.key(id),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem PK=%s SK=%s: %w", projectPK(id), skMeta, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal PK=%s SK=%s: %w", projectPK(id), skMeta, err)
	}
	rec.ID = id

	data := make(map[string][]byte)
	for _, ref := range rec.assetKeys() {
		b, err := s.blobs.GetBlob(ctx, blobPrefix(id)+ref.Key)
		if err != nil {
			log.Warn().Err(err).Str("project", id).Str("asset", ref.Key).Msg("Asset unavailable, loading project without it")
			continue
		}
		data[ref.Key] = b
	}
	return decode(rec, data), nil
}

func (s *DynamoStore) ListProjects(ctx context.Context) ([]Summary, error) {
	input := &dynamodb.ScanInput{
		TableName:        &s.tableName,
		FilterExpression: aws.String("SK = :meta"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":meta": &types.AttributeValueMemberS{Value: skMeta},
		},
	}

	var list []Summary
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Scan %s: %w", s.tableName, err)
		}
		for _, item := range result.Items {
			var rec record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				log.Warn().Err(err).Msg("Skipping unreadable project item")
				continue
			}
			if pk, ok := item["PK"].(*types.AttributeValueMemberS); ok {
				rec.ID = strings.TrimPrefix(pk.Value, pkPrefix)
			}
			list = append(list, rec.summary())
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	sortSummaries(list)
	return list, nil
}

func (s *DynamoStore) DeleteProject(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &s.tableName,
		Key:                 s.key(id),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("DeleteItem PK=%s SK=%s: %w", projectPK(id), skMeta, err)
	}

	if err := s.blobs.DeletePrefix(ctx, blobPrefix(id)); err != nil {
		log.Warn().Err(err).Str("project", id).Msg("Project deleted but assets remain")
	}
	return nil
}
