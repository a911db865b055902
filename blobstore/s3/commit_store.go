package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/gridgo/blobstore"
)

// pointerSuffix marks blobs that act as latest-version pointers.
const pointerSuffix = "/LATEST"

// ErrConcurrentModification is returned when a concurrent pointer
// commit is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore wraps an S3 Store with DynamoDB-backed atomic pointer
// commits. S3 alone cannot compare-and-swap a "LATEST" pointer blob;
// DynamoDB conditional writes provide that, so multiple writers can
// safely race on the same snapshot name.
//
// Table schema:
//   - Partition key: base_uri (string) - bucket/prefix/pointer path
//   - Sort key: version (number) - monotonically increasing commit
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name gridgo-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
}

// NewCommitStore creates an S3+DynamoDB commit store.
func NewCommitStore(s3Store *Store, ddbClient DDBClient, tableName string) *CommitStore {
	return &CommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
	}
}

func (s *CommitStore) baseURI(name string) string {
	return "s3://" + s.s3Store.bucket + "/" + s.s3Store.key(name)
}

// Put writes a blob. Pointer blobs commit through DynamoDB; everything
// else goes straight to S3.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if strings.HasSuffix(name, pointerSuffix) {
		return s.commit(ctx, name, string(data))
	}
	return s.s3Store.Put(ctx, name, data)
}

// Open opens a blob. Pointer blobs resolve through DynamoDB.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if strings.HasSuffix(name, pointerSuffix) {
		version, target, err := s.latest(ctx, name)
		if err != nil {
			return nil, err
		}
		if version == 0 {
			return nil, blobstore.ErrNotFound
		}
		return &pointerBlob{Reader: strings.NewReader(target), size: int64(len(target))}, nil
	}
	return s.s3Store.Open(ctx, name)
}

// Delete removes a blob from S3. Pointer history in DynamoDB is kept.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.s3Store.Delete(ctx, name)
}

// List lists blobs with prefix.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

// latest queries DynamoDB for the most recently committed pointer
// target. Returns version 0 when no commit exists.
func (s *CommitStore) latest(ctx context.Context, name string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI(name)},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid target attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}
	return version, targetAttr.Value, nil
}

// commit atomically records a new pointer target using a DynamoDB
// conditional write.
func (s *CommitStore) commit(ctx context.Context, name, target string) error {
	currentVersion, _, err := s.latest(ctx, name)
	if err != nil {
		return err
	}
	newVersion := currentVersion + 1

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI(name)},
			"version":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newVersion)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return nil
}

type pointerBlob struct {
	*strings.Reader
	size int64
}

var _ io.ReadCloser = (*pointerBlob)(nil)

func (b *pointerBlob) Close() error { return nil }
func (b *pointerBlob) Size() int64  { return b.size }
