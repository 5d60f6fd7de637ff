package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/seqgo/seqgo/blobstore"
)

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentCommit is returned when another writer committed the same
// version first.
var ErrConcurrentCommit = errors.New("blobstore: concurrent commit detected")

// CommitStore wraps an S3 Store with a DynamoDB commit marker. Readers that
// only trust committed artifact sets query the table for the newest version
// under the store's base URI.
//
// Table schema: partition key base_uri (S), sort key version (N). The
// conditional write makes version assignment a compare-and-swap, so two
// writers racing on the same base URI cannot both claim a version.
type CommitStore struct {
	*Store
	ddb       DDBClient
	tableName string
	baseURI   string
}

// NewCommitStore wraps store with a commit marker in the given table.
// baseURI is the partition key, conventionally "s3://bucket/prefix".
func NewCommitStore(store *Store, ddb DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{Store: store, ddb: ddb, tableName: tableName, baseURI: baseURI}
}

var _ blobstore.Committer = (*CommitStore)(nil)

// Commit records the artifact set as the next committed version.
func (s *CommitStore) Commit(ctx context.Context, artifacts []string) error {
	current, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}
	next := current + 1

	_, err = s.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]ddbtypes.AttributeValue{
			"base_uri":     &ddbtypes.AttributeValueMemberS{Value: s.baseURI},
			"version":      &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"artifacts":    &ddbtypes.AttributeValueMemberS{Value: strings.Join(artifacts, "\n")},
			"committed_at": &ddbtypes.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var cond *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return ErrConcurrentCommit
		}
		return fmt.Errorf("blobstore: commit version %d: %w", next, err)
	}
	return nil
}

// LatestArtifacts returns the artifact names of the newest committed set.
func (s *CommitStore) LatestArtifacts(ctx context.Context) ([]string, error) {
	item, err := s.latestItem(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("blobstore: no committed artifact set: %w", blobstore.ErrNotFound)
	}
	attr, ok := item["artifacts"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("blobstore: malformed artifacts attribute")
	}
	return strings.Split(attr.Value, "\n"), nil
}

func (s *CommitStore) latestVersion(ctx context.Context) (uint64, error) {
	item, err := s.latestItem(ctx)
	if err != nil || item == nil {
		return 0, err
	}
	attr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("blobstore: malformed version attribute")
	}
	return strconv.ParseUint(attr.Value, 10, 64)
}

func (s *CommitStore) latestItem(ctx context.Context) (map[string]ddbtypes.AttributeValue, error) {
	resp, err := s.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":uri": &ddbtypes.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	return resp.Items[0], nil
}
