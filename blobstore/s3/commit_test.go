package s3

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDDB struct {
	items []map[string]ddbtypes.AttributeValue
	fail  error
}

func (f *fakeDDB) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.items = append(f.items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if len(f.items) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	// Newest first, like ScanIndexForward=false.
	return &dynamodb.QueryOutput{Items: []map[string]ddbtypes.AttributeValue{f.items[len(f.items)-1]}}, nil
}

func TestCommitStoreAssignsVersions(t *testing.T) {
	ddb := &fakeDDB{}
	cs := NewCommitStore(nil, ddb, "seqgo-commits", "s3://bucket/genomes")

	ctx := context.Background()
	require.NoError(t, cs.Commit(ctx, []string{"index", "index.rev", "index.info", "index.ids"}))
	require.NoError(t, cs.Commit(ctx, []string{"index"}))

	require.Len(t, ddb.items, 2)
	v1 := ddb.items[0]["version"].(*ddbtypes.AttributeValueMemberN)
	v2 := ddb.items[1]["version"].(*ddbtypes.AttributeValueMemberN)
	assert.Equal(t, "1", v1.Value)
	assert.Equal(t, "2", v2.Value)

	uri := ddb.items[0]["base_uri"].(*ddbtypes.AttributeValueMemberS)
	assert.Equal(t, "s3://bucket/genomes", uri.Value)
}

func TestCommitStoreLatestArtifacts(t *testing.T) {
	ddb := &fakeDDB{}
	cs := NewCommitStore(nil, ddb, "seqgo-commits", "s3://bucket/genomes")
	ctx := context.Background()

	artifacts := []string{"index", "index.rev", "index.info", "index.ids"}
	require.NoError(t, cs.Commit(ctx, artifacts))

	got, err := cs.LatestArtifacts(ctx)
	require.NoError(t, err)
	assert.Equal(t, artifacts, got)
}

func TestCommitStoreConcurrentCommit(t *testing.T) {
	ddb := &fakeDDB{fail: &ddbtypes.ConditionalCheckFailedException{}}
	cs := NewCommitStore(nil, ddb, "seqgo-commits", "s3://bucket/genomes")

	err := cs.Commit(context.Background(), []string{"index"})
	assert.ErrorIs(t, err, ErrConcurrentCommit)
}
