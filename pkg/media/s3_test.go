package media_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/botfleet/pkg/media"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.ListObjectsV2Output), args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func object(key string, size int64) types.Object {
	return types.Object{Key: aws.String(key), Size: aws.Int64(size)}
}

func TestS3Source_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := new(MockS3Client)
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.Bucket) == "bucket" && aws.ToString(in.Prefix) == "imagenes/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			object("imagenes/", 0),
			object("imagenes/b.png", 10),
			object("imagenes/.hidden", 1),
		},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("page2"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "page2"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{object("imagenes/a.jpg", 20)},
		IsTruncated: aws.Bool(false),
	}, nil).Once()
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Key) == "imagenes/a.jpg"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("jpg")))}, nil)

	src := media.NewS3SourceWithClient(client, "bucket", "/imagenes")
	items, err := src.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.jpg", items[0].Name)
	assert.Equal(t, int64(20), items[0].Size)
	assert.Equal(t, "b.png", items[1].Name)

	data, err := items[0].ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpg"), data)

	client.AssertExpectations(t)
}

func TestS3Source_ListError(t *testing.T) {
	t.Parallel()

	client := new(MockS3Client)
	client.On("ListObjectsV2", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := media.NewS3SourceWithClient(client, "bucket", "").List(context.Background())
	assert.ErrorIs(t, err, media.ErrListFailed)
}

func TestNewS3Source_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := media.NewS3Source(context.Background(), media.S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, media.ErrInvalidConfig)
}
