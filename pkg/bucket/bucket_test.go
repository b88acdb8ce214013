package bucket

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
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

func TestPutObject(t *testing.T) {
	api := new(mockS3)
	client := &Client{api: api}

	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "logs" &&
			aws.ToString(in.Key) == "today.log" &&
			in.ACL == types.ObjectCannedACLPrivate
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	err := client.PutObject(context.Background(), "logs", "today.log", bytes.NewBufferString("x"), "text/plain")
	assert.NoError(t, err)
	api.AssertExpectations(t)
}

func TestPutObjectError(t *testing.T) {
	api := new(mockS3)
	client := &Client{api: api}
	api.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("denied")).Once()

	err := client.PutObject(context.Background(), "logs", "today.log", bytes.NewBufferString("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestGetObject(t *testing.T) {
	api := new(mockS3)
	client := &Client{api: api}
	api.On("GetObject", mock.Anything, mock.Anything).
		Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewBufferString(`{"routines":[]}`))}, nil).Once()

	data, err := client.GetObject(context.Background(), "snapshots", "routines.json")
	require.NoError(t, err)
	assert.Equal(t, `{"routines":[]}`, string(data))
}
