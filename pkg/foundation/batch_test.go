package foundation_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

var errNotFound = errors.New("not found")

// MockClient implements foundation.Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Resource(ctx context.Context, resourceType, id string) (foundation.Resource, error) {
	args := m.Called(ctx, resourceType, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(foundation.Resource), args.Error(1)
}

func (m *MockClient) Endpoint(ctx context.Context, resourceType, id string) (foundation.Resource, error) {
	return m.Resource(ctx, resourceType, id)
}

func (m *MockClient) Resources(ctx context.Context) (map[string]foundation.ResourceDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]foundation.ResourceDefinition), args.Error(1)
}

func (m *MockClient) Message() string    { return m.Called().String(0) }
func (m *MockClient) SetMeta(meta bool) { m.Called(meta) }
func (m *MockClient) Meta() bool        { return m.Called().Bool(0) }

// MockResource implements the calls the executor makes on a handle.
type MockResource struct {
	foundation.Resource
	mock.Mock
}

func (m *MockResource) Call(ctx context.Context, name string, args ...interface{}) (*foundation.Result, error) {
	called := m.Called(name, args)
	if called.Get(0) == nil {
		return nil, called.Error(1)
	}

	return called.Get(0).(*foundation.Result), called.Error(1)
}

func TestBatchExecutor_Execute(t *testing.T) {
	t.Parallel()

	user := &MockResource{}
	user.On("Call", "getName", []interface{}(nil)).Return(&foundation.Result{Value: "Ada"}, nil)

	missing := &MockResource{}
	missing.On("Call", "getName", []interface{}(nil)).Return(nil, errNotFound)

	log := &MockResource{}
	log.On("Call", "write", []interface{}{"hello"}).Return(&foundation.Result{Value: true}, nil)

	client := &MockClient{}
	client.On("Resource", mock.Anything, "User", "1").Return(user, nil)
	client.On("Resource", mock.Anything, "User", "2").Return(missing, nil)
	client.On("Resource", mock.Anything, "Log", "").Return(log, nil)
	client.On("Resource", mock.Anything, "Sprocket", "").Return(nil, &foundation.UnknownResourceError{Type: "Sprocket"})

	var callbacks atomic.Int32

	operations := foundation.NewBatchBuilder().
		AddCall("first", "User", "1", "getName").
		AddCall("second", "User", "2", "getName").
		AddCall("third", "Log", "", "write", "hello").
		AddOperation(foundation.BatchOperation{
			ID:       "fourth",
			Resource: "Sprocket",
			Method:   "spin",
			Callback: func(result *foundation.BatchResult) { callbacks.Add(1) },
		}).
		Build()

	results, err := foundation.NewBatchExecutor(client, 2).Execute(context.Background(), operations)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "first", results[0].ID)
	assert.True(t, results[0].Success)
	assert.Equal(t, "Ada", results[0].Result.Value)

	assert.False(t, results[1].Success)
	require.ErrorIs(t, results[1].Error, errNotFound)

	assert.True(t, results[2].Success)
	assert.Equal(t, true, results[2].Result.Value)

	assert.False(t, results[3].Success)
	assert.True(t, foundation.IsUnknownResource(results[3].Error))
	assert.Equal(t, int32(1), callbacks.Load())

	user.AssertExpectations(t)
	log.AssertExpectations(t)
}

func TestBatchExecutor_Concurrency(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		running int
		peak    int
	)

	resource := &MockResource{}
	resource.On("Call", "getName", []interface{}(nil)).Run(func(args mock.Arguments) {
		mu.Lock()
		running++

		if running > peak {
			peak = running
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
	}).Return(&foundation.Result{}, nil)

	client := &MockClient{}
	client.On("Resource", mock.Anything, "User", mock.Anything).Return(resource, nil)

	builder := foundation.NewBatchBuilder()
	for i := 0; i < 8; i++ {
		builder.AddCall("op", "User", "1", "getName")
	}

	results, err := foundation.NewBatchExecutor(client, 2).Execute(context.Background(), builder.Build())
	require.NoError(t, err)
	assert.Len(t, results, 8)
	assert.LessOrEqual(t, peak, 2)
}

func TestBatchExecutor_CancelledContext(t *testing.T) {
	t.Parallel()

	client := &MockClient{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := foundation.NewBatchExecutor(client, 1)
	executor.SetTimeout(time.Second)

	results, err := executor.Execute(ctx, foundation.NewBatchBuilder().AddCall("a", "User", "1", "getName").Build())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}
