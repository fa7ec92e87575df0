package foundation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
)

// BatchOperation is one independent call run by a BatchExecutor.
type BatchOperation struct {
	ID         string
	Resource   string // resource type, e.g. "User"
	ResourceID string
	Method     string
	Args       []interface{}
	Callback   func(result *BatchResult)
}

// BatchResult represents the result of a batch operation.
type BatchResult struct {
	ID       string
	Success  bool
	Result   *Result
	Error    error
	Duration time.Duration
}

// BatchExecutor runs independent calls concurrently, each on its own handle
// and in its own request. Use a multi-action to send calls in one request.
type BatchExecutor struct {
	client      Client
	concurrency int
	timeout     time.Duration
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(client Client, concurrency int) *BatchExecutor {
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrencyLimit
	}

	return &BatchExecutor{
		client:      client,
		concurrency: concurrency,
		timeout:     constants.DefaultHTTPTimeout,
	}
}

// SetTimeout sets the timeout for each operation.
func (b *BatchExecutor) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// Execute runs operations and returns their results in input order. A failed
// operation does not stop the others. The error is non-nil only when ctx ends
// before every operation has run.
func (b *BatchExecutor) Execute(ctx context.Context, operations []BatchOperation) ([]BatchResult, error) {
	results := make([]BatchResult, len(operations))

	var waitGroup sync.WaitGroup

	semaphore := make(chan struct{}, b.concurrency)

	for index, operation := range operations {
		waitGroup.Add(1)

		go func(index int, operation BatchOperation) {
			defer waitGroup.Done()

			err := acquire(ctx, semaphore)
			if err != nil {
				results[index] = BatchResult{ID: operation.ID, Error: err}

				return
			}

			defer func() { <-semaphore }()

			opCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			start := time.Now()
			result := b.executeOperation(opCtx, operation)
			result.Duration = time.Since(start)
			results[index] = *result

			if operation.Callback != nil {
				operation.Callback(result)
			}
		}(index, operation)
	}

	waitGroup.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch interrupted: %w", err)
	}

	return results, nil
}

// acquire takes a semaphore slot unless ctx has ended.
func acquire(ctx context.Context, semaphore chan struct{}) error {
	select {
	case semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := ctx.Err(); err != nil {
		<-semaphore

		return err
	}

	return nil
}

func (b *BatchExecutor) executeOperation(ctx context.Context, operation BatchOperation) *BatchResult {
	result := &BatchResult{ID: operation.ID}

	resource, err := b.client.Resource(ctx, operation.Resource, operation.ResourceID)
	if err != nil {
		result.Error = err

		return result
	}

	value, err := resource.Call(ctx, operation.Method, operation.Args...)
	result.Success = err == nil
	result.Result = value
	result.Error = err

	return result
}

// BatchBuilder helps build batch operations.
type BatchBuilder struct {
	operations []BatchOperation
}

// NewBatchBuilder creates a new batch builder.
func NewBatchBuilder() *BatchBuilder {
	return &BatchBuilder{
		operations: make([]BatchOperation, 0),
	}
}

// AddCall adds a call of method on resourceType/resourceID.
func (b *BatchBuilder) AddCall(id, resourceType, resourceID, method string, args ...interface{}) *BatchBuilder {
	return b.AddOperation(BatchOperation{
		ID:         id,
		Resource:   resourceType,
		ResourceID: resourceID,
		Method:     method,
		Args:       args,
	})
}

// AddOperation adds a custom operation.
func (b *BatchBuilder) AddOperation(operation BatchOperation) *BatchBuilder {
	b.operations = append(b.operations, operation)

	return b
}

// Build returns the operations.
func (b *BatchBuilder) Build() []BatchOperation {
	return b.operations
}
