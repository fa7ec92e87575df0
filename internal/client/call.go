package client

import (
	"context"
	"errors"
	"sync"

	fdhttp "github.com/fivetwenty-io/foundation-client/internal/http"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Target is the resource a call is addressed to.
type Target struct {
	Type         string
	ID           string
	SuppressMeta bool
}

// Path returns "<type>[/<id>]" relative to the API base URL.
func (t Target) Path() string {
	if t.ID == "" {
		return t.Type
	}

	return t.Type + "/" + t.ID
}

// messageSlot holds the last captured failure message. It is shared by a
// client and every handle it creates.
type messageSlot struct {
	mu      sync.RWMutex
	message string
}

func (s *messageSlot) set(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
}

func (s *messageSlot) get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.message
}

// CallBuilder builds envelopes for resource calls and either dispatches them
// or stages them into an open transaction.
type CallBuilder struct {
	transport *fdhttp.Client
	auth      map[string]string
	logger    foundation.Logger
	messages  *messageSlot
}

// NewCallBuilder creates a call builder sending auth with every call.
func NewCallBuilder(transport *fdhttp.Client, auth map[string]string, logger foundation.Logger) *CallBuilder {
	return &CallBuilder{
		transport: transport,
		auth:      auth,
		logger:    logger,
		messages:  &messageSlot{},
	}
}

// Message returns the last captured failure message.
func (b *CallBuilder) Message() string {
	return b.messages.get()
}

// Invoke runs method on target. With txn nil the call is sent immediately as
// action0; otherwise it is staged into txn and the result carries its slot.
func (b *CallBuilder) Invoke(
	ctx context.Context,
	target Target,
	txn *Transaction,
	method foundation.Method,
	args []foundation.Arg,
) (*foundation.Result, error) {
	if target.Type == "" {
		return nil, &foundation.UnboundResourceError{Function: method.Name}
	}

	if txn != nil {
		index, err := txn.Stage(method, args)
		if err != nil {
			return nil, err
		}

		return &foundation.Result{Staged: true, Index: index, Value: index}, nil
	}

	envelope := NewEnvelope(b.auth)

	err := envelope.Stage(0, method, args)
	if err != nil {
		return nil, err
	}

	return b.Dispatch(ctx, target, envelope, method.Name)
}

// Dispatch sends envelope to target and unwraps the response for fn. Transport
// and API failures are recorded in the message slot before being returned.
func (b *CallBuilder) Dispatch(ctx context.Context, target Target, envelope *Envelope, fn string) (*foundation.Result, error) {
	if target.Type == "" {
		return nil, &foundation.UnboundResourceError{Function: fn}
	}

	if target.SuppressMeta {
		envelope = envelope.Clone()
		envelope.SuppressMeta()
	}

	resp, err := b.transport.PostForm(ctx, target.Path(), envelope.Form())
	if err != nil {
		b.fail(target, fn, err)

		return nil, err
	}

	value, err := Unwrap(resp.Body, target.Type, fn, target.SuppressMeta)
	if err != nil {
		b.fail(target, fn, err)

		return nil, err
	}

	return &foundation.Result{
		Value:      value,
		Body:       resp.Body,
		StatusCode: resp.StatusCode,
	}, nil
}

func (b *CallBuilder) fail(target Target, fn string, err error) {
	message := err.Error()

	var transportErr *foundation.TransportError
	if errors.As(err, &transportErr) && transportErr.Message != "" {
		message = transportErr.Message
	}

	b.messages.set(message)

	if b.logger != nil {
		b.logger.Warn("resource call failed", map[string]interface{}{
			"resource": target.Path(),
			"function": fn,
			"error":    message,
		})
	}
}
