package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// BuildTable builds the dispatch table of a resource: the built-in set, then
// getters and setters in declared order, then actions sorted by name.
func BuildTable(definition foundation.ResourceDefinition) ([]foundation.Method, error) {
	methods := make([]foundation.Method, 0,
		1+len(definition.Meta.Getters)+len(definition.Meta.Setters)+len(definition.Meta.Actions))
	seen := make(map[string]bool)

	add := func(method foundation.Method) error {
		if seen[method.Name] {
			return fmt.Errorf("%s.%s: %w", definition.Type, method.Name, foundation.ErrDuplicateMethod)
		}

		seen[method.Name] = true
		methods = append(methods, method)

		return nil
	}

	err := add(foundation.Method{Name: constants.SetFunction, Kind: foundation.MethodKindSet, Mode: foundation.ArgSingle})
	if err != nil {
		return nil, err
	}

	for _, getter := range definition.Meta.Getters {
		err = add(foundation.Method{Name: getter, Kind: foundation.MethodKindGetter, Mode: foundation.ArgNone})
		if err != nil {
			return nil, err
		}
	}

	for _, setter := range definition.Meta.Setters {
		err = add(foundation.Method{Name: setter, Kind: foundation.MethodKindSetter, Mode: foundation.ArgSingle})
		if err != nil {
			return nil, err
		}
	}

	for _, name := range definition.Meta.Actions.Names() {
		params := definition.Meta.Actions[name].ParamNames()

		method := foundation.Method{Name: name, Kind: foundation.MethodKindAction, Params: params}

		switch len(params) {
		case 0:
			method.Mode = foundation.ArgNone
			method.Params = nil
		case 1:
			method.Mode = foundation.ArgSingle
		default:
			method.Mode = foundation.ArgMulti
		}

		err = add(method)
		if err != nil {
			return nil, err
		}
	}

	return methods, nil
}

// Factory creates resource handles. Dispatch tables are built once per
// resource type and shared by every handle of that type.
type Factory struct {
	catalog *Catalog
	calls   *CallBuilder
	logger  foundation.Logger

	mu     sync.Mutex
	tables map[string][]foundation.Method
}

// NewFactory creates a factory over catalog.
func NewFactory(catalog *Catalog, calls *CallBuilder, logger foundation.Logger) *Factory {
	return &Factory{
		catalog: catalog,
		calls:   calls,
		logger:  logger,
		tables:  make(map[string][]foundation.Method),
	}
}

// Create returns a handle for resourceType bound to id when id is not empty.
func (f *Factory) Create(ctx context.Context, resourceType, id string, suppressMeta bool) (*Resource, error) {
	if resourceType == "" {
		return nil, foundation.ErrResourceTypeRequired
	}

	methods, err := f.Table(ctx, resourceType)
	if err != nil {
		return nil, err
	}

	resource := NewResource(resourceType, methods, f.calls)
	resource.logger = f.logger
	resource.suppressMeta = suppressMeta
	resource.SetID(id)

	return resource, nil
}

// Table returns the dispatch table of resourceType, building it on first use.
func (f *Factory) Table(ctx context.Context, resourceType string) ([]foundation.Method, error) {
	f.mu.Lock()
	methods, ok := f.tables[resourceType]
	f.mu.Unlock()

	if ok {
		return methods, nil
	}

	definition, err := f.catalog.Lookup(ctx, resourceType)
	if err != nil {
		return nil, err
	}

	methods, err = BuildTable(definition)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.tables[resourceType]; ok {
		return existing, nil
	}

	f.tables[resourceType] = methods

	return methods, nil
}

// Resource is a handle bound to one resource type and optionally one id. It
// owns at most one open multi action.
type Resource struct {
	resourceType string
	methods      []foundation.Method
	index        map[string]int
	calls        *CallBuilder
	logger       foundation.Logger

	mu           sync.Mutex
	id           string
	suppressMeta bool
	txn          *Transaction
}

// NewResource binds a dispatch table to a resource type.
func NewResource(resourceType string, methods []foundation.Method, calls *CallBuilder) *Resource {
	index := make(map[string]int, len(methods))
	for i, method := range methods {
		index[method.Name] = i
	}

	return &Resource{
		resourceType: resourceType,
		methods:      methods,
		index:        index,
		calls:        calls,
	}
}

// Type returns the resource type.
func (r *Resource) Type() string {
	return r.resourceType
}

// ID returns the bound id.
func (r *Resource) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.id
}

// SetID binds the handle to id.
func (r *Resource) SetID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.id = id
}

// SetMeta selects full documents (true) or unwrapped results (false).
func (r *Resource) SetMeta(meta bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.suppressMeta = !meta
}

// Meta reports whether full documents are returned.
func (r *Resource) Meta() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return !r.suppressMeta
}

// Message returns the last captured failure message.
func (r *Resource) Message() string {
	return r.calls.Message()
}

// Methods returns a copy of the dispatch table.
func (r *Resource) Methods() []foundation.Method {
	methods := make([]foundation.Method, len(r.methods))
	copy(methods, r.methods)

	return methods
}

// Method looks up one method by name.
func (r *Resource) Method(name string) (foundation.Method, bool) {
	i, ok := r.index[name]
	if !ok {
		return foundation.Method{}, false
	}

	return r.methods[i], true
}

// Set calls the built-in set.
func (r *Resource) Set(ctx context.Context, value interface{}) (*foundation.Result, error) {
	return r.invokeKind(ctx, constants.SetFunction, foundation.MethodKindSet, []interface{}{value})
}

// InvokeGetter calls a declared getter.
func (r *Resource) InvokeGetter(ctx context.Context, name string) (*foundation.Result, error) {
	return r.invokeKind(ctx, name, foundation.MethodKindGetter, nil)
}

// InvokeSetter calls a declared setter with value.
func (r *Resource) InvokeSetter(ctx context.Context, name string, value interface{}) (*foundation.Result, error) {
	return r.invokeKind(ctx, name, foundation.MethodKindSetter, []interface{}{value})
}

// InvokeAction calls a declared action with positional args.
func (r *Resource) InvokeAction(ctx context.Context, name string, args ...interface{}) (*foundation.Result, error) {
	return r.invokeKind(ctx, name, foundation.MethodKindAction, args)
}

// Call dispatches any declared method by name.
func (r *Resource) Call(ctx context.Context, name string, args ...interface{}) (*foundation.Result, error) {
	return r.invokeKind(ctx, name, "", args)
}

// StartMultiAction opens a batch, discarding any staged calls.
func (r *Resource) StartMultiAction() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.txn != nil && r.logger != nil {
		r.logger.Warn("multi action restarted, staged calls discarded", map[string]interface{}{
			"resource": r.resourceType,
			"staged":   r.txn.Len(),
		})
	}

	r.txn = NewTransaction(r.calls.auth)
}

// RollbackMultiAction discards the staged calls.
func (r *Resource) RollbackMultiAction() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.txn != nil && r.logger != nil {
		r.logger.Debug("multi action rolled back", map[string]interface{}{
			"resource": r.resourceType,
			"staged":   r.txn.Len(),
		})
	}

	r.txn = nil
}

// CommitMultiAction sends the staged calls in one POST and closes the batch.
func (r *Resource) CommitMultiAction(ctx context.Context) (*foundation.Result, error) {
	r.mu.Lock()
	txn := r.txn
	r.txn = nil
	target := r.target()
	r.mu.Unlock()

	if txn == nil {
		return nil, foundation.ErrMultiActionNotStarted
	}

	if r.logger != nil {
		r.logger.Debug("committing multi action", map[string]interface{}{
			"resource": target.Path(),
			"staged":   txn.Len(),
		})
	}

	return r.calls.Dispatch(ctx, target, txn.Envelope(), "")
}

// InMultiAction reports whether a batch is open.
func (r *Resource) InMultiAction() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.txn != nil
}

// invokeKind checks name against the dispatch table and kind (any kind when
// empty), pads missing arguments with nil and hands the call to the builder.
func (r *Resource) invokeKind(
	ctx context.Context,
	name string,
	kind foundation.MethodKind,
	values []interface{},
) (*foundation.Result, error) {
	if r.resourceType == "" {
		return nil, &foundation.UnboundResourceError{Function: name}
	}

	method, ok := r.Method(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", r.resourceType, name, foundation.ErrUnknownMethod)
	}

	if kind != "" && method.Kind != kind {
		return nil, fmt.Errorf("%s.%s is a %s: %w", r.resourceType, name, method.Kind, foundation.ErrWrongMethodKind)
	}

	arity := method.Arity()
	if len(values) > arity {
		return nil, fmt.Errorf("%s.%s takes %d, got %d: %w",
			r.resourceType, name, arity, len(values), foundation.ErrTooManyArguments)
	}

	args := make([]foundation.Arg, arity)
	for i := range args {
		if i < len(values) {
			args[i] = foundation.ArgOf(values[i])
		} else {
			args[i] = foundation.JSONArg(nil)
		}
	}

	r.mu.Lock()
	if r.txn != nil {
		defer r.mu.Unlock()

		return r.calls.Invoke(ctx, r.target(), r.txn, method, args)
	}

	target := r.target()
	r.mu.Unlock()

	return r.calls.Invoke(ctx, target, nil, method, args)
}

// target must be called with r.mu held.
func (r *Resource) target() Target {
	return Target{Type: r.resourceType, ID: r.id, SuppressMeta: r.suppressMeta}
}
