package foundation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ParamSpec describes one positional action parameter.
type ParamSpec struct {
	Name string `json:"name" yaml:"name"`
}

// ActionSpec describes a remote action. Parameter order determines positional binding.
type ActionSpec struct {
	Parameters []ParamSpec `json:"parameters" yaml:"parameters"`
}

// ParamNames returns the declared parameter names in order.
func (a ActionSpec) ParamNames() []string {
	names := make([]string, 0, len(a.Parameters))
	for _, p := range a.Parameters {
		names = append(names, p.Name)
	}

	return names
}

// ActionMap maps action names to their specs.
type ActionMap map[string]ActionSpec

// UnmarshalJSON accepts an empty JSON array as an empty map; the API encodes
// a resource without actions as [].
func (m *ActionMap) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*m = ActionMap{}

		return nil
	}

	var actions map[string]ActionSpec

	err := json.Unmarshal(trimmed, &actions)
	if err != nil {
		return fmt.Errorf("parsing actions: %w", err)
	}

	*m = actions

	return nil
}

// UnmarshalYAML accepts an empty sequence as an empty map, as in JSON.
func (m *ActionMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode && len(value.Content) == 0 {
		*m = ActionMap{}

		return nil
	}

	var actions map[string]ActionSpec

	err := value.Decode(&actions)
	if err != nil {
		return fmt.Errorf("parsing actions: %w", err)
	}

	if actions == nil {
		actions = ActionMap{}
	}

	*m = actions

	return nil
}

// Names returns the action names sorted.
func (m ActionMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ResourceMeta lists the methods a resource declares.
type ResourceMeta struct {
	Getters []string  `json:"getters" yaml:"getters"`
	Setters []string  `json:"setters" yaml:"setters"`
	Actions ActionMap `json:"actions" yaml:"actions"`
}

// ResourceDefinition is one entry of the discovered catalog. Immutable once fetched.
type ResourceDefinition struct {
	Type string       `json:"type" yaml:"type"`
	Meta ResourceMeta `json:"meta" yaml:"meta"`
}

// DiscoveryDocument is the success shape returned by the discovery endpoint.
type DiscoveryDocument struct {
	Data []ResourceDefinition `json:"data" yaml:"data"`
}

// MethodKind classifies a synthesized resource method.
type MethodKind string

const (
	// MethodKindSet is the built-in "set" every resource exposes.
	MethodKindSet MethodKind = "set"

	// MethodKindGetter is a declared getter.
	MethodKindGetter MethodKind = "getter"

	// MethodKindSetter is a declared setter.
	MethodKindSetter MethodKind = "setter"

	// MethodKindAction is a declared action.
	MethodKindAction MethodKind = "action"
)

// ArgMode selects how a call's payload is encoded.
type ArgMode int

const (
	// ArgNone sends no argument field.
	ArgNone ArgMode = iota

	// ArgSingle sends the payload as arg{i}.
	ArgSingle

	// ArgMulti sends the ordered payload array as args{i}.
	ArgMulti
)

// String returns the mode name.
func (m ArgMode) String() string {
	switch m {
	case ArgNone:
		return "none"
	case ArgSingle:
		return "single"
	case ArgMulti:
		return "multi"
	default:
		return fmt.Sprintf("ArgMode(%d)", int(m))
	}
}

// MarshalText encodes the mode by name.
func (m ArgMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *ArgMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*m = ArgNone
	case "single":
		*m = ArgSingle
	case "multi":
		*m = ArgMulti
	default:
		return fmt.Errorf("%w: %q", ErrUnknownArgMode, text)
	}

	return nil
}

// Method is one entry of a resource's dispatch table.
type Method struct {
	Name   string     `json:"name"             yaml:"name"`
	Kind   MethodKind `json:"kind"             yaml:"kind"`
	Mode   ArgMode    `json:"mode"             yaml:"mode"`
	Params []string   `json:"params,omitempty" yaml:"params,omitempty"`
}

// Arity returns the number of arguments the method accepts.
func (m Method) Arity() int {
	switch m.Mode {
	case ArgSingle:
		return 1
	case ArgMulti:
		return len(m.Params)
	default:
		return 0
	}
}

// Result is what a resource call returns.
//
// For a dispatched call Value holds, depending on the meta setting and the
// response, the raw body as a string, the full decoded document, or the single
// unwrapped payload. For a call staged into an open multi-action, Staged is
// true and Index is the slot the action occupies in the batch.
type Result struct {
	Value      interface{} `json:"value"`
	Body       []byte      `json:"-"`
	StatusCode int         `json:"status_code,omitempty"`
	Staged     bool        `json:"staged,omitempty"`
	Index      int         `json:"index,omitempty"`
}
