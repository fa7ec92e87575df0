// Package codegen renders strongly typed wrappers for discovered resources
// from a schema snapshot. Each wrapper embeds foundation.Resource and adds one
// method per declared getter, setter and action with the declared arity.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"reflect"
	"sort"
	"strconv"
	"text/template"

	"github.com/fivetwenty-io/foundation-client/internal/client"
	"github.com/fivetwenty-io/foundation-client/internal/naming"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Static errors for err113 compliance.
var (
	ErrPackageRequired = errors.New("package name is required")
	ErrNameCollision   = errors.New("generated names collide")
)

const (
	// receiver is the receiver name used by generated methods.
	receiver = "r"

	// reservedSuffix is appended to a method name that would shadow a
	// promoted foundation.Resource method or the embedded field.
	reservedSuffix = "Method"
)

var reservedNames = func() map[string]bool {
	resource := reflect.TypeOf((*foundation.Resource)(nil)).Elem()

	names := map[string]bool{"Resource": true}
	for i := range resource.NumMethod() {
		names[resource.Method(i).Name] = true
	}

	return names
}()

type methodData struct {
	GoName string
	Name   string
	Kind   foundation.MethodKind
	Params []string
}

type resourceData struct {
	GoName  string
	Type    string
	Methods []methodData
}

type fileData struct {
	Package   string
	Resources []resourceData
}

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by foundation generate. DO NOT EDIT.

package {{ .Package }}

import (
	"context"

	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)
{{ range .Resources }}
// {{ .GoName }} wraps the {{ .Type }} resource.
type {{ .GoName }} struct {
	foundation.Resource
}

// New{{ .GoName }} returns a {{ .Type }} handle bound to id when id is not empty.
func New{{ .GoName }}(ctx context.Context, client foundation.Client, id string) (*{{ .GoName }}, error) {
	resource, err := client.Resource(ctx, {{ printf "%q" .Type }}, id)
	if err != nil {
		return nil, err
	}

	return &{{ .GoName }}{Resource: resource}, nil
}
{{ $type := .GoName }}{{ range .Methods }}
// {{ .GoName }} calls the {{ .Name }} {{ .Kind }}.
func (r *{{ $type }}) {{ .GoName }}(ctx context.Context{{ range .Params }}, {{ . }} interface{}{{ end }}) (*foundation.Result, error) {
	return r.Call(ctx, {{ printf "%q" .Name }}{{ range .Params }}, {{ . }}{{ end }})
}
{{ end }}{{ end }}`))

// Generate renders one wrapper type per definition, sorted by type name, as
// gofmt-formatted Go source in package pkg.
func Generate(pkg string, definitions []foundation.ResourceDefinition) ([]byte, error) {
	if pkg == "" {
		return nil, ErrPackageRequired
	}

	if len(definitions) == 0 {
		return nil, foundation.ErrEmptyCatalog
	}

	sorted := make([]foundation.ResourceDefinition, len(definitions))
	copy(sorted, definitions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })

	data := fileData{Package: pkg}
	typeNames := make(map[string]string)

	for _, definition := range sorted {
		resource, err := buildResource(definition)
		if err != nil {
			return nil, err
		}

		if other, ok := typeNames[resource.GoName]; ok {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrNameCollision, other, definition.Type, resource.GoName)
		}

		typeNames[resource.GoName] = definition.Type
		data.Resources = append(data.Resources, resource)
	}

	var buf bytes.Buffer

	err := fileTemplate.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("rendering wrappers: %w", err)
	}

	source, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}

	return source, nil
}

func buildResource(definition foundation.ResourceDefinition) (resourceData, error) {
	methods, err := client.BuildTable(definition)
	if err != nil {
		return resourceData{}, err
	}

	resource := resourceData{
		GoName: naming.GoIdentifier(definition.Type),
		Type:   definition.Type,
	}

	seen := make(map[string]string)

	for _, method := range methods {
		// set is promoted from the embedded foundation.Resource.
		if method.Kind == foundation.MethodKindSet {
			continue
		}

		goName := naming.GoIdentifier(method.Name)
		if reservedNames[goName] {
			goName += reservedSuffix
		}

		if other, ok := seen[goName]; ok {
			return resourceData{}, fmt.Errorf("%w: %s.%s and %s.%s both map to %s",
				ErrNameCollision, definition.Type, other, definition.Type, method.Name, goName)
		}

		seen[goName] = method.Name

		resource.Methods = append(resource.Methods, methodData{
			GoName: goName,
			Name:   method.Name,
			Kind:   method.Kind,
			Params: params(method),
		})
	}

	return resource, nil
}

// params returns unique Go parameter names in declared order.
func params(method foundation.Method) []string {
	declared := method.Params
	if method.Kind == foundation.MethodKindSetter {
		declared = []string{"value"}
	}

	out := make([]string, 0, len(declared))
	used := map[string]bool{receiver: true}

	for i, name := range declared {
		param := naming.GoParam(name)

		if used[param] {
			param = param + strconv.Itoa(i)
		}

		used[param] = true
		out = append(out, param)
	}

	return out
}
