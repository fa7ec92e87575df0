package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/foundation-client/cmd/foundation/commands"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

func TestNewSchemaCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewSchemaCommand()
	assert.Equal(t, "schema", cmd.Use)

	commandNames := make([]string, 0)
	for _, subcmd := range cmd.Commands() {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.ElementsMatch(t, []string{"export", "validate"}, commandNames)
}

func TestResourcesCommand(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	output, err := execute(t, commands.NewResourcesCommand())
	require.NoError(t, err)

	assert.Contains(t, output, "Gadget")
	assert.Contains(t, output, "Widget")
}

func TestResourcesCommand_JSON(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, map[string]interface{}{"output": "json"})

	output, err := execute(t, commands.NewResourcesCommand())
	require.NoError(t, err)

	var definitions []foundation.ResourceDefinition

	require.NoError(t, json.Unmarshal([]byte(output), &definitions))
	require.Len(t, definitions, 2)
	assert.Equal(t, "Gadget", definitions[0].Type)
	assert.Equal(t, "Widget", definitions[1].Type)
}

func TestDescribeCommand(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, map[string]interface{}{"output": "json"})

	output, err := execute(t, commands.NewDescribeCommand(), "Widget")
	require.NoError(t, err)

	var methods []foundation.Method

	require.NoError(t, json.Unmarshal([]byte(output), &methods))

	names := make([]string, 0, len(methods))
	for _, method := range methods {
		names = append(names, method.Name)
	}

	assert.Equal(t, []string{"set", "getName", "setName", "move", "upload"}, names)
	assert.Equal(t, foundation.ArgMulti, methods[3].Mode)
}

func TestDescribeCommand_UnknownType(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	_, err := execute(t, commands.NewDescribeCommand(), "Sprocket")
	require.Error(t, err)
	assert.True(t, foundation.IsUnknownResource(err))
}

func TestCallCommand_Getter(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, map[string]interface{}{"no-meta": true})

	output, err := execute(t, commands.NewCallCommand(), "Widget", "getName", "--id", "1")
	require.NoError(t, err)

	assert.Equal(t, "gizmo\n", output)

	request := requireSingleRequest(t, server)
	assert.Equal(t, "Widget/1", request.Path)
	assert.Equal(t, "getName", request.Fields["action0"])
	assert.Equal(t, "1", request.Fields["donotincludemeta"])
	assert.Equal(t, "secret", request.Fields["apikey"])
}

func TestCallCommand_Arguments(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		fields map[string]string
	}{
		{
			name:   "plain string",
			args:   []string{"setName", "hello"},
			fields: map[string]string{"action0": "setName", "arg0": "hello"},
		},
		{
			name:   "json object",
			args:   []string{"setName", `{"first":"Ada","n":1}`},
			fields: map[string]string{"action0": "setName", "arg0": `{"first":"Ada","n":1}`},
		},
		{
			name:   "multi parameter action",
			args:   []string{"move", "3", "true"},
			fields: map[string]string{"action0": "move", "args0": "[3,true]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newCLIServer(t)
			useServer(t, server, nil)

			_, err := execute(t, commands.NewCallCommand(), append([]string{"Widget", "--id", "1"}, tt.args...)...)
			require.NoError(t, err)

			request := requireSingleRequest(t, server)
			for name, value := range tt.fields {
				assert.Equal(t, value, request.Fields[name], name)
			}
		})
	}
}

func TestCallCommand_Attachment(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("quarterly"), 0o600))

	_, err := execute(t, commands.NewCallCommand(), "Widget", "upload", "--id", "1", "@"+path, "Q3")
	require.NoError(t, err)

	request := requireSingleRequest(t, server)
	assert.Equal(t, "upload", request.Fields["action0"])
	assert.Equal(t, `[null,"Q3"]`, request.Fields["args0"])
	assert.Equal(t, "report.txt:quarterly", request.Files["document"])
}

func TestCallCommand_UnknownMethod(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	_, err := execute(t, commands.NewCallCommand(), "Widget", "explode", "--id", "1")
	require.ErrorIs(t, err, foundation.ErrUnknownMethod)
	assert.Empty(t, server.resourceRequests())
}

func TestBatchCommand(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, map[string]interface{}{"no-meta": true, "output": "json"})

	path := filepath.Join(t.TempDir(), "calls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- method: setName
  args: [gizmo]
- method: getName
`), 0o600))

	output, err := execute(t, commands.NewBatchCommand(), "Widget", "--id", "1", "--file", path)
	require.NoError(t, err)

	request := requireSingleRequest(t, server)
	assert.Equal(t, "setName", request.Fields["action0"])
	assert.Equal(t, "gizmo", request.Fields["arg0"])
	assert.Equal(t, "getName", request.Fields["action1"])
	assert.NotContains(t, request.Fields, "arg1")

	assert.JSONEq(t, `[{"ok":true},"gizmo"]`, output)
}

func TestBatchCommand_InvalidFile(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	path := filepath.Join(t.TempDir(), "calls.yaml")

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	_, err := execute(t, commands.NewBatchCommand(), "Widget", "--file", path)
	require.ErrorIs(t, err, commands.ErrEmptyBatch)

	require.NoError(t, os.WriteFile(path, []byte("- args: [1]"), 0o600))
	_, err = execute(t, commands.NewBatchCommand(), "Widget", "--file", path)
	require.ErrorIs(t, err, commands.ErrBatchMethodMissing)

	assert.Empty(t, server.resourceRequests())
}

func TestBatchCommand_StagingFailureSendsNothing(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	path := filepath.Join(t.TempDir(), "calls.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- method: setName\n  args: [a]\n- method: explode\n"), 0o600))

	_, err := execute(t, commands.NewBatchCommand(), "Widget", "--id", "1", "--file", path)
	require.ErrorIs(t, err, foundation.ErrUnknownMethod)
	assert.Empty(t, server.resourceRequests())
}

func TestSchemaExportValidateGenerate(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, nil)

	dir := t.TempDir()
	snapshot := filepath.Join(dir, "schema.yaml")

	_, err := execute(t, commands.NewSchemaCommand(), "export", "--file", snapshot)
	require.NoError(t, err)
	require.FileExists(t, snapshot)

	output, err := execute(t, commands.NewSchemaCommand(), "validate", snapshot)
	require.NoError(t, err)
	assert.Equal(t, "Snapshot is valid: 2 resources\n", output)

	source, err := execute(t, commands.NewGenerateCommand(), "--snapshot", snapshot, "--package", "widgets")
	require.NoError(t, err)
	assert.Contains(t, source, "package widgets")
	assert.Contains(t, source, "type Widget struct")
	assert.Contains(t, source, "func (r *Widget) Move(ctx context.Context, x interface{}, y interface{}) (*foundation.Result, error)")
}

func TestSchemaValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":[{"meta":{}}]}`), 0o600))

	_, err := execute(t, commands.NewSchemaCommand(), "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestGenerateCommand_RequiresFlags(t *testing.T) {
	_, err := execute(t, commands.NewGenerateCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestVersionCommand(t *testing.T) {
	useServer(t, newCLIServer(t), map[string]interface{}{"output": "yaml"})

	output, err := execute(t, commands.NewVersionCommand("1.2.3", "abc", "today"))
	require.NoError(t, err)
	assert.Contains(t, output, "version: 1.2.3")
	assert.Contains(t, output, "commit: abc")
}

func TestConfigShowCommand(t *testing.T) {
	server := newCLIServer(t)
	useServer(t, server, map[string]interface{}{"output": "json", "cache": "memory"})

	output, err := execute(t, commands.NewConfigCommand(), "show")
	require.NoError(t, err)

	var config commands.Config

	require.NoError(t, json.Unmarshal([]byte(output), &config))
	assert.Equal(t, server.URL, config.Host)
	assert.Equal(t, "***", config.APIKey)
	assert.Equal(t, "memory", config.Cache)
	assert.Empty(t, server.resourceRequests())
}
