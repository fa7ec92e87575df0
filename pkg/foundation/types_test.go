package foundation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

func TestDiscoveryDocument_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	body := `{"data":[
		{"type":"User","meta":{"getters":["getName"],"setters":["setName"],
			"actions":{"invite":{"parameters":[{"name":"email"},{"name":"role"}]}}}},
		{"type":"Log","meta":{"getters":[],"setters":[],"actions":[]}}
	]}`

	var document foundation.DiscoveryDocument

	require.NoError(t, json.Unmarshal([]byte(body), &document))
	require.Len(t, document.Data, 2)

	user := document.Data[0]
	assert.Equal(t, "User", user.Type)
	assert.Equal(t, []string{"getName"}, user.Meta.Getters)
	assert.Equal(t, []string{"email", "role"}, user.Meta.Actions["invite"].ParamNames())

	assert.NotNil(t, document.Data[1].Meta.Actions)
	assert.Empty(t, document.Data[1].Meta.Actions)
}

func TestActionMap_UnmarshalJSONRejectsScalars(t *testing.T) {
	t.Parallel()

	var actions foundation.ActionMap

	err := json.Unmarshal([]byte(`"nope"`), &actions)
	require.Error(t, err)
}

func TestActionMap_UnmarshalYAML(t *testing.T) {
	t.Parallel()

	var definitions []foundation.ResourceDefinition

	err := yaml.Unmarshal([]byte(`
- type: User
  meta:
    getters: [getName]
    actions:
      invite:
        parameters:
          - name: email
- type: Log
  meta:
    actions: []
`), &definitions)
	require.NoError(t, err)
	require.Len(t, definitions, 2)

	assert.Equal(t, []string{"email"}, definitions[0].Meta.Actions["invite"].ParamNames())
	assert.Empty(t, definitions[1].Meta.Actions)
}

func TestActionMap_Names(t *testing.T) {
	t.Parallel()

	actions := foundation.ActionMap{"zeta": {}, "alpha": {}, "mid": {}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, actions.Names())
}

func TestMethod_Arity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, foundation.Method{Mode: foundation.ArgNone}.Arity())
	assert.Equal(t, 1, foundation.Method{Mode: foundation.ArgSingle}.Arity())
	assert.Equal(t, 3, foundation.Method{Mode: foundation.ArgMulti, Params: []string{"a", "b", "c"}}.Arity())
}

func TestArgMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", foundation.ArgNone.String())
	assert.Equal(t, "single", foundation.ArgSingle.String())
	assert.Equal(t, "multi", foundation.ArgMulti.String())
	assert.Equal(t, "ArgMode(9)", foundation.ArgMode(9).String())
}

func TestArgMode_Text(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(foundation.Method{Name: "move", Kind: foundation.MethodKindAction, Mode: foundation.ArgMulti, Params: []string{"x"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"move","kind":"action","mode":"multi","params":["x"]}`, string(encoded))

	var method foundation.Method

	require.NoError(t, json.Unmarshal([]byte(`{"name":"getName","kind":"getter","mode":"none"}`), &method))
	assert.Equal(t, foundation.ArgNone, method.Mode)

	err = json.Unmarshal([]byte(`{"mode":"several"}`), &method)
	require.ErrorIs(t, err, foundation.ErrUnknownArgMode)
}
