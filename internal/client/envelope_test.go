package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fdhttp "github.com/fivetwenty-io/foundation-client/internal/http"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

func fileFields(files []fdhttp.File) []string {
	fields := make([]string, 0, len(files))
	for _, file := range files {
		fields = append(fields, file.Field)
	}

	return fields
}

func TestEnvelope_StageSingleAttachments(t *testing.T) {
	t.Parallel()

	set := foundation.Method{Name: "set", Kind: foundation.MethodKindSet, Mode: foundation.ArgSingle}
	report := foundation.NewAttachment("r.pdf", []byte("PDFDATA"))
	logo := foundation.NewAttachment("logo.png", []byte("PNG"))

	tests := []struct {
		name      string
		value     interface{}
		wantArg   string
		wantFiles []string
		wantErr   error
	}{
		{
			name:      "list elements become file parts",
			value:     []interface{}{"q3", report},
			wantArg:   `["q3",null]`,
			wantFiles: []string{"arg0_1"},
		},
		{
			name:      "map entries attach in key order",
			value:     map[string]interface{}{"report": report, "logo": logo, "name": "gizmo"},
			wantArg:   `{"name":"gizmo"}`,
			wantFiles: []string{"logo", "report"},
		},
		{
			name:    "attachment nested in a map is rejected",
			value:   map[string]interface{}{"meta": map[string]interface{}{"file": report}},
			wantErr: errNestedAttachment,
		},
		{
			name:    "attachment in a list inside a map is rejected",
			value:   map[string]interface{}{"files": []interface{}{report}},
			wantErr: errNestedAttachment,
		},
		{
			name:    "attachment in a nested list is rejected",
			value:   []interface{}{[]interface{}{report}},
			wantErr: errNestedAttachment,
		},
		{
			name:    "typed attachment slice cannot be encoded",
			value:   []*foundation.Attachment{report},
			wantErr: foundation.ErrAttachmentNotEncodable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			envelope := NewEnvelope(nil)

			err := envelope.Stage(0, set, []foundation.Arg{foundation.JSONArg(tt.value)})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)

			arg, ok := envelope.Get("arg0")
			require.True(t, ok)
			assert.JSONEq(t, tt.wantArg, arg)
			assert.Equal(t, tt.wantFiles, fileFields(envelope.Files()))
		})
	}
}

func TestEnvelope_StageMultiNestedAttachment(t *testing.T) {
	t.Parallel()

	upload := foundation.Method{
		Name:   "upload",
		Kind:   foundation.MethodKindAction,
		Mode:   foundation.ArgMulti,
		Params: []string{"document", "label"},
	}

	envelope := NewEnvelope(nil)

	err := envelope.Stage(0, upload, []foundation.Arg{
		foundation.JSONArg(map[string]interface{}{"meta": map[string]interface{}{"file": foundation.NewAttachment("x", nil)}}),
		foundation.JSONArg("a"),
	})
	require.ErrorIs(t, err, errNestedAttachment)
}

func TestEnvelope_MapAttachmentOrderIsStable(t *testing.T) {
	t.Parallel()

	set := foundation.Method{Name: "set", Kind: foundation.MethodKindSet, Mode: foundation.ArgSingle}
	value := map[string]interface{}{}

	for _, key := range []string{"e", "b", "d", "a", "c"} {
		value[key] = foundation.NewAttachment(key+".bin", []byte(key))
	}

	for range 20 {
		envelope := NewEnvelope(nil)

		require.NoError(t, envelope.Stage(0, set, []foundation.Arg{foundation.JSONArg(value)}))
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, fileFields(envelope.Files()))
	}
}
