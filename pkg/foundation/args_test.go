package foundation_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

func TestArgOf(t *testing.T) {
	t.Parallel()

	attachment := foundation.NewAttachment("a.txt", []byte("hi")).WithField("file").WithContentType("text/plain")

	pointer := foundation.ArgOf(attachment)
	assert.Equal(t, foundation.ArgKindAttachment, pointer.Kind)
	assert.Same(t, attachment, pointer.Attachment)
	assert.Equal(t, "file", pointer.Attachment.Field)
	assert.Equal(t, "text/plain", pointer.Attachment.ContentType)

	value := foundation.ArgOf(*attachment)
	assert.Equal(t, foundation.ArgKindAttachment, value.Kind)
	assert.Equal(t, "a.txt", value.Attachment.Filename)

	tagged := foundation.JSONArg(42)
	assert.Equal(t, tagged, foundation.ArgOf(tagged))

	plain := foundation.ArgOf(map[string]interface{}{"a": 1})
	assert.Equal(t, foundation.ArgKindJSON, plain.Kind)

	var nilAttachment *foundation.Attachment
	assert.True(t, foundation.ArgOf(nilAttachment).IsNil())
	assert.True(t, foundation.ArgOf(nil).IsNil())
	assert.True(t, foundation.AttachmentArg(nil).IsNil())
	assert.False(t, foundation.ArgOf(false).IsNil())
}

func TestAttachment_MarshalJSON(t *testing.T) {
	t.Parallel()

	attachment := foundation.NewAttachment("r.pdf", []byte("PDF"))

	_, err := json.Marshal(attachment)
	require.ErrorIs(t, err, foundation.ErrAttachmentNotEncodable)

	_, err = json.Marshal(map[string]interface{}{"file": *attachment})
	require.ErrorIs(t, err, foundation.ErrAttachmentNotEncodable)

	var missing *foundation.Attachment

	encoded, err := json.Marshal(missing)
	require.NoError(t, err)
	assert.Equal(t, "null", string(encoded))
}
