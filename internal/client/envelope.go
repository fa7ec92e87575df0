package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	fdhttp "github.com/fivetwenty-io/foundation-client/internal/http"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

var (
	errAttachmentInArray = errors.New("attachments inside a multi argument must be top level")
	errNestedAttachment  = errors.New("attachments must be top level map or list values")
)

// Envelope is the field set sent in one POST: auth fields first, then the
// action{i} and arg{i}/args{i} fields of every staged call, then file parts.
type Envelope struct {
	form *fdhttp.Form
}

// NewEnvelope seeds an envelope with the auth fields, sorted by name.
func NewEnvelope(auth map[string]string) *Envelope {
	form := fdhttp.NewForm()

	keys := make([]string, 0, len(auth))
	for key := range auth {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		form.Set(key, auth[key])
	}

	return &Envelope{form: form}
}

// Stage writes action{index} and its argument field.
func (e *Envelope) Stage(index int, method foundation.Method, args []foundation.Arg) error {
	slot := strconv.Itoa(index)

	e.form.Set(constants.FieldAction+slot, method.Name)

	switch method.Mode {
	case foundation.ArgNone:
		return nil
	case foundation.ArgSingle:
		return e.stageSingle(slot, args)
	case foundation.ArgMulti:
		return e.stageMulti(slot, method.Params, args)
	default:
		return fmt.Errorf("staging %s: unsupported argument mode %s", method.Name, method.Mode)
	}
}

// SuppressMeta marks the envelope with donotincludemeta=1.
func (e *Envelope) SuppressMeta() {
	e.form.Set(constants.FieldSuppressMeta, "1")
}

// Form returns a copy of the envelope as a transport form.
func (e *Envelope) Form() *fdhttp.Form {
	return e.form.Clone()
}

// Fields returns the non-file fields.
func (e *Envelope) Fields() map[string]string {
	return e.form.Values()
}

// Get returns one field.
func (e *Envelope) Get(name string) (string, bool) {
	return e.form.Get(name)
}

// Files returns the file parts.
func (e *Envelope) Files() []fdhttp.File {
	return e.form.Files()
}

// Clone returns an independent copy.
func (e *Envelope) Clone() *Envelope {
	return &Envelope{form: e.form.Clone()}
}

func (e *Envelope) stageSingle(slot string, args []foundation.Arg) error {
	field := constants.FieldArg + slot

	if len(args) == 0 || args[0].IsNil() {
		return nil
	}

	arg := args[0]

	if arg.Kind == foundation.ArgKindAttachment {
		e.attach(arg.Attachment, field)

		return nil
	}

	value, err := e.liftAttachments(arg.Value, field, true)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", field, err)
	}

	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", field, err)
	}

	e.form.Set(field, encoded)

	return nil
}

// stageMulti sends the arguments as one JSON array in declared parameter
// order. Attachments are lifted out into file parts named after their
// parameter and leave null at their position.
func (e *Envelope) stageMulti(slot string, params []string, args []foundation.Arg) error {
	field := constants.FieldArgs + slot
	values := make([]interface{}, len(args))

	for i, arg := range args {
		if arg.Kind == foundation.ArgKindAttachment {
			if arg.Attachment != nil {
				name := field + "_" + strconv.Itoa(i)
				if i < len(params) {
					name = params[i]
				}

				e.attach(arg.Attachment, name)
			}

			values[i] = nil

			continue
		}

		value, err := e.liftAttachments(arg.Value, field, false)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", field, err)
		}

		values[i] = value
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", field, err)
	}

	e.form.Set(field, string(encoded))

	return nil
}

// liftAttachments moves top level attachments of value into file parts and
// returns what is left to encode. Map entries are named by their key, in key
// order. Slice elements are named field_<i> and leave null at their position;
// with liftSlices false a slice holding an attachment is rejected instead.
// Attachments nested any deeper are rejected.
func (e *Envelope) liftAttachments(value interface{}, field string, liftSlices bool) (interface{}, error) {
	switch typed := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		rest := typed
		copied := false

		for _, key := range keys {
			attachment := asAttachment(typed[key])
			if attachment == nil {
				continue
			}

			if !copied {
				rest = make(map[string]interface{}, len(typed))
				for k, v := range typed {
					rest[k] = v
				}

				copied = true
			}

			e.attach(attachment, key)
			delete(rest, key)
		}

		for _, item := range rest {
			if containsAttachment(item) {
				return nil, errNestedAttachment
			}
		}

		return rest, nil
	case []interface{}:
		if !liftSlices {
			if containsAttachment(typed) {
				return nil, errAttachmentInArray
			}

			return value, nil
		}

		var rest []interface{}

		for i, item := range typed {
			attachment := asAttachment(item)
			if attachment == nil {
				if containsAttachment(item) {
					return nil, errNestedAttachment
				}

				continue
			}

			if rest == nil {
				rest = make([]interface{}, len(typed))
				copy(rest, typed)
			}

			e.attach(attachment, field+"_"+strconv.Itoa(i))
			rest[i] = nil
		}

		if rest == nil {
			return value, nil
		}

		return rest, nil
	default:
		return value, nil
	}
}

func (e *Envelope) attach(attachment *foundation.Attachment, defaultField string) {
	field := attachment.Field
	if field == "" {
		field = defaultField
	}

	e.form.Attach(fdhttp.File{
		Field:       field,
		Filename:    attachment.Filename,
		ContentType: attachment.ContentType,
		Content:     attachment.Content,
	})
}

func asAttachment(value interface{}) *foundation.Attachment {
	arg := foundation.ArgOf(value)
	if arg.Kind != foundation.ArgKindAttachment {
		return nil
	}

	return arg.Attachment
}

// containsAttachment reports whether value is or holds an attachment at any depth.
func containsAttachment(value interface{}) bool {
	if asAttachment(value) != nil {
		return true
	}

	switch typed := value.(type) {
	case []interface{}:
		for _, item := range typed {
			if containsAttachment(item) {
				return true
			}
		}
	case map[string]interface{}:
		for _, item := range typed {
			if containsAttachment(item) {
				return true
			}
		}
	}

	return false
}

// encodeValue sends strings raw and everything else as JSON.
func encodeValue(value interface{}) (string, error) {
	switch typed := value.(type) {
	case string:
		return typed, nil
	case json.RawMessage:
		return string(typed), nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshaling argument: %w", err)
	}

	return string(encoded), nil
}
