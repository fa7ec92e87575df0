package foundation

import "fmt"

// ArgKind tags an argument value.
type ArgKind int

const (
	// ArgKindJSON values are JSON-encoded unless they are already strings.
	ArgKindJSON ArgKind = iota

	// ArgKindAttachment values are sent as raw multipart file fields.
	ArgKindAttachment
)

// Attachment is a binary upload passed through to the server as a file field.
// It is never JSON-encoded.
type Attachment struct {
	// Field overrides the form field name. When empty the encoder names the
	// field after the map key or declared parameter it was passed as.
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// NewAttachment creates an attachment with the given file name and content.
func NewAttachment(filename string, content []byte) *Attachment {
	return &Attachment{
		Filename: filename,
		Content:  content,
	}
}

// WithField sets the form field name.
func (a *Attachment) WithField(field string) *Attachment {
	a.Field = field

	return a
}

// MarshalJSON always fails: attachment content travels as a file part, never
// inside a JSON argument.
func (a Attachment) MarshalJSON() ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrAttachmentNotEncodable, a.Filename)
}

// WithContentType sets the part content type.
func (a *Attachment) WithContentType(contentType string) *Attachment {
	a.ContentType = contentType

	return a
}

// Arg is a tagged argument value: either a JSON value or an attachment.
type Arg struct {
	Kind       ArgKind
	Value      interface{}
	Attachment *Attachment
}

// JSONArg wraps a value that is sent JSON-encoded.
func JSONArg(value interface{}) Arg {
	return Arg{Kind: ArgKindJSON, Value: value}
}

// AttachmentArg wraps an attachment.
func AttachmentArg(attachment *Attachment) Arg {
	return Arg{Kind: ArgKindAttachment, Attachment: attachment}
}

// ArgOf tags a caller supplied value. Values already tagged are returned as is.
func ArgOf(value interface{}) Arg {
	switch typed := value.(type) {
	case Arg:
		return typed
	case *Attachment:
		if typed == nil {
			return JSONArg(nil)
		}

		return AttachmentArg(typed)
	case Attachment:
		return AttachmentArg(&typed)
	default:
		return JSONArg(value)
	}
}

// IsNil reports whether the argument carries nothing.
func (a Arg) IsNil() bool {
	if a.Kind == ArgKindAttachment {
		return a.Attachment == nil
	}

	return a.Value == nil
}
