package http

// Field is one form field.
type Field struct {
	Name  string
	Value string
}

// File is one multipart file part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Form is an ordered multipart form body.
type Form struct {
	fields []Field
	index  map[string]int
	files  []File
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{index: make(map[string]int)}
}

// Set sets name to value, keeping the position of an existing field.
func (f *Form) Set(name, value string) {
	if f.index == nil {
		f.index = make(map[string]int)
	}

	if i, ok := f.index[name]; ok {
		f.fields[i].Value = value

		return
	}

	f.index[name] = len(f.fields)
	f.fields = append(f.fields, Field{Name: name, Value: value})
}

// Get returns the value of name.
func (f *Form) Get(name string) (string, bool) {
	i, ok := f.index[name]
	if !ok {
		return "", false
	}

	return f.fields[i].Value, true
}

// Has reports whether name is set.
func (f *Form) Has(name string) bool {
	_, ok := f.index[name]

	return ok
}

// Attach adds a file part.
func (f *Form) Attach(file File) {
	f.files = append(f.files, file)
}

// Fields returns the fields in insertion order.
func (f *Form) Fields() []Field {
	out := make([]Field, len(f.fields))
	copy(out, f.fields)

	return out
}

// Files returns the file parts in insertion order.
func (f *Form) Files() []File {
	out := make([]File, len(f.files))
	copy(out, f.files)

	return out
}

// Values returns the fields as a map.
func (f *Form) Values() map[string]string {
	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		values[field.Name] = field.Value
	}

	return values
}

// Clone returns a deep copy.
func (f *Form) Clone() *Form {
	clone := NewForm()
	for _, field := range f.fields {
		clone.Set(field.Name, field.Value)
	}

	clone.files = append(clone.files, f.files...)

	return clone
}
