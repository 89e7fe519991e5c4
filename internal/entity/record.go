package entity

// Field is a single scraped attribute. A nil Value is stored as NULL.
type Field struct {
	Name  string
	Value *string
}

// Record is one scraped entity (e.g. one equipment model's specs).
// Fields keep their insertion order, which decides collision suffixes
// when two names normalize to the same column.
type Record struct {
	Fields []Field
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{}
}

// Set stores a value under name. Setting an existing name replaces its
// value in place and keeps the original position.
func (r *Record) Set(name, value string) *Record {
	v := value
	return r.SetPtr(name, &v)
}

// SetNull stores an explicit NULL under name.
func (r *Record) SetNull(name string) *Record {
	return r.SetPtr(name, nil)
}

// SetPtr stores value (possibly nil) under name.
func (r *Record) SetPtr(name string, value *string) *Record {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return r
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
	return r
}

// Get returns the value stored under the exact raw name.
func (r *Record) Get(name string) (*string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.Fields)
}

// Names returns the raw field names in order.
func (r *Record) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}
