package entity

// DefaultIdentity is used when a dataset does not declare its identity fields.
var DefaultIdentity = []string{"model", "category"}

// Dataset is one logical destination: a table plus the identity fields every
// record written to it must carry.
type Dataset struct {
	Name     string       `yaml:"name" json:"name"`
	Table    string       `yaml:"table" json:"table"`
	Identity []string     `yaml:"identity" json:"identity"`
	Source   SourceConfig `yaml:"source" json:"source"`
}

// IdentityFields returns the declared identity fields or DefaultIdentity.
func (d Dataset) IdentityFields() []string {
	if len(d.Identity) == 0 {
		return DefaultIdentity
	}
	return d.Identity
}

// SourceKind selects the extractor implementation.
type SourceKind string

const (
	SourceJSON SourceKind = "json"
	SourceHTML SourceKind = "html"
	SourceForm SourceKind = "form"
)

// FieldSelector maps a record field to a JSON path or a CSS selector.
type FieldSelector struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path,omitempty"`
	// Selector is a CSS selector; Attr reads an attribute instead of text.
	Selector string `yaml:"selector" json:"selector,omitempty"`
	Attr     string `yaml:"attr" json:"attr,omitempty"`
	// Prefix is prepended to a non-empty extracted value.
	Prefix string `yaml:"prefix" json:"prefix,omitempty"`
	// Value is the literal value of a static field.
	Value string `yaml:"value" json:"value,omitempty"`
}

// SpecsConfig describes an array of name/value objects (JSON) or label/value
// element pairs (HTML) flattened into record fields.
type SpecsConfig struct {
	Path  string `yaml:"path" json:"path,omitempty"`
	Name  string `yaml:"name" json:"name,omitempty"`
	Value string `yaml:"value" json:"value,omitempty"`
	Unit  string `yaml:"unit" json:"unit,omitempty"`

	RowSelector   string `yaml:"row_selector" json:"row_selector,omitempty"`
	LabelSelector string `yaml:"label_selector" json:"label_selector,omitempty"`
	ValueSelector string `yaml:"value_selector" json:"value_selector,omitempty"`
}

// SourceConfig configures a generic extractor.
type SourceConfig struct {
	Kind    SourceKind        `yaml:"kind" json:"kind"`
	URLs    []string          `yaml:"urls" json:"urls"`
	Method  string            `yaml:"method" json:"method,omitempty"`
	Headers map[string]string `yaml:"headers" json:"headers,omitempty"`
	Query   map[string]string `yaml:"query" json:"query,omitempty"`

	// json
	ItemsPath string          `yaml:"items_path" json:"items_path,omitempty"`
	Fields    []FieldSelector `yaml:"fields" json:"fields,omitempty"`
	Specs     SpecsConfig     `yaml:"specs" json:"specs"`
	Static    []FieldSelector `yaml:"static" json:"static,omitempty"`

	// html
	Render         bool   `yaml:"render" json:"render,omitempty"`
	WaitSelector   string `yaml:"wait_selector" json:"wait_selector,omitempty"`
	ExpandSelector string `yaml:"expand_selector" json:"expand_selector,omitempty"`
	SourceURLField string `yaml:"source_url_field" json:"source_url_field,omitempty"`

	// form
	Form         map[string]string `yaml:"form" json:"form,omitempty"`
	PageParam    string            `yaml:"page_param" json:"page_param,omitempty"`
	StartPage    int               `yaml:"start_page" json:"start_page,omitempty"`
	MaxPages     int               `yaml:"max_pages" json:"max_pages,omitempty"`
	ItemSelector string            `yaml:"item_selector" json:"item_selector,omitempty"`
}
