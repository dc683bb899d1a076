package definition

// CurrentVersion is the only definition format version understood.
const CurrentVersion = 1

// Field types.
const (
	TypeText   = "text"
	TypeBool   = "bool"
	TypeChoice = "choice"
	TypeNumber = "number"
)

// Definition is a form described in YAML.
type Definition struct {
	Version        int     `yaml:"version"`
	Name           string  `yaml:"name"`
	Title          string  `yaml:"title,omitempty"`
	InitialStep    int     `yaml:"initial_step,omitempty"`
	ValidateOnInit bool    `yaml:"validate_on_init,omitempty"`
	Fields         []Field `yaml:"fields"`
	Steps          []Step  `yaml:"steps,omitempty"`
}

// Field describes one input. Key may be a nested path ("address.city").
type Field struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label,omitempty"`
	Type     string   `yaml:"type,omitempty"`    // text (default), bool, choice, number
	Default  any      `yaml:"default,omitempty"` // Initial value; zero value of Type when unset
	Required bool     `yaml:"required,omitempty"`
	Rules    string   `yaml:"rules,omitempty"`   // validator tag, e.g. "required,email"
	Pattern  string   `yaml:"pattern,omitempty"` // regular expression the text must match
	Options  []string `yaml:"options,omitempty"` // choices for type choice
	Message  string   `yaml:"message,omitempty"` // shown when the field is touched and invalid
	Secret   bool     `yaml:"secret,omitempty"`  // masked in terminal input and output
}

// Step groups fields shown together.
type Step struct {
	Title  string   `yaml:"title"`
	Fields []string `yaml:"fields"`
}

// DisplayLabel returns Label, or Key when no label is set.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// FieldType returns Type with the text default applied.
func (f Field) FieldType() string {
	if f.Type == "" {
		return TypeText
	}
	return f.Type
}

// ErrorMessage returns Message or a generic text.
func (f Field) ErrorMessage() string {
	if f.Message != "" {
		return f.Message
	}
	return f.DisplayLabel() + " is invalid"
}
