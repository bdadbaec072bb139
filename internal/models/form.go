package models

// Form lifecycle statuses.
const (
	StatusPending  = "pending"
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// Field is a single named, typed input definition within a form.
type Field struct {
	Identifier    string   `json:"identifier" yaml:"identifier"`
	Type          string   `json:"type" yaml:"type"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Required      bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Options       []string `json:"options,omitempty" yaml:"options,omitempty"`
	RestrictRead  bool     `json:"restrict_read,omitempty" yaml:"restrict_read,omitempty"`
	RestrictWrite bool     `json:"restrict_write,omitempty" yaml:"restrict_write,omitempty"`
}

// Form is an ordering template. Field order is presentation order.
type Form struct {
	ID          string  `json:"iuid"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Owner       string  `json:"owner"`
	Fields      []Field `json:"fields"`
	Created     string  `json:"created"`
	Modified    string  `json:"modified"`
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	c := *f
	c.Fields = CloneFields(f.Fields)
	return &c
}

// CloneFields deep-copies a field sequence.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		if f.Options != nil {
			out[i].Options = append([]string(nil), f.Options...)
		}
	}
	return out
}
