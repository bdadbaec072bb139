// Package fields manages the ordered field list of a form.
//
// A Collection keeps fields in presentation order and looks them up by
// identifier. Identifiers are unique for fields added through Add; Copy
// appends verbatim and may introduce duplicates, in which case lookups,
// updates and deletes act on the first match.
package fields

import (
	"regexp"
	"strings"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/models"
)

// Field types.
const (
	TypeString      = "string"
	TypeEmail       = "email"
	TypeInt         = "int"
	TypeFloat       = "float"
	TypeBoolean     = "boolean"
	TypeURL         = "url"
	TypeSelect      = "select"
	TypeMultiselect = "multiselect"
	TypeText        = "text"
	TypeDate        = "date"
	TypeTable       = "table"
	TypeFile        = "file"
	TypeGroup       = "group"
)

// ActionDeleted is the action recorded for a removed field.
const ActionDeleted = "deleted"

var identifierRx = regexp.MustCompile(`^[a-zA-Z][_a-zA-Z0-9]*$`)

var typeList = []string{
	TypeString, TypeEmail, TypeInt, TypeFloat, TypeBoolean, TypeURL, TypeSelect,
	TypeMultiselect, TypeText, TypeDate, TypeTable, TypeFile, TypeGroup,
}

var types = func() map[string]bool {
	m := make(map[string]bool, len(typeList))
	for _, t := range typeList {
		m[t] = true
	}
	return m
}()

// Types returns the field types in presentation order.
func Types() []string {
	return append([]string(nil), typeList...)
}

// ValidIdentifier reports whether s is an acceptable field identifier.
func ValidIdentifier(s string) bool {
	return identifierRx.MatchString(s)
}

// ValidType reports whether t is one of the field types.
func ValidType(t string) bool {
	return types[t]
}

// Attributes are the mutable properties of a field.
type Attributes struct {
	Type          string
	Label         string
	Description   string
	Required      bool
	Options       []string
	RestrictRead  bool
	RestrictWrite bool
}

// Removal records a deleted field for the audit log.
type Removal struct {
	Identifier string `json:"identifier"`
	Action     string `json:"action"`
}

// Collection is an ordered field list keyed by identifier.
type Collection struct {
	items []models.Field
	index map[string]int
}

// New wraps a copy of the given field sequence.
func New(items []models.Field) *Collection {
	c := &Collection{items: models.CloneFields(items)}
	if c.items == nil {
		c.items = []models.Field{}
	}
	c.reindex()
	return c
}

func (c *Collection) reindex() {
	c.index = make(map[string]int, len(c.items))
	for i := len(c.items) - 1; i >= 0; i-- {
		c.index[c.items[i].Identifier] = i
	}
}

// Len returns the number of fields.
func (c *Collection) Len() int {
	return len(c.items)
}

// Contains reports whether a field with the identifier exists.
func (c *Collection) Contains(identifier string) bool {
	_, ok := c.index[identifier]
	return ok
}

// Get returns the first field with the identifier.
func (c *Collection) Get(identifier string) (models.Field, bool) {
	i, ok := c.index[identifier]
	if !ok {
		return models.Field{}, false
	}
	return c.items[i], true
}

// List returns a copy of the field sequence in order.
func (c *Collection) List() []models.Field {
	return models.CloneFields(c.items)
}

// Add appends a new field and returns the updated sequence.
func (c *Collection) Add(identifier string, attrs Attributes) ([]models.Field, error) {
	if !ValidIdentifier(identifier) {
		return nil, apperr.Validation("invalid identifier")
	}
	if !ValidType(attrs.Type) {
		return nil, apperr.Validation("invalid type")
	}
	if c.Contains(identifier) {
		return nil, apperr.Conflict("identifier already exists")
	}
	c.items = append(c.items, build(identifier, attrs))
	c.index[identifier] = len(c.items) - 1
	return c.List(), nil
}

// Update replaces the attributes of an existing field in place.
func (c *Collection) Update(identifier string, attrs Attributes) ([]models.Field, error) {
	i, ok := c.index[identifier]
	if !ok {
		return nil, apperr.NotFound("no such field")
	}
	if !ValidType(attrs.Type) {
		return nil, apperr.Validation("invalid type")
	}
	c.items[i] = build(identifier, attrs)
	return c.List(), nil
}

// Delete removes the first field with the identifier.
func (c *Collection) Delete(identifier string) (Removal, error) {
	i, ok := c.index[identifier]
	if !ok {
		return Removal{}, apperr.NotFound("no such field")
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.reindex()
	return Removal{Identifier: identifier, Action: ActionDeleted}, nil
}

// Copy appends a field verbatim without checking identifier uniqueness.
func (c *Collection) Copy(field models.Field) {
	f := models.CloneFields([]models.Field{field})[0]
	c.items = append(c.items, f)
	if _, ok := c.index[f.Identifier]; !ok {
		c.index[f.Identifier] = len(c.items) - 1
	}
}

func build(identifier string, attrs Attributes) models.Field {
	f := models.Field{
		Identifier:    identifier,
		Type:          attrs.Type,
		Label:         strings.TrimSpace(attrs.Label),
		Description:   strings.TrimSpace(attrs.Description),
		Required:      attrs.Required,
		RestrictRead:  attrs.RestrictRead,
		RestrictWrite: attrs.RestrictWrite,
	}
	if attrs.Type == TypeSelect || attrs.Type == TypeMultiselect {
		f.Options = cleanOptions(attrs.Options)
	}
	return f
}

func cleanOptions(opts []string) []string {
	var out []string
	for _, o := range opts {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AttributesOf returns the mutable properties of an existing field.
func AttributesOf(f models.Field) Attributes {
	return Attributes{
		Type:          f.Type,
		Label:         f.Label,
		Description:   f.Description,
		Required:      f.Required,
		Options:       f.Options,
		RestrictRead:  f.RestrictRead,
		RestrictWrite: f.RestrictWrite,
	}
}
