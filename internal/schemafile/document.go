// Package schemafile reads record schemas from YAML files and resolves them,
// including extends chains across files, into record.Schema values.
package schemafile

import (
	"errors"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/records/pkg/record"
)

// Document is the YAML form of one schema. A file may hold several
// documents separated by "---".
type Document struct {
	Name       string     `yaml:"name"`
	Extends    string     `yaml:"extends,omitempty"`
	Init       *bool      `yaml:"init,omitempty"`
	Repr       *bool      `yaml:"repr,omitempty"`
	Eq         *bool      `yaml:"eq,omitempty"`
	Order      *bool      `yaml:"order,omitempty"`
	Frozen     *bool      `yaml:"frozen,omitempty"`
	UnsafeHash *bool      `yaml:"unsafe_hash,omitempty"`
	Fields     []FieldDoc `yaml:"fields"`
	Overrides  []FieldDoc `yaml:"overrides,omitempty"`

	// Source is the file the document was read from, if any.
	Source string `yaml:"-"`
}

// FieldDoc is the YAML form of one field.
type FieldDoc struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type,omitempty"`
	Default  yaml.Node      `yaml:"default,omitempty"`
	Factory  string         `yaml:"factory,omitempty"`
	Init     *bool          `yaml:"init,omitempty"`
	Repr     *bool          `yaml:"repr,omitempty"`
	Compare  *bool          `yaml:"compare,omitempty"`
	Hash     *bool          `yaml:"hash,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// HasDefault reports whether the document sets a default, including an
// explicit null.
func (f FieldDoc) HasDefault() bool {
	return f.Default.Kind != 0
}

// Errors returned while reading and resolving schema documents.
var (
	ErrInvalidDocument = errors.New("invalid schema document")
	ErrDuplicateSchema = errors.New("duplicate schema name")
	ErrUnknownBase     = errors.New("extends unknown schema")
	ErrExtendsCycle    = errors.New("extends cycle")
	ErrUnknownFactory  = errors.New("unknown factory")
	ErrUnknownSchema   = errors.New("unknown schema")
)

// flags applies the document's explicit flag settings on top of base.
func (d Document) flags(base record.Flags) record.Flags {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&base.Init, d.Init)
	set(&base.Repr, d.Repr)
	set(&base.Eq, d.Eq)
	set(&base.Order, d.Order)
	set(&base.Frozen, d.Frozen)
	set(&base.UnsafeHash, d.UnsafeHash)
	return base
}

// setsFlags reports whether any flag is given explicitly.
func (d Document) setsFlags() bool {
	for _, v := range []*bool{d.Init, d.Repr, d.Eq, d.Order, d.Frozen, d.UnsafeHash} {
		if v != nil {
			return true
		}
	}
	return false
}
