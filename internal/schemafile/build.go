package schemafile

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/records/pkg/record"
)

// Registry holds the schemas resolved from a set of documents. Types are
// derived lazily and cached, so every caller sees the same *record.Type for
// a schema name.
type Registry struct {
	mu      sync.Mutex
	docs    map[string]Document
	schemas map[string]*record.Schema
	types   map[string]*record.Type
}

// LoadDir parses every schema file under dir and resolves them.
func LoadDir(dir string) (*Registry, error) {
	docs, err := ParseDir(dir)
	if err != nil {
		return nil, err
	}
	return Build(docs)
}

// Build resolves documents into schemas. Documents may extend one another in
// any order; a missing base fails with ErrUnknownBase and a loop of extends
// with ErrExtendsCycle. Schema definition errors from package record are
// returned wrapped, so errors.Is matches their sentinels.
func Build(docs []Document) (*Registry, error) {
	reg := &Registry{
		docs:    make(map[string]Document, len(docs)),
		schemas: make(map[string]*record.Schema, len(docs)),
		types:   make(map[string]*record.Type),
	}
	for _, doc := range docs {
		if prev, ok := reg.docs[doc.Name]; ok {
			return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateSchema, doc.Name, sourceOf(prev), sourceOf(doc))
		}
		reg.docs[doc.Name] = doc
	}

	for _, name := range reg.Names() {
		if _, err := reg.resolve(name, nil); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func sourceOf(doc Document) string {
	if doc.Source == "" {
		return "<input>"
	}
	return doc.Source
}

func (r *Registry) resolve(name string, chain []string) (*record.Schema, error) {
	if s, ok := r.schemas[name]; ok {
		return s, nil
	}
	if slices.Contains(chain, name) {
		return nil, fmt.Errorf("%w: %s", ErrExtendsCycle, strings.Join(append(chain, name), " -> "))
	}
	chain = append(chain, name)
	doc := r.docs[name]

	var (
		s   *record.Schema
		err error
	)
	if doc.Extends == "" {
		s, err = r.defineRoot(doc)
	} else {
		s, err = r.defineExtension(doc, chain)
	}
	if err != nil {
		return nil, err
	}
	r.schemas[name] = s
	return s, nil
}

func (r *Registry) defineRoot(doc Document) (*record.Schema, error) {
	fields, err := fieldSpecs(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", doc.Name, err)
	}
	s, err := record.DefineSchema(doc.Name, fields, doc.flags(record.DefaultFlags()))
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", doc.Name, err)
	}
	return s, nil
}

func (r *Registry) defineExtension(doc Document, chain []string) (*record.Schema, error) {
	if _, ok := r.docs[doc.Extends]; !ok {
		return nil, fmt.Errorf("schema %q: %w %q", doc.Name, ErrUnknownBase, doc.Extends)
	}
	base, err := r.resolve(doc.Extends, chain)
	if err != nil {
		return nil, err
	}

	additional, err := fieldSpecs(doc.Fields)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", doc.Name, err)
	}
	overrides := make(map[string]record.FieldSpec, len(doc.Overrides))
	for _, o := range doc.Overrides {
		var inherited *record.FieldSpec
		if bf, ok := base.Field(o.Name); ok {
			inherited = &bf
		}
		spec, err := fieldSpec(o, inherited)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", doc.Name, err)
		}
		overrides[o.Name] = spec
	}

	s, err := record.Extend(base, doc.Name, additional, overrides)
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", doc.Name, err)
	}
	if doc.setsFlags() {
		s, err = record.DefineSchema(doc.Name, s.Fields(), doc.flags(s.Flags()))
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", doc.Name, err)
		}
	}
	return s, nil
}

func fieldSpecs(docs []FieldDoc) ([]record.FieldSpec, error) {
	specs := make([]record.FieldSpec, 0, len(docs))
	for _, d := range docs {
		spec, err := fieldSpec(d, nil)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// fieldSpec converts a field document. For overrides, inherited supplies the
// type when the document leaves it out.
func fieldSpec(d FieldDoc, inherited *record.FieldSpec) (record.FieldSpec, error) {
	vt := record.ValueType(d.Type)
	if vt == "" && inherited != nil {
		vt = inherited.Type
	}

	var opts []record.FieldOption
	if d.HasDefault() {
		var v any
		if err := d.Default.Decode(&v); err != nil {
			return record.FieldSpec{}, fmt.Errorf("field %q: decode default: %w", d.Name, err)
		}
		v, err := record.Coerce(vt, v)
		if err != nil {
			return record.FieldSpec{}, fmt.Errorf("field %q: default: %w", d.Name, err)
		}
		opts = append(opts, record.Default(v))
	}
	if d.Factory != "" {
		fn, err := Factory(d.Factory)
		if err != nil {
			return record.FieldSpec{}, fmt.Errorf("field %q: %w", d.Name, err)
		}
		opts = append(opts, record.DefaultFactory(fn), record.Meta(FactoryKey, d.Factory))
	}
	if d.Init != nil && !*d.Init {
		opts = append(opts, record.NoInit())
	}
	if d.Repr != nil && !*d.Repr {
		opts = append(opts, record.NoRepr())
	}
	if d.Compare != nil && !*d.Compare {
		opts = append(opts, record.NoCompare())
	}
	if d.Hash != nil {
		opts = append(opts, record.Hashed(*d.Hash))
	}
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, record.Meta(k, d.Metadata[k]))
	}

	return record.Field(d.Name, vt, opts...), nil
}

// Names returns the schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.docs))
	for name := range r.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schema returns the resolved schema for name.
func (r *Registry) Schema(name string) (*record.Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return s, nil
}

// Source returns the file the named schema was read from.
func (r *Registry) Source(name string) string {
	return r.docs[name].Source
}

// Type returns the derived type for name, deriving it on first use.
func (r *Registry) Type(name string) (*record.Type, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.types[name]; ok {
		return t, nil
	}
	s, err := r.Schema(name)
	if err != nil {
		return nil, err
	}
	t, err := record.Derive(s)
	if err != nil {
		return nil, err
	}
	r.types[name] = t
	return t, nil
}

// Types derives every schema in the registry, in name order.
func (r *Registry) Types() ([]*record.Type, error) {
	var out []*record.Type
	for _, name := range r.Names() {
		t, err := r.Type(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
