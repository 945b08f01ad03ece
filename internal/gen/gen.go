// Package gen renders a record schema as Go source: a struct with a
// constructor, functional options for defaulted fields and the equality,
// ordering and representation methods the schema's flags ask for.
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/mesh-intelligence/records/internal/schemafile"
	"github.com/mesh-intelligence/records/pkg/record"
)

// Generator errors.
var (
	ErrNoPackage          = errors.New("package name is required")
	ErrNilSchema          = errors.New("schema is nil")
	ErrUnorderableField   = errors.New("field type has no order")
	ErrUnsupportedDefault = errors.New("default cannot be written as Go source")
	ErrNameCollision      = errors.New("generated name collides")
)

// Options configure Generate.
type Options struct {
	Package string // Package clause of the generated file; required.
	Source  string // Shown in the generated header when set.

	// PostInit makes the constructor call r.postInit(), a method the
	// caller writes in a separate file of the same package.
	PostInit bool
}

// reserved are method names the generated type may define itself.
var reserved = map[string]bool{"Equal": true, "Compare": true, "String": true}

var tmpl = template.Must(template.New("record").Funcs(sprig.TxtFuncMap()).Parse(recordTemplate))

// Generate renders s as a gofmt-formatted Go source file.
func Generate(s *record.Schema, opts Options) ([]byte, error) {
	if s == nil {
		return nil, ErrNilSchema
	}
	if opts.Package == "" {
		return nil, ErrNoPackage
	}

	m, err := newModel(s, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, m); err != nil {
		return nil, fmt.Errorf("render %s: %w", s.Name(), err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", s.Name(), err)
	}
	return out, nil
}

// model is the template input for one schema.
type model struct {
	Package  string
	Source   string
	Name     string
	Imports  []string
	Fields   []fieldModel
	Optional []fieldModel
	Params   []string
	PostInit bool

	Init, Frozen, Eq, Order, Repr bool

	EqualTerms   []string
	CompareSteps []string
	ReprFormat   string
	ReprArgs     []string
}

type fieldModel struct {
	Name    string
	Title   string // exported form, used for options and getters
	GoName  string // struct field name
	GoType  string
	Param   string
	Initial string // "GoName: expr" when the constructor sets the field
}

func newModel(s *record.Schema, opts Options) (*model, error) {
	flags := s.Flags()
	m := &model{
		Package:  opts.Package,
		Source:   opts.Source,
		Name:     s.Name(),
		Init:     flags.Init,
		Frozen:   flags.Frozen,
		Eq:       flags.Eq,
		Order:    flags.Order,
		Repr:     flags.Repr,
		PostInit: opts.PostInit && flags.Init,
	}
	imports := map[string]bool{}
	seen := map[string]string{}
	params := map[string]string{}

	var reprParts []string
	for _, f := range s.Fields() {
		fm := fieldModel{
			Name:   f.Name,
			Title:  exportedName(f.Name),
			GoType: goType(f.Type),
			Param:  paramName(f.Name),
		}
		fm.GoName = fm.Title
		if flags.Frozen {
			fm.GoName = unexportedName(f.Name)
		}
		if reserved[fm.Title] {
			return nil, fieldErr(ErrNameCollision, s.Name(), f.Name, "%s is a generated method", fm.Title)
		}
		if other, ok := seen[fm.Title]; ok {
			return nil, fieldErr(ErrNameCollision, s.Name(), f.Name, "%s is also the Go name of %q", fm.Title, other)
		}
		seen[fm.Title] = f.Name
		if other, ok := params[fm.Param]; ok {
			return nil, fieldErr(ErrNameCollision, s.Name(), f.Name, "parameter %s is also used for %q", fm.Param, other)
		}
		params[fm.Param] = f.Name
		if f.Type == record.TypeTimestamp {
			imports["time"] = true
		}

		if f.HasAnyDefault() {
			expr, imp, err := initialExpr(f)
			if err != nil {
				return nil, fieldErr(ErrUnsupportedDefault, s.Name(), f.Name, "%v", err)
			}
			if imp != "" {
				imports[imp] = true
			}
			fm.Initial = fm.GoName + ": " + expr + ","
		}
		if flags.Init && f.Init {
			if f.HasAnyDefault() {
				m.Optional = append(m.Optional, fm)
			} else {
				fm.Initial = fm.GoName + ": " + fm.Param + ","
				m.Params = append(m.Params, fm.Param+" "+fm.GoType)
			}
		}

		if flags.Eq && f.Compare {
			m.EqualTerms = append(m.EqualTerms, equalTerm(f.Type, fm.GoName))
			if f.Type == record.TypeList || f.Type == record.TypeMap || f.Type == record.TypeRecord || f.Type == record.TypeAny {
				imports["reflect"] = true
			}
		}
		if flags.Order && f.Compare {
			step, imp, err := compareStep(f.Type, fm.GoName)
			if err != nil {
				return nil, fieldErr(ErrUnorderableField, s.Name(), f.Name, "%s values have no order", f.Type)
			}
			if imp != "" {
				imports[imp] = true
			}
			m.CompareSteps = append(m.CompareSteps, step)
		}
		if flags.Repr && f.Repr {
			verb := "%v"
			if f.Type == record.TypeText {
				verb = "%q"
			}
			reprParts = append(reprParts, f.Name+"="+verb)
			m.ReprArgs = append(m.ReprArgs, "r."+fm.GoName)
		}
		m.Fields = append(m.Fields, fm)
	}
	m.Params = append(m.Params, "opts ..."+m.Name+"Option")
	m.ReprFormat = m.Name + "(" + strings.Join(reprParts, ", ") + ")"
	if len(m.ReprArgs) > 0 {
		imports["fmt"] = true
	}

	for imp := range imports {
		m.Imports = append(m.Imports, imp)
	}
	sort.Strings(m.Imports)
	return m, nil
}

func goType(vt record.ValueType) string {
	switch vt {
	case record.TypeText:
		return "string"
	case record.TypeInteger:
		return "int64"
	case record.TypeFloat:
		return "float64"
	case record.TypeBoolean:
		return "bool"
	case record.TypeTimestamp:
		return "time.Time"
	case record.TypeList:
		return "[]any"
	case record.TypeMap:
		return "map[string]any"
	default:
		return "any"
	}
}

// factoryExprs are the Go expressions for the factories a schema file can
// name, with the import each needs.
var factoryExprs = map[string][2]string{
	"list": {"[]any{}", ""},
	"map":  {"map[string]any{}", ""},
	"uuid": {"uuid.Must(uuid.NewV7()).String()", "github.com/google/uuid"},
	"now":  {"time.Now().UTC()", "time"},
}

// initialExpr returns the Go expression for a field's default and the
// import it needs.
func initialExpr(f record.FieldSpec) (string, string, error) {
	if f.Factory != nil {
		if name, ok := f.Metadata[schemafile.FactoryKey].(string); ok {
			if e, ok := factoryExprs[name]; ok {
				return e[0], e[1], nil
			}
		}
		switch f.Type {
		case record.TypeList:
			return "[]any{}", "", nil
		case record.TypeMap:
			return "map[string]any{}", "", nil
		}
		return "", "", errors.New("factory is not a named schema file factory")
	}
	expr, err := literal(f.Type, f.Default)
	return expr, "", err
}

// literal renders a default value as a Go literal of the field's Go type.
func literal(vt record.ValueType, v any) (string, error) {
	if v == nil {
		switch vt {
		case record.TypeAny, record.TypeRecord, record.TypeList, record.TypeMap:
			return "nil", nil
		}
		return "", fmt.Errorf("nil is not a %s value", vt)
	}
	cv, err := record.Coerce(vt, v)
	if err != nil {
		return "", err
	}
	switch x := cv.(type) {
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		if vt == record.TypeAny {
			return fmt.Sprintf("int64(%d)", x), nil
		}
		return strconv.FormatInt(x, 10), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("%v has no literal", x)
		}
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if vt == record.TypeAny {
			return "float64(" + s + ")", nil
		}
		return s, nil
	}
	return "", fmt.Errorf("%T default", cv)
}

func equalTerm(vt record.ValueType, name string) string {
	switch vt {
	case record.TypeTimestamp:
		return fmt.Sprintf("r.%s.Equal(other.%s)", name, name)
	case record.TypeList, record.TypeMap, record.TypeRecord, record.TypeAny:
		return fmt.Sprintf("reflect.DeepEqual(r.%s, other.%s)", name, name)
	}
	return fmt.Sprintf("r.%s == other.%s", name, name)
}

func compareStep(vt record.ValueType, name string) (string, string, error) {
	switch vt {
	case record.TypeText, record.TypeInteger, record.TypeFloat:
		return fmt.Sprintf("if c := cmp.Compare(r.%s, other.%s); c != 0 {\n\t\treturn c\n\t}", name, name), "cmp", nil
	case record.TypeTimestamp:
		return fmt.Sprintf("if c := r.%s.Compare(other.%s); c != 0 {\n\t\treturn c\n\t}", name, name), "", nil
	case record.TypeBoolean:
		return fmt.Sprintf("if r.%s != other.%s {\n\t\tif other.%s {\n\t\t\treturn -1\n\t\t}\n\t\treturn 1\n\t}", name, name, name), "", nil
	}
	return "", "", ErrUnorderableField
}

func fieldErr(kind error, schema, field, format string, args ...any) error {
	return &record.FieldError{Kind: kind, Schema: schema, Field: field, Msg: fmt.Sprintf(format, args...)}
}
