package gen

const recordTemplate = `// Code generated by recordc{{ with .Source }} from {{ . }}{{ end }}; DO NOT EDIT.

package {{ .Package }}
{{ if .Imports }}
import (
{{- range .Imports }}
	{{ quote . }}
{{- end }}
)
{{ end }}
// {{ .Name }} is the {{ .Name }} record type.
type {{ .Name }} struct {
{{- range .Fields }}
	{{ .GoName }} {{ .GoType }}
{{- end }}
}
{{ if .Init }}
// {{ .Name }}Option sets an optional field of {{ .Name }}.
type {{ .Name }}Option func(*{{ .Name }})
{{ range .Optional }}
// With{{ $.Name }}{{ .Title }} sets {{ .Name }}, replacing its default.
func With{{ $.Name }}{{ .Title }}(v {{ .GoType }}) {{ $.Name }}Option {
	return func(r *{{ $.Name }}) { r.{{ .GoName }} = v }
}
{{ end }}
// New{{ .Name }} returns a {{ .Name }} built from its required fields.
{{- if .Optional }} Optional fields take their defaults unless set with an option.{{ end }}
func New{{ .Name }}({{ join ", " .Params }}) *{{ .Name }} {
	r := &{{ .Name }}{
{{- range .Fields }}{{ with .Initial }}
		{{ . }}
{{- end }}{{ end }}
	}
	for _, opt := range opts {
		opt(r)
	}
{{- if .PostInit }}
	r.postInit()
{{- end }}
	return r
}
{{ end }}
{{- if .Frozen }}
{{- range .Fields }}
// {{ .Title }} returns {{ .Name }}.
func (r *{{ $.Name }}) {{ .Title }}() {{ .GoType }} { return r.{{ .GoName }} }
{{ end }}
{{- end }}
{{- if .Eq }}
// Equal reports whether r and other hold equal values in every compared field.
func (r *{{ .Name }}) Equal(other *{{ .Name }}) bool {
	if r == nil || other == nil {
		return r == other
	}
	return {{ if .EqualTerms }}{{ join " &&\n\t\t" .EqualTerms }}{{ else }}true{{ end }}
}
{{ end }}
{{- if .Order }}
// Compare orders r against other field by field in declaration order.
func (r *{{ .Name }}) Compare(other *{{ .Name }}) int {
{{- range .CompareSteps }}
	{{ . }}
{{- end }}
	return 0
}
{{ end }}
{{- if .Repr }}
func (r *{{ .Name }}) String() string {
{{- if .ReprArgs }}
	return fmt.Sprintf({{ quote .ReprFormat }}, {{ join ", " .ReprArgs }})
{{- else }}
	return {{ quote .ReprFormat }}
{{- end }}
}
{{ end }}`
