// Package forms renders admin edit forms from GraphQL input-type
// introspection. Field shapes are normalized into a closed set of variants
// (scalar, list, nested object) up front; rendering and value parsing then
// dispatch on the tag, never on runtime type inspection.
package forms

import (
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"gostore.dev/web/internal/api"
)

// Kind tags the closed set of field variants.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindObject
)

const maxDepth = 6

// Field is one normalized input field.
type Field struct {
	Name     string
	Label    string
	Required bool
	Kind     Kind

	// Scalar holds the GraphQL scalar/enum name when Kind is KindScalar.
	Scalar string
	// Elem describes the element shape when Kind is KindList.
	Elem *Field
	// Fields lists the nested object's fields when Kind is KindObject.
	Fields []Field
}

// Form is a named, ordered list of fields parsed from one input object type.
type Form struct {
	Name   string
	Fields []Field
}

// Parse normalizes an introspected input object. types resolves nested
// input-object names to their introspection payloads; unknown nested types
// degrade to an empty object rather than failing the whole form.
func Parse(t *api.IntrospectedType, types map[string]*api.IntrospectedType) (*Form, error) {
	if t == nil {
		return nil, fmt.Errorf("forms: nil type")
	}
	if t.Kind != "INPUT_OBJECT" {
		return nil, fmt.Errorf("forms: %s is %s, want INPUT_OBJECT", t.Name, t.Kind)
	}
	form := &Form{Name: t.Name}
	for _, in := range t.InputFields {
		f, err := parseField(in.Name, in.Type, types, 0)
		if err != nil {
			return nil, err
		}
		form.Fields = append(form.Fields, f)
	}
	return form, nil
}

func parseField(name string, t *api.IntrospectedType, types map[string]*api.IntrospectedType, depth int) (Field, error) {
	if t == nil {
		return Field{}, fmt.Errorf("forms: field %s has no type", name)
	}
	if depth > maxDepth {
		return Field{}, fmt.Errorf("forms: field %s nests deeper than %d", name, maxDepth)
	}

	f := Field{Name: name, Label: labelFor(name)}
	if t.Kind == "NON_NULL" {
		f.Required = true
		t = t.OfType
		if t == nil {
			return Field{}, fmt.Errorf("forms: field %s wraps no type", name)
		}
	}

	switch t.Kind {
	case "LIST":
		elem, err := parseField(name, t.OfType, types, depth+1)
		if err != nil {
			return Field{}, err
		}
		f.Kind = KindList
		f.Elem = &elem
	case "INPUT_OBJECT":
		f.Kind = KindObject
		if nested, ok := types[t.Name]; ok {
			parsed, err := Parse(nested, types)
			if err != nil {
				return Field{}, err
			}
			f.Fields = parsed.Fields
		}
	case "SCALAR", "ENUM":
		f.Kind = KindScalar
		f.Scalar = t.Name
	default:
		return Field{}, fmt.Errorf("forms: field %s has unsupported kind %s", name, t.Kind)
	}
	return f, nil
}

func labelFor(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Render produces the form controls as sanitized HTML. values carries the
// current field values keyed by dotted path ("details", "option.label",
// "values.0").
func (f *Form) Render(values map[string]string) template.HTML {
	var b strings.Builder
	for _, field := range f.Fields {
		renderField(&b, field, field.Name, values)
	}
	return template.HTML(b.String())
}

func renderField(b *strings.Builder, f Field, path string, values map[string]string) {
	switch f.Kind {
	case KindObject:
		fmt.Fprintf(b, `<fieldset class="form-group"><legend>%s</legend>`, template.HTMLEscapeString(f.Label))
		for _, nested := range f.Fields {
			renderField(b, nested, path+"."+nested.Name, values)
		}
		b.WriteString(`</fieldset>`)
	case KindList:
		fmt.Fprintf(b, `<fieldset class="form-group" data-list="%s"><legend>%s</legend>`,
			template.HTMLEscapeString(path), template.HTMLEscapeString(f.Label))
		for i := 0; ; i++ {
			indexed := fmt.Sprintf("%s.%d", path, i)
			if !hasPrefix(values, indexed) {
				break
			}
			renderField(b, *f.Elem, indexed, values)
		}
		b.WriteString(`</fieldset>`)
	default:
		renderScalar(b, f, path, values[path])
	}
}

func renderScalar(b *strings.Builder, f Field, path, value string) {
	name := template.HTMLEscapeString(path)
	label := template.HTMLEscapeString(f.Label)
	required := ""
	if f.Required {
		required = " required"
	}
	switch f.Scalar {
	case "Boolean":
		checked := ""
		if value == "true" || value == "on" {
			checked = " checked"
		}
		fmt.Fprintf(b, `<div class="form-check"><input class="form-check-input" type="checkbox" id="%s" name="%s"%s><label class="form-check-label" for="%s">%s</label></div>`,
			name, name, checked, name, label)
	case "Int", "Float":
		step := "1"
		if f.Scalar == "Float" {
			step = "any"
		}
		fmt.Fprintf(b, `<div class="form-group"><label for="%s">%s</label><input class="form-control" type="number" step="%s" id="%s" name="%s" value="%s"%s></div>`,
			name, label, step, name, name, template.HTMLEscapeString(value), required)
	default:
		fmt.Fprintf(b, `<div class="form-group"><label for="%s">%s</label><textarea class="form-control" id="%s" name="%s" rows="1"%s>%s</textarea></div>`,
			name, label, name, name, required, template.HTMLEscapeString(value))
	}
}

func hasPrefix(values map[string]string, prefix string) bool {
	if _, ok := values[prefix]; ok {
		return true
	}
	for k := range values {
		if strings.HasPrefix(k, prefix+".") {
			return true
		}
	}
	return false
}

// ParseValues converts posted form values back into the mutation input
// document, coercing scalars by their declared kind. Empty optional scalars
// are omitted.
func (f *Form) ParseValues(posted url.Values) (map[string]any, error) {
	out := map[string]any{}
	for _, field := range f.Fields {
		v, ok, err := parseValue(field, field.Name, posted)
		if err != nil {
			return nil, err
		}
		if ok {
			out[field.Name] = v
		}
	}
	return out, nil
}

func parseValue(f Field, path string, posted url.Values) (any, bool, error) {
	switch f.Kind {
	case KindObject:
		obj := map[string]any{}
		for _, nested := range f.Fields {
			v, ok, err := parseValue(nested, path+"."+nested.Name, posted)
			if err != nil {
				return nil, false, err
			}
			if ok {
				obj[nested.Name] = v
			}
		}
		if len(obj) == 0 {
			return nil, false, nil
		}
		return obj, true, nil
	case KindList:
		var list []any
		for i := 0; ; i++ {
			v, ok, err := parseValue(*f.Elem, fmt.Sprintf("%s.%d", path, i), posted)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			list = append(list, v)
		}
		if list == nil {
			return nil, false, nil
		}
		return list, true, nil
	default:
		return parseScalar(f, path, posted)
	}
}

func parseScalar(f Field, path string, posted url.Values) (any, bool, error) {
	if f.Scalar == "Boolean" {
		// unchecked checkboxes post nothing
		raw := posted.Get(path)
		return raw == "true" || raw == "on", true, nil
	}
	if !posted.Has(path) {
		return nil, false, nil
	}
	raw := strings.TrimSpace(posted.Get(path))
	if raw == "" {
		if f.Required {
			return nil, false, fmt.Errorf("forms: %s is required", path)
		}
		return nil, false, nil
	}
	switch f.Scalar {
	case "Int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false, fmt.Errorf("forms: %s must be an integer", path)
		}
		return n, true, nil
	case "Float":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false, fmt.Errorf("forms: %s must be a number", path)
		}
		return n, true, nil
	default:
		return raw, true, nil
	}
}
