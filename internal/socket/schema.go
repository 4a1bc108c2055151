package socket

import "slices"

// Kind selects the coercion applied to a schema field.
type Kind int

// Field kinds.
const (
	KindAny Kind = iota
	KindString
	KindInt
	KindBool
	KindStringList
	KindObject
)

// Field describes one command field: its target type, whether the client
// must supply it, an optional allowed-value set for strings, and an
// optional default filled in when absent.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Allowed  []string
	Default  any
}

// Schema is the ordered field list validated against a command's
// decoded fields. The id and type fields are handled by ParseMessage and
// never appear in a schema.
type Schema []Field

// Validate checks fields against the schema and returns the normalised
// form: unknown fields rejected, required fields enforced, values coerced
// to their target types, defaults filled in. Pure; the input map is not
// modified.
func (s Schema) Validate(fields map[string]any) (map[string]any, *Error) {
	for key := range fields {
		if !slices.ContainsFunc(s, func(f Field) bool { return f.Name == key }) {
			return nil, NewError(ErrCodeInvalidFormat, "unknown field %s", key)
		}
	}

	out := make(map[string]any, len(s))
	for _, f := range s {
		raw, present := fields[f.Name]
		if !present {
			if f.Required {
				return nil, NewError(ErrCodeInvalidFormat, "required field %s is missing", f.Name)
			}
			if f.Default != nil {
				out[f.Name] = f.Default
			}
			continue
		}

		coerced, err := coerce(f, raw)
		if err != nil {
			return nil, err
		}
		out[f.Name] = coerced
	}
	return out, nil
}

func coerce(f Field, raw any) (any, *Error) {
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, NewError(ErrCodeInvalidFormat, "field %s must be a string, got %v", f.Name, raw)
		}
		if len(f.Allowed) > 0 && !slices.Contains(f.Allowed, s) {
			return nil, NewError(ErrCodeInvalidFormat, "field %s must be one of %v, got %q", f.Name, f.Allowed, s)
		}
		return s, nil

	case KindInt:
		n, ok := asInt(raw)
		if !ok {
			return nil, NewError(ErrCodeInvalidFormat, "field %s must be an integer, got %v", f.Name, raw)
		}
		return n, nil

	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, NewError(ErrCodeInvalidFormat, "field %s must be a boolean, got %v", f.Name, raw)
		}
		return b, nil

	case KindStringList:
		// A bare string coerces to a single-element list.
		if s, ok := raw.(string); ok {
			return []string{s}, nil
		}
		items, ok := raw.([]any)
		if !ok {
			return nil, NewError(ErrCodeInvalidFormat, "field %s must be a list of strings, got %v", f.Name, raw)
		}
		list := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, NewError(ErrCodeInvalidFormat, "field %s must be a list of strings, got %v", f.Name, item)
			}
			list[i] = s
		}
		return list, nil

	case KindObject:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, NewError(ErrCodeInvalidFormat, "field %s must be an object, got %v", f.Name, raw)
		}
		return obj, nil

	case KindAny:
		return raw, nil
	}
	return nil, NewError(ErrCodeInvalidFormat, "field %s has an unsupported kind", f.Name)
}
