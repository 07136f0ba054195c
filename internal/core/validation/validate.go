package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Facet names, also used as the first segment of every field path.
const (
	FacetBody   = "body"
	FacetQuery  = "query"
	FacetParams = "params"
)

// ErrMalformedSchema is returned when a schema cannot be interpreted.
// It marks a defect in the schema, never a problem with the request.
var ErrMalformedSchema = errors.New("malformed schema")

// =============================================================================
// Request & Result Types
// =============================================================================

// Request holds the three facets of an incoming request.
//
// Body is the decoded JSON body (nil when the request had none). Query values
// are strings, or []string for repeated keys. Params are path parameters.
type Request struct {
	Body   any
	Query  map[string]any
	Params map[string]string
}

// FieldError is one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a shape violation: the request failed one or more constraints.
type Error struct {
	Schema string
	Errors []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Schema, strings.Join(parts, "; "))
}

// IsShapeViolation reports whether err is a request shape violation and
// returns it.
func IsShapeViolation(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the request against every declared facet.
//
// Every violation across all facets is collected into a single *Error,
// ordered by facet (body, query, params) and then by field declaration.
// A malformed schema yields an error wrapping ErrMalformedSchema instead.
func (s *Schema) Validate(req Request) error {
	if err := s.Verify(); err != nil {
		return err
	}

	var issues []FieldError
	if s.Body != nil {
		body := req.Body
		if body == nil {
			body = map[string]any{}
		}
		issues = append(issues, validateObject(FacetBody, s.Body, body)...)
	}
	if s.Query != nil {
		issues = append(issues, validateObject(FacetQuery, s.Query, queryValues(req.Query))...)
	}
	if s.Params != nil {
		issues = append(issues, validateObject(FacetParams, s.Params, paramValues(req.Params))...)
	}

	if len(issues) > 0 {
		return &Error{Schema: s.Name, Errors: issues}
	}
	return nil
}

func validateObject(path string, o *Object, value any) []FieldError {
	obj, ok := value.(map[string]any)
	if !ok {
		return []FieldError{{Field: path, Message: expected("object", value)}}
	}

	var issues []FieldError
	for _, f := range o.Fields {
		v, present := obj[f.Name]
		issues = append(issues, validateField(join(path, f.Name), f, v, present)...)
	}

	if o.Unknown == UnknownReject {
		if extra := unknownKeys(o, obj); len(extra) > 0 {
			quoted := make([]string, len(extra))
			for i, k := range extra {
				quoted[i] = "'" + k + "'"
			}
			issues = append(issues, FieldError{
				Field:   path,
				Message: "Unrecognized key(s) in object: " + strings.Join(quoted, ", "),
			})
		}
	}
	return issues
}

func validateField(path string, f Field, value any, present bool) []FieldError {
	if !present {
		if f.Optional {
			return nil
		}
		return []FieldError{{Field: path, Message: "Required"}}
	}

	value, ok := coerce(f.Type, value)
	if !ok {
		return []FieldError{{Field: path, Message: expected(wantName(f.Type), value)}}
	}
	if f.Trim {
		if s, isStr := value.(string); isStr {
			value = strings.TrimSpace(s)
		}
	}

	var issues []FieldError
	add := func(msgs []string) {
		for _, m := range msgs {
			issues = append(issues, FieldError{Field: path, Message: m})
		}
	}

	if f.Type == TypeUUID {
		add(UUIDFormat{}.apply(value))
	}
	for _, c := range f.Checks {
		add(c.apply(value))
	}

	if f.Type == TypeArray && f.Items != nil {
		for i, item := range value.([]any) {
			issues = append(issues, validateField(join(path, strconv.Itoa(i)), *f.Items, item, true)...)
		}
	}
	return issues
}

// coerce performs the type check for a field, normalising the value into
// the representation its checks expect.
func coerce(t Type, value any) (any, bool) {
	switch t {
	case TypeString, TypeEnum, TypeUUID:
		_, ok := value.(string)
		return value, ok
	case TypeBoolean:
		_, ok := value.(bool)
		return value, ok
	case TypeArray:
		switch v := value.(type) {
		case []any:
			return v, true
		case []string:
			items := make([]any, len(v))
			for i, s := range v {
				items[i] = s
			}
			return items, true
		}
	}
	return value, false
}

func wantName(t Type) string {
	switch t {
	case TypeEnum, TypeUUID:
		return "string"
	default:
		return string(t)
	}
}

func expected(want string, got any) string {
	return fmt.Sprintf("Expected %s, received %s", want, typeName(got))
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func unknownKeys(o *Object, obj map[string]any) []string {
	declared := make(map[string]bool, len(o.Fields))
	for _, f := range o.Fields {
		declared[f.Name] = true
	}
	var extra []string
	for k := range obj {
		if !declared[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

func queryValues(q map[string]any) map[string]any {
	if q == nil {
		return map[string]any{}
	}
	return q
}

func paramValues(p map[string]string) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func join(path, name string) string {
	return path + "." + name
}
