package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/google/uuid"
)

// =============================================================================
// Field Types
// =============================================================================

// Type is the primitive type a field value must have.
type Type string

const (
	TypeString  Type = "string"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeEnum    Type = "enum"
	TypeUUID    Type = "uuid"
)

// IsValid checks if the type is one the validator can interpret.
func (t Type) IsValid() bool {
	switch t {
	case TypeString, TypeBoolean, TypeArray, TypeEnum, TypeUUID:
		return true
	default:
		return false
	}
}

// =============================================================================
// Checks
// =============================================================================

// Check is a single constraint applied to a value that already passed its
// type check. The set of checks is closed: Length, Pattern, OneOf, MinItems
// and UUIDFormat.
type Check interface {
	// apply returns a message for every way the value violates the check.
	apply(value any) []string
	// verify reports whether the check itself is well formed.
	verify() error
}

// Length bounds the length of a string, counted in UTF-16 code units. A zero Max means unbounded.
type Length struct {
	Min int
	Max int
}

func (c Length) apply(value any) []string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	n := utf16Len(s)
	var msgs []string
	if c.Min > 0 && n < c.Min {
		msgs = append(msgs, fmt.Sprintf("String must contain at least %d character(s)", c.Min))
	}
	if c.Max > 0 && n > c.Max {
		msgs = append(msgs, fmt.Sprintf("String must contain at most %d character(s)", c.Max))
	}
	return msgs
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func (c Length) verify() error {
	if c.Min < 0 || c.Max < 0 {
		return fmt.Errorf("length bounds must not be negative (min=%d, max=%d)", c.Min, c.Max)
	}
	if c.Max > 0 && c.Min > c.Max {
		return fmt.Errorf("length min %d exceeds max %d", c.Min, c.Max)
	}
	return nil
}

// Pattern requires a string to match a regular expression.
type Pattern struct {
	Expr *regexp.Regexp
}

// MustPattern compiles expr into a Pattern check, panicking on a bad expression.
func MustPattern(expr string) Pattern {
	return Pattern{Expr: regexp.MustCompile(expr)}
}

func (c Pattern) apply(value any) []string {
	s, ok := value.(string)
	if !ok || c.Expr == nil {
		return nil
	}
	if !c.Expr.MatchString(s) {
		return []string{"Invalid"}
	}
	return nil
}

func (c Pattern) verify() error {
	if c.Expr == nil {
		return fmt.Errorf("pattern check has no expression")
	}
	return nil
}

// OneOf requires a string to be one of a fixed set of values.
type OneOf struct {
	Values []string
}

func (c OneOf) apply(value any) []string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	for _, v := range c.Values {
		if v == s {
			return nil
		}
	}
	quoted := make([]string, len(c.Values))
	for i, v := range c.Values {
		quoted[i] = "'" + v + "'"
	}
	return []string{fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", strings.Join(quoted, " | "), s)}
}

func (c OneOf) verify() error {
	if len(c.Values) == 0 {
		return fmt.Errorf("enum check has no values")
	}
	return nil
}

// MinItems requires an array to hold at least N elements.
type MinItems struct {
	N int
}

func (c MinItems) apply(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	if len(items) < c.N {
		return []string{fmt.Sprintf("Array must contain at least %d element(s)", c.N)}
	}
	return nil
}

func (c MinItems) verify() error {
	if c.N < 0 {
		return fmt.Errorf("minimum item count must not be negative (got %d)", c.N)
	}
	return nil
}

// UUIDFormat requires a string in canonical 8-4-4-4-12 UUID form.
type UUIDFormat struct{}

func (UUIDFormat) apply(value any) []string {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if !IsUUID(s) {
		return []string{"Invalid uuid"}
	}
	return nil
}

func (UUIDFormat) verify() error { return nil }

// IsUUID reports whether s is a UUID in its canonical hyphenated form.
// uuid.Parse alone also accepts the urn, braced and bare-hex encodings.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// =============================================================================
// Field
// =============================================================================

// Field describes one named value inside a facet.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	// Trim strips surrounding whitespace before checks run.
	Trim   bool
	Checks []Check
	// Items is the rule every element of an array field must satisfy.
	Items *Field
}

// String returns a required string field.
func String(name string) Field {
	return Field{Name: name, Type: TypeString}
}

// Boolean returns a required boolean field.
func Boolean(name string) Field {
	return Field{Name: name, Type: TypeBoolean}
}

// UUID returns a required UUID-formatted string field.
func UUID(name string) Field {
	return Field{Name: name, Type: TypeUUID}
}

// Enum returns a required field restricted to the given values.
func Enum(name string, values ...string) Field {
	return Field{Name: name, Type: TypeEnum, Checks: []Check{OneOf{Values: values}}}
}

// Array returns a required array field whose elements follow items.
func Array(name string, items Field) Field {
	return Field{Name: name, Type: TypeArray, Items: &items}
}

// WithOptional returns a copy of the field that may be omitted.
func (f Field) WithOptional() Field { f.Optional = true; return f }

// WithTrim returns a copy of the field that is trimmed before checking.
func (f Field) WithTrim() Field { f.Trim = true; return f }

// WithLength returns a copy of the field with a length constraint.
func (f Field) WithLength(minLen, maxLen int) Field {
	return f.with(Length{Min: minLen, Max: maxLen})
}

// WithPattern returns a copy of the field with a regex constraint.
func (f Field) WithPattern(expr string) Field {
	return f.with(MustPattern(expr))
}

// WithMinItems returns a copy of the field with a minimum array size.
func (f Field) WithMinItems(n int) Field {
	return f.with(MinItems{N: n})
}

func (f Field) with(c Check) Field {
	checks := make([]Check, 0, len(f.Checks)+1)
	checks = append(checks, f.Checks...)
	f.Checks = append(checks, c)
	return f
}

func (f Field) verify() error {
	if !f.Type.IsValid() {
		return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
	}
	hasEnum := false
	for _, c := range f.Checks {
		if c == nil {
			return fmt.Errorf("field %q: nil check", f.Name)
		}
		if err := c.verify(); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		if _, ok := c.(OneOf); ok {
			hasEnum = true
		}
	}
	if f.Type == TypeEnum && !hasEnum {
		return fmt.Errorf("field %q: enum field has no values", f.Name)
	}
	if f.Type == TypeArray {
		if f.Items == nil {
			return fmt.Errorf("field %q: array field has no item rule", f.Name)
		}
		if err := f.Items.verify(); err != nil {
			return fmt.Errorf("field %q items: %w", f.Name, err)
		}
	}
	return nil
}

// =============================================================================
// Object & Schema
// =============================================================================

// UnknownPolicy decides what happens to keys a facet does not declare.
type UnknownPolicy string

const (
	// UnknownStrip ignores undeclared keys.
	UnknownStrip UnknownPolicy = "strip"
	// UnknownReject reports undeclared keys as a violation.
	UnknownReject UnknownPolicy = "reject"
)

// IsValid checks if the policy is known. The empty policy means strip.
func (p UnknownPolicy) IsValid() bool {
	switch p {
	case "", UnknownStrip, UnknownReject:
		return true
	default:
		return false
	}
}

// Object is the rule set for one request facet.
type Object struct {
	Fields  []Field
	Unknown UnknownPolicy
}

// NewObject returns a permissive object with the given fields.
func NewObject(fields ...Field) *Object {
	return &Object{Fields: fields, Unknown: UnknownStrip}
}

func (o *Object) verify() error {
	if !o.Unknown.IsValid() {
		return fmt.Errorf("unknown key policy %q", o.Unknown)
	}
	seen := make(map[string]bool, len(o.Fields))
	for _, f := range o.Fields {
		if f.Name == "" {
			return fmt.Errorf("field without a name")
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q declared twice", f.Name)
		}
		seen[f.Name] = true
		if err := f.verify(); err != nil {
			return err
		}
	}
	return nil
}

// Schema describes the expected shape of a request. A nil facet is not
// validated at all.
type Schema struct {
	Name   string
	Body   *Object
	Query  *Object
	Params *Object
}

// Verify reports whether every rule in the schema can be interpreted.
// The returned error wraps ErrMalformedSchema.
func (s *Schema) Verify() error {
	for _, facet := range s.facets() {
		if facet.object == nil {
			continue
		}
		if err := facet.object.verify(); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrMalformedSchema, s.Name, facet.name, err)
		}
	}
	return nil
}

// WithUnknown returns a copy of the schema with the policy applied to every
// declared facet.
func (s *Schema) WithUnknown(policy UnknownPolicy) *Schema {
	c := *s
	for _, o := range []**Object{&c.Body, &c.Query, &c.Params} {
		if *o != nil {
			cp := **o
			cp.Unknown = policy
			*o = &cp
		}
	}
	return &c
}

type facet struct {
	name   string
	object *Object
}

func (s *Schema) facets() []facet {
	return []facet{
		{FacetBody, s.Body},
		{FacetQuery, s.Query},
		{FacetParams, s.Params},
	}
}
