package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed schemas/*.yaml
var schemasFS embed.FS

// =============================================================================
// Schema Names
// =============================================================================

const (
	TechnicianCreate             = "technician.create"
	TechnicianAssign             = "technician.assign"
	TechnicianUpdateAvailability = "technician.updateAvailability"
	TechnicianGetByID            = "technician.getById"
	TechnicianGetForPG           = "technician.getForPg"
	TechnicianGetAvailable       = "technician.getAvailable"
	TechnicianUpdate             = "technician.update"

	CommunityCreate  = "community.create"
	CommunityGetByID = "community.getById"
	CommunityList    = "community.list"
	CommunityUpdate  = "community.update"

	AuthRegister = "auth.register"
	AuthLogin    = "auth.login"
)

// =============================================================================
// Registry
// =============================================================================

// Registry holds named schemas decoded from YAML documents.
type Registry struct {
	schemas map[string]*Schema
}

// RegistryOption configures registry loading.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	unknown UnknownPolicy
}

// WithUnknownPolicy forces the given unknown-key policy onto every facet of
// every loaded schema, overriding what the documents declare.
func WithUnknownPolicy(p UnknownPolicy) RegistryOption {
	return func(o *registryOptions) {
		o.unknown = p
	}
}

// DefaultRegistry loads the schemas shipped with the service.
func DefaultRegistry(opts ...RegistryOption) (*Registry, error) {
	sub, err := fs.Sub(schemasFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("open embedded schemas: %w", err)
	}
	return LoadRegistry(sub, opts...)
}

// LoadRegistry decodes every *.yaml file at the root of fsys. Unknown keys,
// unknown field types, bad regular expressions and duplicate schema names are
// load errors.
func LoadRegistry(fsys fs.FS, opts ...RegistryOption) (*Registry, error) {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.unknown.IsValid() {
		return nil, fmt.Errorf("unknown key policy %q", o.unknown)
	}

	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list schema files: %w", err)
	}
	sort.Strings(files)

	reg := &Registry{schemas: make(map[string]*Schema)}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		schemas, err := decodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(name), err)
		}
		for _, s := range schemas {
			if _, dup := reg.schemas[s.Name]; dup {
				return nil, fmt.Errorf("%s: schema %q defined twice", path.Base(name), s.Name)
			}
			if o.unknown != "" {
				s = s.WithUnknown(o.unknown)
			}
			reg.schemas[s.Name] = s
		}
	}
	return reg, nil
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// MustGet returns the schema registered under name and panics if there is
// none. Use it only while wiring routes at startup.
func (r *Registry) MustGet(name string) *Schema {
	s, ok := r.schemas[name]
	if !ok {
		panic(fmt.Sprintf("validation: schema %q not registered", name))
	}
	return s
}

// Names returns every registered schema name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// YAML Document
// =============================================================================

type document struct {
	// Definitions only hosts YAML anchors reused by schemas.
	Definitions map[string]fieldDoc  `yaml:"definitions"`
	Schemas     map[string]schemaDoc `yaml:"schemas"`
}

type schemaDoc struct {
	Body   *objectDoc `yaml:"body"`
	Query  *objectDoc `yaml:"query"`
	Params *objectDoc `yaml:"params"`
}

type objectDoc struct {
	Unknown string     `yaml:"unknown"`
	Fields  []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Optional bool       `yaml:"optional"`
	Trim     bool       `yaml:"trim"`
	Length   *lengthDoc `yaml:"length"`
	Pattern  string     `yaml:"pattern"`
	Values   []string   `yaml:"values"`
	MinItems *int       `yaml:"minItems"`
	Items    *fieldDoc  `yaml:"items"`
}

type lengthDoc struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func decodeDocument(data []byte) ([]*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	names := make([]string, 0, len(doc.Schemas))
	for n := range doc.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)

	schemas := make([]*Schema, 0, len(names))
	for _, name := range names {
		sd := doc.Schemas[name]
		s := &Schema{Name: name}
		var err error
		if s.Body, err = sd.Body.build(); err != nil {
			return nil, fmt.Errorf("schema %s body: %w", name, err)
		}
		if s.Query, err = sd.Query.build(); err != nil {
			return nil, fmt.Errorf("schema %s query: %w", name, err)
		}
		if s.Params, err = sd.Params.build(); err != nil {
			return nil, fmt.Errorf("schema %s params: %w", name, err)
		}
		if err := s.Verify(); err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func (d *objectDoc) build() (*Object, error) {
	if d == nil {
		return nil, nil
	}
	o := &Object{Unknown: UnknownPolicy(d.Unknown)}
	if o.Unknown == "" {
		o.Unknown = UnknownStrip
	}
	if !o.Unknown.IsValid() {
		return nil, fmt.Errorf("unknown key policy %q", d.Unknown)
	}
	for _, fd := range d.Fields {
		f, err := fd.build()
		if err != nil {
			return nil, err
		}
		o.Fields = append(o.Fields, f)
	}
	return o, nil
}

func (d fieldDoc) build() (Field, error) {
	f := Field{
		Name:     d.Name,
		Type:     Type(d.Type),
		Optional: d.Optional,
		Trim:     d.Trim,
	}
	if !f.Type.IsValid() {
		return Field{}, fmt.Errorf("field %q: unknown type %q", d.Name, d.Type)
	}
	if d.Length != nil {
		f.Checks = append(f.Checks, Length{Min: d.Length.Min, Max: d.Length.Max})
	}
	if d.Pattern != "" {
		re, err := regexp.Compile(d.Pattern)
		if err != nil {
			return Field{}, fmt.Errorf("field %q: pattern: %w", d.Name, err)
		}
		f.Checks = append(f.Checks, Pattern{Expr: re})
	}
	if len(d.Values) > 0 {
		f.Checks = append(f.Checks, OneOf{Values: d.Values})
	}
	if d.MinItems != nil {
		f.Checks = append(f.Checks, MinItems{N: *d.MinItems})
	}
	if d.Items != nil {
		items, err := d.Items.build()
		if err != nil {
			return Field{}, fmt.Errorf("field %q items: %w", d.Name, err)
		}
		f.Items = &items
	}
	return f, nil
}
