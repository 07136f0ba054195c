// Package openapi builds the OpenAPI 3.0 document for the pgstay API.
//
// Request shapes come straight from the validation schemas that gate each
// route, so the published contract and the enforced one cannot drift.
// Response payloads are described by reflecting on the returned Go types.
package openapi

import (
	"encoding/json"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/artpar/pgstay/internal/core/validation"
)

const bearerScheme = "bearerAuth"

// =============================================================================
// Generator
// =============================================================================

// Generator produces an OpenAPI 3.0 specification from registered routes.
type Generator struct {
	title       string
	version     string
	description string
	servers     []string
	routes      []Route
	mu          sync.RWMutex
	cachedSpec  *openapi3.T
}

// Route describes one documented endpoint.
type Route struct {
	Method      string
	Path        string // chi pattern, e.g. /api/v1/technicians/{id}
	OperationID string
	Summary     string
	Tag         string
	// Schema is the validation schema gating the route, if any.
	Schema *validation.Schema
	// Response is a sample of the envelope's data payload, for reflection.
	Response any
	// Status is the success status code. Zero means 200.
	Status int
	// Secured marks routes that need a bearer token.
	Secured bool
}

// Option configures the generator.
type Option func(*Generator)

// WithTitle sets the API title.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(g *Generator) {
		g.servers = append(g.servers, url)
	}
}

// NewGenerator creates a new OpenAPI generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		title:       "pgstay API",
		version:     "1.0.0",
		description: "PG community, resident and technician management API",
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Register adds a route to the generated document.
func (g *Generator) Register(route Route) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.routes = append(g.routes, route)
	g.cachedSpec = nil // Invalidate cache
}

// Generate produces the complete OpenAPI 3.0 specification.
func (g *Generator) Generate() *openapi3.T {
	g.mu.RLock()
	if g.cachedSpec != nil {
		spec := g.cachedSpec
		g.mu.RUnlock()
		return spec
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       g.title,
			Version:     g.version,
			Description: g.description,
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
			SecuritySchemes: openapi3.SecuritySchemes{
				bearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
	}
	for _, url := range g.servers {
		spec.Servers = append(spec.Servers, &openapi3.Server{URL: url})
	}

	addCommonSchemas(spec)
	for _, route := range g.routes {
		g.addRoute(spec, route)
	}

	g.cachedSpec = spec
	return spec
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *Generator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.Generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

// =============================================================================
// Common Schemas
// =============================================================================

func addCommonSchemas(spec *openapi3.T) {
	spec.Components.Schemas["FieldError"] = openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
		WithProperty("field", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema()))

	errs := openapi3.NewArraySchema()
	errs.Items = &openapi3.SchemaRef{Ref: "#/components/schemas/FieldError"}
	spec.Components.Schemas["ErrorResponse"] = openapi3.NewSchemaRef("", openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("errors", errs))
}

// =============================================================================
// Route Generation
// =============================================================================

func (g *Generator) addRoute(spec *openapi3.T, route Route) {
	item := spec.Paths.Value(route.Path)
	if item == nil {
		item = &openapi3.PathItem{}
		spec.Paths.Set(route.Path, item)
	}

	op := &openapi3.Operation{
		OperationID: route.OperationID,
		Summary:     route.Summary,
		Responses:   &openapi3.Responses{},
	}
	if route.Tag != "" {
		op.Tags = []string{route.Tag}
	}
	if route.Secured {
		op.Security = &openapi3.SecurityRequirements{{bearerScheme: []string{}}}
		op.Responses.Set("401", errorResponse("Missing, invalid or revoked token"))
	}

	if s := route.Schema; s != nil {
		if s.Params != nil {
			for _, f := range s.Params.Fields {
				p := openapi3.NewPathParameter(f.Name).WithSchema(fieldSchema(f))
				op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: p})
			}
		}
		if s.Query != nil {
			for _, f := range s.Query.Fields {
				p := openapi3.NewQueryParameter(f.Name).WithSchema(fieldSchema(f)).WithRequired(!f.Optional)
				op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: p})
			}
		}
		if s.Body != nil {
			op.RequestBody = &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().
					WithRequired(true).
					WithJSONSchema(objectSchema(s.Body)),
			}
		}
		op.Responses.Set("400", errorResponse("Validation failed"))
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(http.StatusText(status)).
			WithJSONSchema(envelopeSchema(route.Response)),
	})
	op.Responses.Set("500", errorResponse("Internal server error"))

	item.SetOperation(strings.ToUpper(route.Method), op)
}

func errorResponse(description string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchemaRef(&openapi3.SchemaRef{Ref: "#/components/schemas/ErrorResponse"}),
	}
}

func envelopeSchema(data any) *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	if data != nil {
		s.WithPropertyRef("data", goTypeToSchema(reflect.TypeOf(data)))
	}
	return s
}

// =============================================================================
// Validation Schema Conversion
// =============================================================================

func objectSchema(o *validation.Object) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	var required []string
	for _, f := range o.Fields {
		s.WithProperty(f.Name, fieldSchema(f))
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	sort.Strings(required)
	s.Required = required
	if o.Unknown == validation.UnknownReject {
		s.WithoutAdditionalProperties()
	}
	return s
}

func fieldSchema(f validation.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Type {
	case validation.TypeBoolean:
		s = openapi3.NewBoolSchema()
	case validation.TypeUUID:
		s = openapi3.NewStringSchema().WithFormat("uuid")
	case validation.TypeArray:
		s = openapi3.NewArraySchema()
		if f.Items != nil {
			s.WithItems(fieldSchema(*f.Items))
		}
	default:
		s = openapi3.NewStringSchema()
	}

	for _, c := range f.Checks {
		switch c := c.(type) {
		case validation.Length:
			if c.Min > 0 {
				s.WithMinLength(int64(c.Min))
			}
			if c.Max > 0 {
				s.WithMaxLength(int64(c.Max))
			}
		case validation.Pattern:
			if c.Expr != nil {
				s.WithPattern(c.Expr.String())
			}
		case validation.OneOf:
			values := make([]any, len(c.Values))
			for i, v := range c.Values {
				values[i] = v
			}
			s.WithEnum(values...)
		case validation.MinItems:
			s.WithMinItems(int64(c.N))
		case validation.UUIDFormat:
			s.WithFormat("uuid")
		}
	}
	return s
}

// =============================================================================
// Reflection
// =============================================================================

// goTypeToSchema converts a Go type to an OpenAPI schema.
func goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: openapi3.NewInt32Schema()}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: openapi3.NewInt64Schema()}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: openapi3.NewIntegerSchema()}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: openapi3.NewFloat64Schema()}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: openapi3.NewBoolSchema()}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{Value: openapi3.NewArraySchema().WithItems(goTypeToSchema(t.Elem()).Value)}

	case reflect.Map:
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema().WithAdditionalProperties(goTypeToSchema(t.Elem()).Value)}

	case reflect.Ptr:
		schema := goTypeToSchema(t.Elem())
		if schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		// Handle time.Time specially
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{Value: openapi3.NewDateTimeSchema()}
		}
		return structSchema(t)

	default:
		// Unknown type, return generic object
		return &openapi3.SchemaRef{Value: openapi3.NewObjectSchema()}
	}
}

// structSchema extracts an OpenAPI schema from the exported, JSON-visible
// fields of a struct.
func structSchema(t reflect.Type) *openapi3.SchemaRef {
	schema := openapi3.NewObjectSchema()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if n, _, _ := strings.Cut(jsonTag, ","); n != "" {
				name = n
			}
		}

		schema.WithPropertyRef(name, goTypeToSchema(field.Type))
	}

	return &openapi3.SchemaRef{Value: schema}
}
