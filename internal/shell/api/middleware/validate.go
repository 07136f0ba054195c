package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/pgstay/internal/core/validation"
)

// DefaultMaxBodyBytes bounds how much of a request body the gate will read.
const DefaultMaxBodyBytes = 1 << 20

// FaultHandler responds to a failure that is not a shape violation.
type FaultHandler func(w http.ResponseWriter, r *http.Request, err error)

// =============================================================================
// Validator Configuration
// =============================================================================

// ValidatorConfig holds configuration for the validation gate.
type ValidatorConfig struct {
	// OnFault handles malformed schemas and other unexpected failures.
	// Defaults to logging the error and writing a 500 envelope.
	OnFault FaultHandler

	// MaxBodyBytes caps the body size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Logger for validation gate logging.
	Logger *slog.Logger
}

// =============================================================================
// Validator
// =============================================================================

// Validator gates requests on a validation schema.
type Validator struct {
	config ValidatorConfig
}

// NewValidator creates a validation gate with the given config.
func NewValidator(cfg ValidatorConfig) *Validator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	v := &Validator{config: cfg}
	if v.config.OnFault == nil {
		v.config.OnFault = v.defaultFault
	}
	return v
}

// Handler returns middleware that validates body, query and path params
// against schema. A conforming request reaches next unchanged, with its body
// still readable. It must run after chi has routed the request, so mount it
// with r.With or inside a route group.
func (v *Validator) Handler(schema *validation.Schema) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, shapeErr, err := v.readRequest(r, schema)
			if err != nil {
				v.config.OnFault(w, r, err)
				return
			}
			if shapeErr == nil {
				err = schema.Validate(req)
				if verr, ok := validation.IsShapeViolation(err); ok {
					shapeErr = verr
				} else if err != nil {
					v.config.OnFault(w, r, err)
					return
				}
			}

			if shapeErr != nil {
				v.config.Logger.Debug("request failed validation",
					"schema", schema.Name,
					"path", r.URL.Path,
					"issues", len(shapeErr.Errors),
				)
				WriteError(w, http.StatusBadRequest, MessageValidationFailed, shapeErr.Errors...)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// readRequest extracts the three facets. A body that is not JSON is reported
// as a shape violation; failing to read the body at all is a fault.
func (v *Validator) readRequest(r *http.Request, schema *validation.Schema) (validation.Request, *validation.Error, error) {
	req := validation.Request{
		Query:  queryFacet(r),
		Params: paramsFacet(r),
	}
	if schema.Body == nil || r.Body == nil {
		return req, nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, v.config.MaxBodyBytes+1))
	r.Body.Close()
	if err != nil {
		return req, nil, err
	}
	if int64(len(raw)) > v.config.MaxBodyBytes {
		return req, bodyError(schema, "Request body too large"), nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return req, nil, nil
	}
	if err := json.Unmarshal(raw, &req.Body); err != nil {
		return req, bodyError(schema, "Invalid JSON"), nil
	}
	return req, nil, nil
}

func bodyError(schema *validation.Schema, message string) *validation.Error {
	return &validation.Error{
		Schema: schema.Name,
		Errors: []validation.FieldError{{Field: validation.FacetBody, Message: message}},
	}
}

func queryFacet(r *http.Request) map[string]any {
	values := r.URL.Query()
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = vs
		}
	}
	return out
}

func paramsFacet(r *http.Request) map[string]string {
	out := make(map[string]string)
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" {
			continue
		}
		out[key] = rctx.URLParams.Values[i]
	}
	return out
}

func (v *Validator) defaultFault(w http.ResponseWriter, r *http.Request, err error) {
	v.config.Logger.Error("validation fault",
		"path", r.URL.Path,
		"method", r.Method,
		"error", err,
	)
	WriteError(w, http.StatusInternalServerError, MessageInternalError)
}
