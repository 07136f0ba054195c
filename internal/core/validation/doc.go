// Package validation interprets declarative request schemas.
//
// This package contains the functional core of the validation gate. A Schema
// describes the expected shape of the three request facets (body, query and
// path params) as plain data; Validate walks an incoming Request against it
// and collects every violated constraint. All functions are pure (no I/O,
// no side effects).
//
// # Schemas
//
// Schemas are shipped as YAML documents under schemas/ and decoded into a
// Registry at startup:
//
//	reg, err := validation.DefaultRegistry()
//	schema := reg.MustGet(validation.TechnicianCreate)
//
// # Results
//
// Validate returns nil when the request conforms, a *Error carrying the
// ordered field errors when it does not, and an error wrapping
// ErrMalformedSchema when the schema itself cannot be interpreted:
//
//	if err := schema.Validate(req); err != nil {
//	    var verr *validation.Error
//	    if errors.As(err, &verr) {
//	        // 400 with verr.Errors
//	    }
//	    // otherwise a fault: 500
//	}
package validation
