package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

const (
	communityA = "6f1c2f9e-4d7b-4b8a-9a51-2f0d6f4c1a10"
	communityB = "0b7e8c2a-1f3d-4e5a-8b6c-7d9e0f1a2b3c"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	return reg
}

func validCreateBody() map[string]any {
	return map[string]any{
		"name":           "Ravi Kumar",
		"phoneNumber":    "+91 98765-43210",
		"speciality":     "PLUMBING",
		"pgCommunityIds": []any{communityA},
	}
}

func issuesOf(t *testing.T, err error) []FieldError {
	t.Helper()
	require.Error(t, err)
	verr, ok := IsShapeViolation(err)
	require.True(t, ok, "expected a shape violation, got %v", err)
	return verr.Errors
}

// =============================================================================
// Technician Create Tests
// =============================================================================

func TestTechnicianCreate_Valid(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	err := schema.Validate(Request{Body: validCreateBody()})
	assert.NoError(t, err)
}

func TestTechnicianCreate_MissingBodyReportsEveryRequiredField(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	got := issuesOf(t, schema.Validate(Request{}))
	want := []FieldError{
		{Field: "body.name", Message: "Required"},
		{Field: "body.phoneNumber", Message: "Required"},
		{Field: "body.speciality", Message: "Required"},
		{Field: "body.pgCommunityIds", Message: "Required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestTechnicianCreate_CollectsAllViolations(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	body := validCreateBody()
	body["name"] = " A "
	body["speciality"] = "ROOFING"
	body["pgCommunityIds"] = []any{}

	got := issuesOf(t, schema.Validate(Request{Body: body}))
	want := []FieldError{
		{Field: "body.name", Message: "String must contain at least 2 character(s)"},
		{Field: "body.speciality", Message: "Invalid enum value. Expected 'PLUMBING' | 'ELECTRICAL' | 'CLEANING' | 'MAINTENANCE' | 'SECURITY' | 'GARDENING' | 'PAINTING' | 'CARPENTRY' | 'GENERAL', received 'ROOFING'"},
		{Field: "body.pgCommunityIds", Message: "Array must contain at least 1 element(s)"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestTechnicianCreate_NameIsTrimmedBeforeLengthCheck(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"padded two chars", "  Al  ", false},
		{"whitespace only", "     ", true},
		{"one char padded", " A", true},
		{"exactly 100", strings.Repeat("a", 100), false},
		{"101 chars", strings.Repeat("a", 101), true},
		{"100 chars with padding", "  " + strings.Repeat("a", 100) + "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateBody()
			body["name"] = tt.value
			err := schema.Validate(Request{Body: body})
			if tt.wantErr {
				issues := issuesOf(t, err)
				require.Len(t, issues, 1)
				assert.Equal(t, "body.name", issues[0].Field)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTechnicianCreate_NameLengthCountsUTF16Units(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	tests := []struct {
		name    string
		value   string
		wantMsg string
	}{
		{"single emoji is two units", "🔧", ""},
		{"single accented letter", "é", "String must contain at least 2 character(s)"},
		{"50 emoji", strings.Repeat("🔧", 50), ""},
		{"51 emoji", strings.Repeat("🔧", 51), "String must contain at most 100 character(s)"},
		{"100 accented letters", strings.Repeat("é", 100), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateBody()
			body["name"] = tt.value
			err := schema.Validate(Request{Body: body})
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []FieldError{{Field: "body.name", Message: tt.wantMsg}}, issuesOf(t, err))
		})
	}
}

func TestTechnicianCreate_PhoneNumber(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	tests := []struct {
		name     string
		value    any
		messages []string
	}{
		{"ten digits", "9876543210", nil},
		{"fifteen chars", "+91 98765 43210", nil},
		{"dashes and parens", "(080) 4567-8901", nil},
		{"nine digits", "987654321", []string{"String must contain at least 10 character(s)"}},
		{"sixteen digits", "9876543210123456", []string{"String must contain at most 15 character(s)"}},
		{"letters", "98765abc10", []string{"Invalid"}},
		{"short with letters", "abc", []string{"String must contain at least 10 character(s)", "Invalid"}},
		{"plus not leading", "98765+43210", []string{"Invalid"}},
		{"number type", float64(9876543210), []string{"Expected string, received number"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateBody()
			body["phoneNumber"] = tt.value
			err := schema.Validate(Request{Body: body})
			if tt.messages == nil {
				assert.NoError(t, err)
				return
			}
			issues := issuesOf(t, err)
			var got []string
			for _, fe := range issues {
				assert.Equal(t, "body.phoneNumber", fe.Field)
				got = append(got, fe.Message)
			}
			assert.Equal(t, tt.messages, got)
		})
	}
}

func TestTechnicianCreate_EverySpecialityAccepted(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	for _, sp := range []string{
		"PLUMBING", "ELECTRICAL", "CLEANING", "MAINTENANCE", "SECURITY",
		"GARDENING", "PAINTING", "CARPENTRY", "GENERAL",
	} {
		t.Run(sp, func(t *testing.T) {
			body := validCreateBody()
			body["speciality"] = sp
			assert.NoError(t, schema.Validate(Request{Body: body}))
		})
	}
}

func TestTechnicianCreate_SpecialityIsCaseSensitive(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	body := validCreateBody()
	body["speciality"] = "plumbing"
	issues := issuesOf(t, schema.Validate(Request{Body: body}))
	require.Len(t, issues, 1)
	assert.Equal(t, "body.speciality", issues[0].Field)
}

func TestTechnicianCreate_CommunityIDs(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	tests := []struct {
		name  string
		value any
		want  []FieldError
	}{
		{"one id", []any{communityA}, nil},
		{"two ids", []any{communityA, communityB}, nil},
		{"empty", []any{}, []FieldError{
			{Field: "body.pgCommunityIds", Message: "Array must contain at least 1 element(s)"},
		}},
		{"bad element keeps index in path", []any{communityA, "not-a-uuid"}, []FieldError{
			{Field: "body.pgCommunityIds.1", Message: "Invalid uuid"},
		}},
		{"non string element", []any{true}, []FieldError{
			{Field: "body.pgCommunityIds.0", Message: "Expected string, received boolean"},
		}},
		{"not an array", communityA, []FieldError{
			{Field: "body.pgCommunityIds", Message: "Expected array, received string"},
		}},
		{"braced uuid rejected", []any{"{" + communityA + "}"}, []FieldError{
			{Field: "body.pgCommunityIds.0", Message: "Invalid uuid"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateBody()
			body["pgCommunityIds"] = tt.value
			err := schema.Validate(Request{Body: body})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			if diff := cmp.Diff(tt.want, issuesOf(t, err)); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTechnicianCreate_UnknownKeysIgnoredByDefault(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	body := validCreateBody()
	body["nickname"] = "Ravi"
	assert.NoError(t, schema.Validate(Request{Body: body}))
}

func TestTechnicianCreate_NullIsNotMissing(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	body := validCreateBody()
	body["name"] = nil
	issues := issuesOf(t, schema.Validate(Request{Body: body}))
	assert.Equal(t, []FieldError{{Field: "body.name", Message: "Expected string, received null"}}, issues)
}

func TestTechnicianCreate_BodyMustBeObject(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)

	issues := issuesOf(t, schema.Validate(Request{Body: []any{"x"}}))
	assert.Equal(t, []FieldError{{Field: "body", Message: "Expected object, received array"}}, issues)
}

// =============================================================================
// Other Technician Variants
// =============================================================================

func TestTechnicianAssign_ParamsAndBodyTogether(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianAssign)

	err := schema.Validate(Request{
		Params: map[string]string{"id": "42"},
		Body:   map[string]any{"pgCommunityIds": []any{}},
	})
	want := []FieldError{
		{Field: "body.pgCommunityIds", Message: "Array must contain at least 1 element(s)"},
		{Field: "params.id", Message: "Invalid uuid"},
	}
	if diff := cmp.Diff(want, issuesOf(t, err)); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestTechnicianUpdateAvailability(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianUpdateAvailability)
	params := map[string]string{"id": communityA}

	assert.NoError(t, schema.Validate(Request{Params: params, Body: map[string]any{"isAvailable": false}}))

	issues := issuesOf(t, schema.Validate(Request{Params: params, Body: map[string]any{"isAvailable": "yes"}}))
	assert.Equal(t, []FieldError{{Field: "body.isAvailable", Message: "Expected boolean, received string"}}, issues)
}

func TestTechnicianGetByID(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianGetByID)

	assert.NoError(t, schema.Validate(Request{Params: map[string]string{"id": communityB}}))

	issues := issuesOf(t, schema.Validate(Request{}))
	assert.Equal(t, []FieldError{{Field: "params.id", Message: "Required"}}, issues)
}

func TestTechnicianGetForPG(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianGetForPG)

	assert.NoError(t, schema.Validate(Request{Params: map[string]string{"pgCommunityId": communityA}}))

	issues := issuesOf(t, schema.Validate(Request{Params: map[string]string{"pgCommunityId": "abc"}}))
	assert.Equal(t, []FieldError{{Field: "params.pgCommunityId", Message: "Invalid uuid"}}, issues)
}

func TestTechnicianGetAvailable_OptionalSpecialityQuery(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianGetAvailable)
	params := map[string]string{"pgCommunityId": communityA}

	assert.NoError(t, schema.Validate(Request{Params: params}))
	assert.NoError(t, schema.Validate(Request{Params: params, Query: map[string]any{"speciality": "SECURITY"}}))

	issues := issuesOf(t, schema.Validate(Request{Params: params, Query: map[string]any{"speciality": "COOKING"}}))
	require.Len(t, issues, 1)
	assert.Equal(t, "query.speciality", issues[0].Field)

	issues = issuesOf(t, schema.Validate(Request{Params: params, Query: map[string]any{"speciality": []string{"SECURITY", "PAINTING"}}}))
	assert.Equal(t, []FieldError{{Field: "query.speciality", Message: "Expected string, received array"}}, issues)
}

func TestTechnicianUpdate_EveryBodyFieldOptional(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianUpdate)
	params := map[string]string{"id": communityA}

	assert.NoError(t, schema.Validate(Request{Params: params}))
	assert.NoError(t, schema.Validate(Request{Params: params, Body: map[string]any{"isAvailable": true}}))
	assert.NoError(t, schema.Validate(Request{Params: params, Body: map[string]any{"name": "Suresh"}}))

	err := schema.Validate(Request{Params: params, Body: map[string]any{
		"phoneNumber": "123",
		"speciality":  "WELDING",
	}})
	issues := issuesOf(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "body.phoneNumber", issues[0].Field)
	assert.Equal(t, "body.speciality", issues[1].Field)
}

// =============================================================================
// Unknown Key Policy Tests
// =============================================================================

func TestUnknownReject_ListsSortedKeysOncePerFacet(t *testing.T) {
	reg, err := DefaultRegistry(WithUnknownPolicy(UnknownReject))
	require.NoError(t, err)
	schema := reg.MustGet(TechnicianUpdateAvailability)

	err = schema.Validate(Request{
		Params: map[string]string{"id": communityA},
		Body:   map[string]any{"isAvailable": true, "zeta": 1, "alpha": 2},
	})
	want := []FieldError{
		{Field: "body", Message: "Unrecognized key(s) in object: 'alpha', 'zeta'"},
	}
	if diff := cmp.Diff(want, issuesOf(t, err)); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestWithUnknown_DoesNotMutateOriginal(t *testing.T) {
	schema := testRegistry(t).MustGet(TechnicianCreate)
	strict := schema.WithUnknown(UnknownReject)

	body := validCreateBody()
	body["extra"] = true

	assert.NoError(t, schema.Validate(Request{Body: body}))
	assert.Error(t, strict.Validate(Request{Body: body}))
	assert.Equal(t, UnknownStrip, schema.Body.Unknown)
}

// =============================================================================
// Malformed Schema Tests
// =============================================================================

func TestValidate_MalformedSchemaIsAFault(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
	}{
		{"empty enum", &Schema{Name: "x", Body: NewObject(Field{Name: "s", Type: TypeEnum, Checks: []Check{OneOf{}}})}},
		{"enum without values", &Schema{Name: "x", Body: NewObject(Field{Name: "s", Type: TypeEnum})}},
		{"inverted length", &Schema{Name: "x", Body: NewObject(String("s").WithLength(10, 2))}},
		{"nil pattern", &Schema{Name: "x", Body: NewObject(Field{Name: "s", Type: TypeString, Checks: []Check{Pattern{}}})}},
		{"array without items", &Schema{Name: "x", Body: NewObject(Field{Name: "a", Type: TypeArray})}},
		{"unknown type", &Schema{Name: "x", Query: NewObject(Field{Name: "n", Type: "number"})}},
		{"duplicate field", &Schema{Name: "x", Params: NewObject(UUID("id"), UUID("id"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate(Request{Body: map[string]any{}})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedSchema))
			_, isShape := IsShapeViolation(err)
			assert.False(t, isShape)
		})
	}
}

func TestBuilders_MatchRegistrySemantics(t *testing.T) {
	schema := &Schema{
		Name: "built",
		Body: NewObject(
			String("name").WithTrim().WithLength(2, 100),
			Enum("speciality", "PLUMBING", "GENERAL"),
			Array("ids", UUID("")).WithMinItems(1),
			Boolean("isAvailable").WithOptional(),
		),
	}
	require.NoError(t, schema.Verify())

	assert.NoError(t, schema.Validate(Request{Body: map[string]any{
		"name":       " Jo ",
		"speciality": "GENERAL",
		"ids":        []any{communityA},
	}}))

	issues := issuesOf(t, schema.Validate(Request{Body: map[string]any{
		"name":        "J",
		"speciality":  "GENERAL",
		"ids":         []any{},
		"isAvailable": "no",
	}}))
	assert.Len(t, issues, 3)
}

func TestError_Message(t *testing.T) {
	err := &Error{Schema: "technician.create", Errors: []FieldError{
		{Field: "body.name", Message: "Required"},
		{Field: "params.id", Message: "Invalid uuid"},
	}}
	assert.Equal(t, "validation failed for technician.create: body.name: Required; params.id: Invalid uuid", err.Error())
}
