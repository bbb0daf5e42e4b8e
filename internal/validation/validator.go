// Package validation checks mutation input against JSON schemas and reports
// violations per field.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aryan0dhankhar/gymdesk/internal/domain"
)

const maxFieldErrors = 10

// Validator holds compiled schemas. It is safe for concurrent use.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles the built-in schemas
func New() (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(builtin))}
	for name, src := range builtin {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// MustNew is New for package-level wiring; the built-in schemas are static
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks input, marshaled as JSON, against the named schema. A
// violation is returned as *domain.ValidationError.
func (v *Validator) Validate(name string, input any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	doc, err := json.Marshal(input)
	if err != nil {
		return domain.NewFieldError("body", "could not be encoded")
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return domain.NewFieldError("body", "must be a JSON object")
	}
	if res.Valid() {
		return nil
	}

	verr := &domain.ValidationError{}
	for i, e := range res.Errors() {
		if i >= maxFieldErrors {
			break
		}
		verr.Fields = append(verr.Fields, domain.FieldError{Field: fieldName(e), Message: e.Description()})
	}
	sort.SliceStable(verr.Fields, func(i, j int) bool { return verr.Fields[i].Field < verr.Fields[j].Field })
	return verr
}

// Decode unmarshals raw into dest and validates it. Malformed JSON is a
// validation error on "body".
func (v *Validator) Decode(name string, raw []byte, dest any) error {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.NewFieldError("body", "must be a JSON object")
	}
	if err := v.Validate(name, doc); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return domain.NewFieldError("body", "has the wrong shape")
	}
	return nil
}

func fieldName(e gojsonschema.ResultError) string {
	field := e.Field()
	if field == "(root)" {
		field = ""
	}
	if e.Type() == "required" || e.Type() == "additional_property_not_allowed" {
		if prop, ok := e.Details()["property"].(string); ok && !strings.HasSuffix(field, prop) {
			if field == "" {
				field = prop
			} else {
				field += "." + prop
			}
		}
	}
	if field == "" {
		return "body"
	}
	return field
}
