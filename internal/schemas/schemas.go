// Package schemas validates structured resume and job description documents
// against embedded JSON Schemas before they are decoded.
package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed definitions/*.schema.json
var definitions embed.FS

// Kind names an embedded schema
type Kind string

const (
	KindResume Kind = "resume"
	KindJob    Kind = "job"
)

// FieldError is a single violation at a document path
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violation found in a document
type ValidationError struct {
	Kind   Kind
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:", ve.Kind)
	for i, fe := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, fe.Field, fe.Message)
	}
	return sb.String()
}

var (
	compileOnce sync.Once
	compiled    map[Kind]*gojsonschema.Schema
	compileErr  error
)

func schemaFor(kind Kind) (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[Kind]*gojsonschema.Schema, 2)
		for _, k := range []Kind{KindResume, KindJob} {
			raw, err := definitions.ReadFile("definitions/" + string(k) + ".schema.json")
			if err != nil {
				compileErr = err
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				compileErr = fmt.Errorf("compiling %s schema: %w", k, err)
				return
			}
			compiled[k] = s
		}
	})
	if compileErr != nil {
		return nil, errors.NewInternalError(errors.ErrCodeSchemaViolation, "embedded schemas are invalid", compileErr)
	}
	s, ok := compiled[kind]
	if !ok {
		return nil, errors.NewInternalError(errors.ErrCodeSchemaViolation, fmt.Sprintf("unknown schema %q", kind), nil)
	}
	return s, nil
}

// Validate checks data against the schema for kind. Violations are returned
// as a SCHEMA_VIOLATION AppError wrapping a *ValidationError.
func Validate(kind Kind, data []byte) error {
	schema, err := schemaFor(kind)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, fmt.Sprintf("%s is not valid JSON", kind), err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Kind: kind, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return errors.NewValidationError(errors.ErrCodeSchemaViolation, fmt.Sprintf("%s does not match schema", kind), ve).
		WithContext("violations", ve.Errors)
}

// DecodeResume validates and decodes a resume document
func DecodeResume(data []byte) (*types.StructuredResume, error) {
	var resume types.StructuredResume
	if err := decode(KindResume, data, &resume); err != nil {
		return nil, err
	}
	return &resume, nil
}

// DecodeJob validates and decodes a job description document
func DecodeJob(data []byte) (*types.StructuredJobDescription, error) {
	var jd types.StructuredJobDescription
	if err := decode(KindJob, data, &jd); err != nil {
		return nil, err
	}
	return &jd, nil
}

func decode(kind Kind, data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.NewInvalidInput(fmt.Sprintf("%s document is empty", kind))
	}
	if err := Validate(kind, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, fmt.Sprintf("cannot decode %s", kind), err)
	}
	return nil
}
