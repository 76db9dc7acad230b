package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/xeipuuv/gojsonschema"
)

// Size limits (in bytes)
const (
	MaxJSONSize   = 1 * 1024 * 1024 // 1MB - maximum JSON payload size
	MaxSourceSize = 256 * 1024      // 256KB - default per-field source limit
)

// String length limits
const (
	MaxIDLength      = 128
	MaxCreatorLength = 128
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ErrInvalidRequest marks protocol-level request problems
var ErrInvalidRequest = errors.New("invalid request")

// runRequestSchema describes a RunRequest: both fields present and strings
const runRequestSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["code", "tests"],
	"properties": {
		"code": {"type": "string"},
		"tests": {"type": "string"}
	}
}`

var (
	runSchema     *gojsonschema.Schema
	runSchemaErr  error
	runSchemaOnce sync.Once
)

func loadRunSchema() (*gojsonschema.Schema, error) {
	runSchemaOnce.Do(func() {
		runSchema, runSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(runRequestSchema))
	})
	return runSchema, runSchemaErr
}

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator with the default 1MB limit
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxJSONSize)
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	size := len(data)
	if size > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", size, v.maxSize)
	}
	return nil
}

// ValidateRunRequest checks size and shape of a raw run request.
// Errors wrap ErrInvalidRequest.
func ValidateRunRequest(data []byte) error {
	if err := DefaultJSONValidator().ValidateSize(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	schema, err := loadRunSchema()
	if err != nil {
		return fmt.Errorf("failed to load request schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	return nil
}

// ValidateSource checks a program or tests field. Empty is allowed.
func ValidateSource(value, fieldName string, maxBytes int) error {
	if maxBytes <= 0 {
		maxBytes = MaxSourceSize
	}
	if len(value) > maxBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidRequest, fieldName, maxBytes)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidRequest, fieldName)
	}
	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateCreator validates the optional creator of a snippet
func ValidateCreator(creator string) error {
	return ValidateString(creator, "creator", 0, MaxCreatorLength, false)
}
