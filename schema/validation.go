package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// Validator validates arbitrary values (hierarchy descriptions, view params)
// against a JSON Schema document, with compiled-schema caching and security
// limits on the schema itself.
type Validator struct {
	config *ValidationConfig
	cache  *validatorCache
}

// NewValidator creates a new validator with given config.
func NewValidator(config *ValidationConfig) *Validator {
	if config == nil {
		config = DefaultValidationConfig()
	}

	var cache *validatorCache
	if config.EnableCache {
		cache = newValidatorCache(config.MaxCacheSize)
	}

	return &Validator{
		config: config,
		cache:  cache,
	}
}

// Validate checks value against schema, enforcing the configured size and
// nesting-depth limits on schema itself before compiling it.
func (v *Validator) Validate(jsonSchema JSONSchema, value interface{}) error {
	schemaBytes, err := json.Marshal(jsonSchema)
	if err != nil {
		return fmt.Errorf("schema marshal failed: %w", err)
	}
	if len(schemaBytes) > v.config.MaxSchemaSize {
		return fmt.Errorf("schema too large: %d bytes (max: %d)",
			len(schemaBytes), v.config.MaxSchemaSize)
	}

	depth := measureSchemaDepth(jsonSchema)
	if depth > v.config.MaxSchemaDepth {
		return fmt.Errorf("schema too deep: %d levels (max: %d)",
			depth, v.config.MaxSchemaDepth)
	}

	validator, err := v.getValidator(jsonSchema)
	if err != nil {
		return fmt.Errorf("validator compilation failed: %w", err)
	}

	if err := validator.Validate(value); err != nil {
		return convertValidationError(err)
	}

	return nil
}

// getValidator gets cached validator or compiles new one
func (v *Validator) getValidator(schema JSONSchema) (*jsonschema.Schema, error) {
	schemaHash, err := hashSchema(schema)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		if validator, ok := v.cache.get(schemaHash); ok {
			return validator, nil
		}
	}

	validator, err := v.compileSchema(schema)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		v.cache.put(schemaHash, validator)
	}

	return validator, nil
}

// compileSchema compiles JSON Schema with security controls
func (v *Validator) compileSchema(schema JSONSchema) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = v.config.AssertFormat
	compiler.AssertContent = v.config.AssertContent

	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	for name, validator := range getFormatValidators() {
		compiler.Formats[name] = validator
	}

	compiler.LoadURL = v.createSecureLoader()

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	url := "schema://main.json"
	if err := compiler.AddResource(url, strings.NewReader(string(schemaJSON))); err != nil {
		return nil, err
	}

	return compiler.Compile(url)
}

// createSecureLoader creates a LoadURL function with security controls
func (v *Validator) createSecureLoader() func(string) (io.ReadCloser, error) {
	return func(url string) (io.ReadCloser, error) {
		if !v.config.AllowRemoteRef {
			if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
				return nil, fmt.Errorf("remote $ref not allowed: %s", url)
			}
		}

		allowed := false
		for _, scheme := range v.config.AllowedSchemes {
			if strings.HasPrefix(url, scheme+"://") || strings.HasPrefix(url, scheme+":") {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("URL scheme not allowed: %s", url)
		}

		return jsonschema.LoadURL(url)
	}
}

// getFormatValidators returns the kernel's custom format checkers, layered
// on top of the compiler's standard ones (email, uri, ipv4, ...).
func getFormatValidators() map[string]func(interface{}) bool {
	return map[string]func(interface{}) bool{
		string(FormatSemver): func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true // type validation happens separately
			}
			if !strings.HasPrefix(s, "v") {
				s = "v" + s
			}
			return semver.IsValid(s)
		},
	}
}

// convertValidationError converts jsonschema.ValidationError to our format
func convertValidationError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}
	return ve
}

// measureSchemaDepth measures the maximum nesting depth of a JSON Schema to
// prevent resource exhaustion from deeply nested schemas. Depth is counted
// by following "properties"/"items"/"allOf"/"anyOf"/"oneOf" nesting.
func measureSchemaDepth(schema JSONSchema) int {
	return measureDepth(schema, 0)
}

func measureDepth(obj any, currentDepth int) int {
	var m map[string]any
	switch v := obj.(type) {
	case JSONSchema:
		m = map[string]any(v)
	case map[string]any:
		m = v
	default:
		return currentDepth
	}

	maxDepth := currentDepth

	if propsVal, hasProps := m["properties"]; hasProps {
		switch props := propsVal.(type) {
		case map[string]any:
			for _, fieldSchema := range props {
				if depth := measureDepth(fieldSchema, currentDepth+1); depth > maxDepth {
					maxDepth = depth
				}
			}
		case map[string]JSONSchema:
			for _, fieldSchema := range props {
				if depth := measureDepth(fieldSchema, currentDepth+1); depth > maxDepth {
					maxDepth = depth
				}
			}
		}
	}

	if items, ok := m["items"]; ok {
		if depth := measureDepth(items, currentDepth+1); depth > maxDepth {
			maxDepth = depth
		}
	}

	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if arr, ok := m[key].([]any); ok {
			for _, s := range arr {
				if depth := measureDepth(s, currentDepth+1); depth > maxDepth {
					maxDepth = depth
				}
			}
		}
	}

	return maxDepth
}
