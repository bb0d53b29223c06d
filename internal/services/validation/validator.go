package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

// Embedded request schemas.
const (
	SchemaLogin = "login.json"
)

// DefaultCacheSize bounds the compiled-schema cache.
const DefaultCacheSize = 16

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrMalformedBody is returned when the request body is not a JSON document.
var ErrMalformedBody = errors.New("malformed request body")

// Violation is a single schema violation, phrased for the client.
type Violation struct {
	Path    string // JSON path, e.g. "$.username"
	Message string
}

// ValidationError reports every violation found in a request body.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("validation failed at '%s': %s", v.Path, v.Message))
	}
	return strings.Join(parts, "; ")
}

// Message returns the first violation's client-facing message.
func (e *ValidationError) Message() string {
	if len(e.Violations) == 0 {
		return "Validation error"
	}
	return e.Violations[0].Message
}

// RequestValidator validates JSON request bodies against embedded schemas
// using santhosh-tekuri/jsonschema/v6. Compiled schemas are cached.
type RequestValidator struct {
	schemaCache *lru.Cache[string, *jsonschema.Schema]
}

// NewRequestValidator creates a new validator with LRU caching for compiled schemas
func NewRequestValidator(cacheSize int) (*RequestValidator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *jsonschema.Schema](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &RequestValidator{schemaCache: cache}, nil
}

// DecodeAndValidate validates body against the named schema and, when it
// passes, decodes it into target.
//
// Returns ErrMalformedBody for non-JSON input and *ValidationError for schema
// violations. Any other error means the schema itself is broken.
func (v *RequestValidator) DecodeAndValidate(schemaName string, body []byte, target any) error {
	schema, err := v.schema(schemaName)
	if err != nil {
		return err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	if err := schema.Validate(instance); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &ValidationError{Violations: violations(ve)}
		}
		return fmt.Errorf("validate %s: %w", schemaName, err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// schema returns the compiled schema, compiling and caching it on first use.
func (v *RequestValidator) schema(name string) (*jsonschema.Schema, error) {
	if cached, ok := v.schemaCache.Get(name); ok {
		return cached, nil
	}

	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", name, err)
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource(name, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	v.schemaCache.Add(name, compiled)
	return compiled, nil
}

// GetCacheSize returns cache size for monitoring
func (v *RequestValidator) GetCacheSize() int {
	return v.schemaCache.Len()
}

// violations flattens the error tree into one message per field, ordered by path.
func violations(root *jsonschema.ValidationError) []Violation {
	seen := make(map[string]bool)
	var out []Violation

	var walk func(ve *jsonschema.ValidationError)
	walk = func(ve *jsonschema.ValidationError) {
		if len(ve.Causes) > 0 {
			for _, c := range ve.Causes {
				walk(c)
			}
			return
		}
		for _, v := range leafViolations(ve) {
			if !seen[v.Path] {
				seen[v.Path] = true
				out = append(out, v)
			}
		}
	}
	walk(root)

	// Username ahead of password so the first message follows form order.
	slices.SortFunc(out, func(a, b Violation) int {
		if d := fieldRank(a.Path) - fieldRank(b.Path); d != 0 {
			return d
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

func leafViolations(ve *jsonschema.ValidationError) []Violation {
	base := instancePath(ve.InstanceLocation)

	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		result := make([]Violation, 0, len(k.Missing))
		for _, field := range k.Missing {
			result = append(result, Violation{
				Path:    joinPath(base, field),
				Message: fmt.Sprintf("%s cannot be blank", fieldLabel(field)),
			})
		}
		return result
	case *kind.MinLength, *kind.Pattern:
		return []Violation{{Path: base, Message: fmt.Sprintf("%s cannot be blank", fieldLabel(lastField(ve.InstanceLocation)))}}
	case *kind.MaxLength:
		return []Violation{{Path: base, Message: fmt.Sprintf("%s must be at most %d characters", fieldLabel(lastField(ve.InstanceLocation)), k.Want)}}
	case *kind.Type:
		if len(ve.InstanceLocation) == 0 {
			return []Violation{{Path: base, Message: "Request body must be a JSON object"}}
		}
		return []Violation{{Path: base, Message: fmt.Sprintf("%s must be a %s", fieldLabel(lastField(ve.InstanceLocation)), strings.Join(k.Want, " or "))}}
	default:
		return []Violation{{Path: base, Message: ve.Error()}}
	}
}

// instancePath builds a JSON path from InstanceLocation (e.g., ["username"] -> "$.username")
func instancePath(location []string) string {
	var parts []string
	for _, part := range location {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "$"
	}
	return "$." + strings.Join(parts, ".")
}

func joinPath(base, field string) string {
	return base + "." + field
}

func lastField(location []string) string {
	if len(location) == 0 {
		return ""
	}
	return location[len(location)-1]
}

func fieldLabel(field string) string {
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func fieldRank(path string) int {
	switch path {
	case "$.username":
		return 0
	case "$.password":
		return 1
	default:
		return 2
	}
}
